// Package hcl implements the config.Loader interface for pipeline
// descriptions written in HCL.
package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/fsutil"
)

// Loader parses pipeline .hcl files into the format-agnostic config model.
type Loader struct{}

// NewLoader creates an HCL pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes all top-level blocks allowed in any pipeline file.
type fileRoot struct {
	Engine *engineBlock `hcl:"engine,block"`
	Jobs   []*jobBlock  `hcl:"job,block"`
	Remain hcl.Body     `hcl:",remain"`
}

type engineBlock struct {
	Mode    *string `hcl:"mode,optional"`
	RAMMB   *int    `hcl:"ram_mb,optional"`
	CPUs    *int    `hcl:"cpus,optional"`
	Workers *int    `hcl:"workers,optional"`
	PollMS  *int    `hcl:"poll_ms,optional"`
}

type jobBlock struct {
	Name  string       `hcl:"name,label"`
	Tasks []*taskBlock `hcl:"task,block"`
}

type taskBlock struct {
	ID        string          `hcl:"id,label"`
	Kind      string          `hcl:"kind"`
	AppType   *string         `hcl:"app_type,optional"`
	Arguments hcl.Expression  `hcl:"arguments,optional"`
	DependsOn []string        `hcl:"depends_on,optional"`
	Resources *resourcesBlock `hcl:"resources,block"`
}

type resourcesBlock struct {
	CPU       *int  `hcl:"cpu,optional"`
	MemMB     *int  `hcl:"mem_mb,optional"`
	Exclusive *bool `hcl:"exclusive,optional"`
}

// Load discovers every .hcl file under the given paths, decodes them, and
// merges the result into one model. An `engine` block may appear at most
// once across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, p := range paths {
		found, err := fsutil.FindByExtension(p, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("discovering pipeline files under %s: %w", p, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl pipeline files found under %v", paths)
	}
	logger.Debug("Discovered pipeline files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %w", file, diags)
		}

		if root.Engine != nil {
			if model.Engine != nil {
				return nil, fmt.Errorf("%s: duplicate engine block", file)
			}
			model.Engine = translateEngine(root.Engine)
		}
		for _, jb := range root.Jobs {
			j, err := translateJob(jb)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Jobs = append(model.Jobs, j)
		}
	}
	logger.Debug("Pipeline model loaded.", "jobs", len(model.Jobs))
	return model, nil
}

func translateEngine(b *engineBlock) *config.Engine {
	e := &config.Engine{}
	if b.Mode != nil {
		e.Mode = *b.Mode
	}
	if b.RAMMB != nil {
		e.RAMMB = *b.RAMMB
	}
	if b.CPUs != nil {
		e.CPUs = *b.CPUs
	}
	if b.Workers != nil {
		e.Workers = *b.Workers
	}
	if b.PollMS != nil {
		e.PollMS = *b.PollMS
	}
	return e
}

func translateJob(b *jobBlock) (*config.Job, error) {
	j := &config.Job{Name: b.Name}
	for _, tb := range b.Tasks {
		t, err := translateTask(tb)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", b.Name, err)
		}
		j.Tasks = append(j.Tasks, t)
	}
	return j, nil
}

func translateTask(b *taskBlock) (*config.Task, error) {
	t := &config.Task{
		ID:        b.ID,
		Kind:      b.Kind,
		DependsOn: b.DependsOn,
	}
	if b.AppType != nil {
		t.AppType = *b.AppType
	}
	if b.Arguments != nil {
		args, err := evalArguments(b.Arguments)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", b.ID, err)
		}
		t.Arguments = args
	}
	if b.Resources != nil {
		res := &config.Resources{}
		if b.Resources.CPU != nil {
			res.CPU = *b.Resources.CPU
		}
		if b.Resources.MemMB != nil {
			res.MemMB = *b.Resources.MemMB
		}
		if b.Resources.Exclusive != nil {
			res.Exclusive = *b.Resources.Exclusive
		}
		t.Resources = res
	}
	return t, nil
}
