// Package cli parses command-line arguments into an app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/taskgrid/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app config,
// a boolean indicating the program should exit cleanly (help requested), or
// an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("taskgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
taskgrid - a resource-aware workflow execution engine.

Usage:
  taskgrid [options] [PIPELINE_PATH]

Arguments:
  PIPELINE_PATH
    Path to a single .hcl pipeline file or a directory of .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	pipelineFlag := flagSet.String("pipeline", "", "Path to the pipeline file or directory.")
	modeFlag := flagSet.String("mode", "", "Engine strategy override: 'sequential' or 'concurrent'.")
	cpusFlag := flagSet.Int("cpus", 0, "Core budget for the concurrent engine. Default: the host's core count.")
	ramMBFlag := flagSet.Int("ram-mb", 0, "Memory budget in megabytes for the concurrent engine.")
	workersFlag := flagSet.Int("workers", 0, "Worker pool size for the concurrent engine. Default: the core budget.")
	pollMSFlag := flagSet.Int("poll-ms", 0, "Idle scheduling interval in milliseconds for the concurrent engine.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := *pipelineFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "a pipeline path is required"}
	}

	mode := strings.ToLower(*modeFlag)
	switch mode {
	case "", "sequential", "concurrent":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid mode: must be 'sequential' or 'concurrent'"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	for name, v := range map[string]int{
		"cpus": *cpusFlag, "ram-mb": *ramMBFlag, "workers": *workersFlag, "poll-ms": *pollMSFlag,
	} {
		if v < 0 {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid %s: cannot be negative", name)}
		}
	}

	cfg, err := app.NewConfig(app.Config{
		PipelinePath: path,
		Mode:         mode,
		CPUs:         *cpusFlag,
		RAMMB:        *ramMBFlag,
		Workers:      *workersFlag,
		PollMS:       *pollMSFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}
