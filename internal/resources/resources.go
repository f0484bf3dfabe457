// Package resources defines compute resource requests and the ledger the
// concurrent engine uses to grant and reclaim them.
package resources

import "fmt"

// CPUAll is the sentinel CPU count meaning "reserve every core, exclusively".
// A task requesting it runs alone on the machine.
const CPUAll = -1

// Request is an immutable ask for CPU cores and memory. Once attached to a
// task it is never mutated; the same value is used for both acquisition and
// release so the ledger always balances.
type Request struct {
	// CPU is a positive core count, or CPUAll.
	CPU int
	// MemMB is the requested memory in megabytes.
	MemMB int
}

// Exclusive reports whether the request asks for the whole machine.
func (r Request) Exclusive() bool {
	return r.CPU == CPUAll
}

// String implements fmt.Stringer for log output.
func (r Request) String() string {
	if r.Exclusive() {
		return fmt.Sprintf("cpu=all mem=%dMB", r.MemMB)
	}
	return fmt.Sprintf("cpu=%d mem=%dMB", r.CPU, r.MemMB)
}
