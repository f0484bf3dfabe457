package resources

import "fmt"

// Ledger tracks how much of the machine's CPU and RAM budget is currently
// handed out to running tasks.
//
// The ledger is deliberately unsynchronized: it is owned by the concurrent
// engine's control goroutine, which is the only caller of Acquire and
// Release. Workers never touch it.
type Ledger struct {
	totalCPU int
	totalRAM int

	availableCPU int
	availableRAM int

	// exclusiveLock is set while a CPUAll task is running. While set, no
	// other admission succeeds regardless of available cores.
	exclusiveLock bool
}

// NewLedger returns a ledger with the full budget available.
func NewLedger(totalCPU, totalRAMMB int) *Ledger {
	return &Ledger{
		totalCPU:     totalCPU,
		totalRAM:     totalRAMMB,
		availableCPU: totalCPU,
		availableRAM: totalRAMMB,
	}
}

// Acquire attempts to admit a request against the remaining budget. It
// returns false without side effects when the request cannot currently be
// satisfied; the caller is expected to retry on a later scheduling pass.
//
// While the exclusive lock is held, every request is rejected. An exclusive
// (CPUAll) request is itself grantable only when the machine is fully idle:
// the lock is clear and every core is available. A request that can
// never fit (more RAM than the total, for example) is rejected forever; the
// ledger does not detect starvation.
func (l *Ledger) Acquire(req Request) bool {
	if l.exclusiveLock {
		return false
	}
	if req.MemMB > l.availableRAM {
		return false
	}
	if req.Exclusive() && l.availableCPU != l.totalCPU {
		return false
	}
	if !req.Exclusive() && req.CPU > l.availableCPU {
		return false
	}
	l.availableRAM -= req.MemMB
	if req.Exclusive() {
		l.exclusiveLock = true
	} else {
		l.availableCPU -= req.CPU
	}
	return true
}

// Release returns a previously acquired request to the budget. It must be
// called exactly once per successful Acquire, with the same request value.
func (l *Ledger) Release(req Request) {
	l.availableRAM += req.MemMB
	if req.Exclusive() {
		l.exclusiveLock = false
	} else {
		l.availableCPU += req.CPU
	}
}

// AvailableCPU returns the number of unreserved cores.
func (l *Ledger) AvailableCPU() int { return l.availableCPU }

// AvailableRAM returns the unreserved memory in megabytes.
func (l *Ledger) AvailableRAM() int { return l.availableRAM }

// TotalCPU returns the fixed core budget.
func (l *Ledger) TotalCPU() int { return l.totalCPU }

// TotalRAM returns the fixed memory budget in megabytes.
func (l *Ledger) TotalRAM() int { return l.totalRAM }

// Locked reports whether an exclusive task currently holds the machine.
func (l *Ledger) Locked() bool { return l.exclusiveLock }

// String renders the ledger state for debug logs, e.g. "cpu 3/4 ram 2048/4096".
func (l *Ledger) String() string {
	lock := ""
	if l.exclusiveLock {
		lock = "L"
	}
	return fmt.Sprintf("cpu %d/%d%s ram %d/%d",
		l.availableCPU, l.totalCPU, lock, l.availableRAM, l.totalRAM)
}
