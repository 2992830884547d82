package linkspace

import "sync"

// current holds an optional, process-wide default handle (§9 "Global
// state"): external collaborators like an ABE template evaluator or a CLI
// frontend may stash a handle here once at startup for implicit lookups,
// but every function in this package itself takes its *Linkspace
// explicitly — nothing internal to the core ever reads currentLS.
var (
	currentMu sync.Mutex
	currentLS *Linkspace
)

// SetCurrent stashes ls as the process-wide default handle, for
// collaborators that have no natural way to thread an explicit handle
// through (e.g. an ABE scope's encode callback). Passing nil clears it.
func SetCurrent(ls *Linkspace) {
	currentMu.Lock()
	defer currentMu.Unlock()
	currentLS = ls
}

// Current returns the handle last passed to SetCurrent, or nil if none.
func Current() *Linkspace {
	currentMu.Lock()
	defer currentMu.Unlock()
	return currentLS
}
