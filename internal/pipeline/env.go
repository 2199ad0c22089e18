// Package pipeline runs the sync pass and the incremental statusline path:
// it converts per-session counters into emit-safe ledger deltas under the
// lock manager.
package pipeline

// Env carries the invocation context that collaborators (shell
// integration, status line hooks) pass into every entry point. It replaces
// ambient process environment variables: the core never reads globals.
type Env struct {
	Tool        string
	ProfileKey  string
	ProfileName string
	WorkingDir  string
	TerminalTag string
}
