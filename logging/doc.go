// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing callers to plug
// any structured logger. It also offers a richer DebateLogger with contextual
// helpers (chat, run, component) and domain specific helpers for model calls
// and pipeline runs.
package logging
