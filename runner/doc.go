// Package runner implements the application service layer: it resolves
// projects and chats, appends user messages, and drives debate pipeline runs
// against the store. It is the single place where the per-chat write lock is
// held, guaranteeing that sequence computation and message persistence for
// one chat never interleave across concurrent requests.
package runner
