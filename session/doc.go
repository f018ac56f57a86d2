// Package session houses concrete implementations of the core store
// contracts (projects, chats, ordered messages, users). The interfaces
// themselves live in the core package to centralize domain contracts;
// keeping only implementations here prevents higher level packages (agent,
// runner, server) from depending on concrete storage.
//
// Two backends are provided: a volatile in-memory store for tests and demo
// servers, and a durable SQLite store. Additional backends (Postgres, etc.)
// can be added without changing any calling code; only the wiring layer
// decides which implementation to instantiate.
package session
