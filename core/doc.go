// Package core provides the foundational domain types and contracts for the
// brainstormer debate engine. It defines:
//
//   - Roles (the human user plus the six fixed debate personas)
//   - Entities (User, Project, ChatSession, Message)
//   - Pluggable store interfaces for projects, chats and ordered messages
//   - Error kinds shared across layers (ErrNotFound, ModelError)
//   - A per-run model-call budget
//
// The package intentionally keeps implementation concerns (persistence,
// model adapters, HTTP serialization) out of scope, exposing small interfaces
// so higher layers remain decoupled from concrete backends.
package core
