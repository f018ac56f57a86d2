// Package model defines the provider-agnostic abstraction for the single
// text-completion call the debate pipeline relies on.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Apply one fixed set of generation parameters across all persona calls
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so higher layers remain decoupled from vendor SDKs.
package model
