// Package testutil provides builders shared by package tests: fluent
// constructors for chats and messages, and a helper that seeds a store with
// a conversation prefix.
package testutil
