// Package core provides the foundational domain types of the Stride engine:
// role-tagged conversation messages, the append-only Memory that forms an
// agent's working context, tool invocation records and the agent state
// machine. The package intentionally keeps implementation concerns (model
// providers, tool execution, orchestration) out of scope.
package core
