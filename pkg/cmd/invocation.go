// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description and Run(ctx, invocation). How commands are parsed and
// dispatched (chat prefix commands, HTTP) is up to adapters that wrap this.
package cmd

import "context"

// Invocation carries what any runner can pass: the name the command was
// called by, its raw argument text and an opaque payload. Adapters set Data
// to their own context (the chat message, the requester).
type Invocation struct {
	Name string
	Args string
	Data any
}

// Command is the universal contract: identity plus execution.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
