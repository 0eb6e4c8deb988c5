package ai

import "context"

// Client sends one system+user exchange to a chat model and returns the raw reply.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
