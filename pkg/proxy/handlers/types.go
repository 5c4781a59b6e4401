package handlers

import (
	"context"

	"bizbridge/gateway/pkg/orchestrator"
)

// Completer runs chat turns. *orchestrator.Orchestrator satisfies it.
type Completer interface {
	Complete(ctx context.Context, req *orchestrator.Request) (*orchestrator.Result, error)
	ResolveModel(alias string) (string, error)
}

// ModelLister lists the public model aliases.
type ModelLister interface {
	Models() []string
}

// AccountLookup reports which account answered a chat completion.
type AccountLookup interface {
	AccountFor(chatID string) (string, bool)
}
