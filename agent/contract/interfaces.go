package contract

import (
	"context"

	statex "github.com/merrysway/brewflow/agent/state"
)

// GuardClassifier decides whether a turn is in scope for the coffee shop.
type GuardClassifier interface {
	Classify(ctx context.Context, req GuardRequest) (GuardDecision, error)
}

// MemoryExtractor pulls durable preference updates out of a user message.
type MemoryExtractor interface {
	Extract(ctx context.Context, req MemoryExtractRequest) (MemoryIntent, error)
}

// IntentRefiner rewrites elliptical references ("my usual", "the same as
// before") into explicit requests. Inputs with no such references pass
// through unchanged.
type IntentRefiner interface {
	Refine(ctx context.Context, req RefineRequest) (string, error)
}

// Router picks exactly one specialist for the turn.
type Router interface {
	Route(ctx context.Context, req RouteRequest) (RouteDecision, error)
}

// OrderParser covers the order stage's three classification calls.
type OrderParser interface {
	DetectAction(ctx context.Context, req ActionRequest) (OrderAction, error)
	ParseNewOrder(ctx context.Context, req ActionRequest) ([]OrderItemRequest, error)
	ParseUpdates(ctx context.Context, req ActionRequest) ([]OrderModification, error)
}

// Generator produces the free-text specialist replies.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Summarizer folds aged-out transcript messages into the rolling summary.
// The returned summary supersedes, and conceptually subsumes, the prior one.
type Summarizer interface {
	Summarize(ctx context.Context, prior string, old []statex.Message) (string, error)
}

// Registry aggregates the model-backed collaborators so the graph stays
// independent of any provider.
type Registry interface {
	Guard() GuardClassifier
	Memory() MemoryExtractor
	Refiner() IntentRefiner
	Router() Router
	OrderParser() OrderParser
	Details() Generator
	Recommendation() Generator
	General() Generator
	Summarizer() Summarizer
}

// ProductCatalog is the retrieval collaborator. FindByName resolves an exact
// (case-normalized) name; a miss returns ErrNotFound, never a zero-priced
// product.
type ProductCatalog interface {
	FindByName(ctx context.Context, name string) (statex.Product, error)
	Search(ctx context.Context, query string, topK int) ([]statex.Product, error)
}

// MemoryStore persists UserMemory per user. Get returns the empty record for
// unknown users.
type MemoryStore interface {
	Get(ctx context.Context, userKey string) (statex.UserMemory, error)
	Put(ctx context.Context, userKey string, mem statex.UserMemory) error
}

// OrderStore persists the mutable pending cart and the immutable confirmed
// history. Confirm moves the pending order into history and returns a
// confirmation id.
type OrderStore interface {
	GetPending(ctx context.Context, userKey string) ([]statex.OrderLine, float64, error)
	PutPending(ctx context.Context, userKey string, order []statex.OrderLine, finalPrice float64) error
	Confirm(ctx context.Context, userKey string, order []statex.OrderLine, finalPrice float64) (string, error)
	ClearPending(ctx context.Context, userKey string) error
}

// TranscriptStore persists the bounded message window plus the chat summary
// for one session. SaveWindow overwrites the record wholesale.
type TranscriptStore interface {
	Load(ctx context.Context, sessionKey string) ([]statex.Message, string, error)
	AppendTurn(ctx context.Context, sessionKey string, userText, assistantText string) error
	SaveWindow(ctx context.Context, sessionKey string, messages []statex.Message, summary string) error
}
