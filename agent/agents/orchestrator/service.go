package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
	nodex "github.com/merrysway/brewflow/agent/nodes"
	orderx "github.com/merrysway/brewflow/agent/order"
	statex "github.com/merrysway/brewflow/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidUser    = nodex.ErrInvalidUser
)

// Orchestrator runs the per-turn dialogue graph over the model registry, the
// product catalog and the three persistence backends.
type Orchestrator struct {
	models      contractx.Registry
	catalog     contractx.ProductCatalog
	engine      *orderx.Engine
	memory      contractx.MemoryStore
	orders      contractx.OrderStore
	transcripts contractx.TranscriptStore

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	// userLocks serializes turns per user so two racing messages cannot
	// interleave read-modify-write cycles on the same records.
	userLocks sync.Map

	now func() time.Time
}

// TurnResult carries the reply and the session key the turn ran under, which
// is generated when the caller passed none.
type TurnResult struct {
	Reply      string
	SessionKey string
}

func New(
	models contractx.Registry,
	catalog contractx.ProductCatalog,
	memory contractx.MemoryStore,
	orders contractx.OrderStore,
	transcripts contractx.TranscriptStore,
) (*Orchestrator, error) {
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if catalog == nil {
		return nil, errors.New("product catalog is required")
	}
	if orders == nil {
		return nil, errors.New("order store is required")
	}
	if memory == nil {
		memory = noopMemoryStore{}
	}
	if transcripts == nil {
		transcripts = noopTranscriptStore{}
	}

	engine, err := orderx.NewEngine(catalog)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		models:      models,
		catalog:     catalog,
		engine:      engine,
		memory:      memory,
		orders:      orders,
		transcripts: transcripts,
		now:         time.Now,
	}

	graphRunner, err := o.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleTurn runs one user message through the dialogue graph. Stage failures
// inside the graph degrade to safe replies; only unusable input surfaces as
// an error.
func (o *Orchestrator) HandleTurn(ctx context.Context, userKey, sessionKey, text string) (TurnResult, error) {
	userKey = strings.TrimSpace(userKey)
	if userKey == "" {
		return TurnResult{}, ErrInvalidUser
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrInvalidMessage
	}
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}

	unlock := o.lockUser(userKey)
	defer unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		UserKey:    userKey,
		SessionKey: sessionKey,
		Text:       text,
	})
	if err != nil {
		if errors.Is(err, nodex.ErrInvalidMessage) || errors.Is(err, nodex.ErrInvalidUser) || errors.Is(err, nodex.ErrInvalidSession) {
			return TurnResult{}, err
		}
		log.Error().Err(err).Str("failure", "graph").Str("user", userKey).
			Msg("turn graph failed, falling back")
		out.Reply = nodex.FallbackReply
	}

	if err := o.transcripts.AppendTurn(ctx, sessionKey, text, out.Reply); err != nil {
		log.Error().Err(err).Str("failure", "transcript_write").Str("session", sessionKey).
			Msg("transcript append failed")
	}

	return TurnResult{Reply: out.Reply, SessionKey: sessionKey}, nil
}

func (o *Orchestrator) lockUser(userKey string) func() {
	v, _ := o.userLocks.LoadOrStore(userKey, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

type noopMemoryStore struct{}

func (noopMemoryStore) Get(context.Context, string) (statex.UserMemory, error) {
	return statex.UserMemory{}, nil
}

func (noopMemoryStore) Put(context.Context, string, statex.UserMemory) error {
	return nil
}

type noopTranscriptStore struct{}

func (noopTranscriptStore) Load(context.Context, string) ([]statex.Message, string, error) {
	return nil, "", nil
}

func (noopTranscriptStore) AppendTurn(context.Context, string, string, string) error {
	return nil
}

func (noopTranscriptStore) SaveWindow(context.Context, string, []statex.Message, string) error {
	return nil
}
