package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
	memoryx "github.com/merrysway/brewflow/agent/memory"
)

// WriteMemory extracts durable preferences from the turn and persists the
// merged record. Extraction and write failures are absorbed: the turn
// proceeds on the hydrated memory either way.
func WriteMemory(
	ctx context.Context,
	in *GraphState,
	extractor contractx.MemoryExtractor,
	store contractx.MemoryStore,
) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	intent, err := extractor.Extract(ctx, contractx.MemoryExtractRequest{
		UserInput:   in.State.UserInput,
		Memory:      in.State.UserMemory,
		ChatSummary: in.State.ChatSummary,
	})
	if err != nil {
		log.Warn().Err(err).Str("failure", "memory_extract").Str("user", in.UserKey).
			Msg("memory extraction failed, skipping updates")
		return in, nil
	}
	if intent.Empty() {
		return in, nil
	}

	in.State.UserMemory = memoryx.Apply(in.State.UserMemory, intent)

	if err := store.Put(ctx, in.UserKey, in.State.UserMemory); err != nil {
		log.Error().Err(err).Str("failure", "memory_write").Str("user", in.UserKey).
			Msg("memory write failed, keeping in-turn record")
	}
	return in, nil
}
