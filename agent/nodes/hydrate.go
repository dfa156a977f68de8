package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

// Hydrate assembles the turn's conversation state from the three persisted
// records. A read failure on any record degrades to that record's empty
// default so a storage blip cannot take the turn down.
func Hydrate(
	ctx context.Context,
	in *GraphState,
	memory contractx.MemoryStore,
	orders contractx.OrderStore,
	transcripts contractx.TranscriptStore,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st := &statex.ConversationState{UserInput: in.Text}

	mem, err := memory.Get(ctx, in.UserKey)
	if err != nil {
		log.Warn().Err(err).Str("failure", "hydrate").Str("record", "memory").
			Str("user", in.UserKey).Msg("memory read failed, using empty record")
		mem = statex.UserMemory{}
	}
	st.UserMemory = mem

	lines, total, err := orders.GetPending(ctx, in.UserKey)
	if err != nil {
		log.Warn().Err(err).Str("failure", "hydrate").Str("record", "order").
			Str("user", in.UserKey).Msg("order read failed, using empty cart")
		lines, total = nil, 0
	}
	st.Order = lines
	st.FinalPrice = total

	messages, summary, err := transcripts.Load(ctx, in.SessionKey)
	if err != nil {
		log.Warn().Err(err).Str("failure", "hydrate").Str("record", "transcript").
			Str("session", in.SessionKey).Msg("transcript read failed, starting fresh")
		messages, summary = nil, ""
	}
	st.Messages = messages
	st.ChatSummary = summary

	in.State = st
	return in, nil
}
