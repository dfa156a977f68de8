package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
	memoryx "github.com/merrysway/brewflow/agent/memory"
)

// Summarize folds aged-out transcript messages into the rolling summary and
// persists the shrunken window. A summarizer failure keeps the transcript
// intact; running the fold again on an already-bounded window is a no-op.
func Summarize(
	ctx context.Context,
	in *GraphState,
	summarizer contractx.Summarizer,
	transcripts contractx.TranscriptStore,
) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	res, err := memoryx.Fold(ctx, summarizer, in.State.Messages, in.State.ChatSummary, memoryx.DefaultWindow)
	if err != nil {
		log.Warn().Err(err).Str("failure", "summarize").Str("session", in.SessionKey).
			Msg("summary fold failed, keeping transcript")
		return in, nil
	}
	if !res.Folded {
		return in, nil
	}

	in.State.Messages = res.Messages
	in.State.ChatSummary = res.Summary

	if err := transcripts.SaveWindow(ctx, in.SessionKey, res.Messages, res.Summary); err != nil {
		log.Error().Err(err).Str("failure", "summary_write").Str("session", in.SessionKey).
			Msg("transcript window write failed")
	}
	return in, nil
}
