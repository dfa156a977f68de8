package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

// RefineIntent rewrites elliptical user input ("my usual", "the same again")
// into an explicit request before routing. A refiner failure passes the
// original input through unchanged.
func RefineIntent(ctx context.Context, in *GraphState, refiner contractx.IntentRefiner) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	refined, err := refiner.Refine(ctx, contractx.RefineRequest{
		UserInput:      in.State.UserInput,
		RecentMessages: recentMessages(in),
		ChatSummary:    in.State.ChatSummary,
		Memory:         in.State.UserMemory,
	})
	if err != nil {
		log.Warn().Err(err).Str("failure", "refine").Str("user", in.UserKey).
			Msg("intent refinement failed, passing input through")
		return in, nil
	}

	if refined = strings.TrimSpace(refined); refined != "" {
		in.State.UserInput = refined
	}
	return in, nil
}
