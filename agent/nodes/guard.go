package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

// Guard decides whether the turn stays in scope. A classifier failure blocks
// the turn with the generic fallback rather than letting an unchecked input
// through; a blocked turn short-circuits past memory, routing and the
// specialists, leaving order and memory records untouched.
func Guard(ctx context.Context, in *GraphState, guard contractx.GuardClassifier) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	decision, err := guard.Classify(ctx, contractx.GuardRequest{
		UserInput:      in.State.UserInput,
		RecentMessages: recentMessages(in),
		HasOrder:       in.State.HasOrder(),
	})
	if err != nil {
		log.Warn().Err(err).Str("failure", "guard").Str("user", in.UserKey).
			Msg("guard classify failed, blocking turn")
		in.Blocked = true
		in.State.ResponseMessage = FallbackReply
		return in, nil
	}

	if !decision.Allowed {
		in.Blocked = true
		in.State.ResponseMessage = decision.Redirect
	}
	return in, nil
}
