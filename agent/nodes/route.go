package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

// Route picks exactly one specialist for the turn. Routing failures land on
// the general specialist, which can always produce a safe reply.
func Route(ctx context.Context, in *GraphState, router contractx.Router) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	decision, err := router.Route(ctx, contractx.RouteRequest{
		UserInput:      in.State.UserInput,
		HasOrder:       in.State.HasOrder(),
		Order:          orderNames(in),
		RecentMessages: recentMessages(in),
	})
	if err != nil || !decision.Target.Valid() {
		log.Warn().Err(err).Str("failure", "route").Str("user", in.UserKey).
			Msg("routing failed, defaulting to general")
		in.Target = contractx.TargetGeneral
		return in, nil
	}

	in.Target = decision.Target
	return in, nil
}
