package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

// General handles greetings and small talk, the catch-all target.
func General(ctx context.Context, in *GraphState, generate contractx.Generator) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply, err := generate.Generate(ctx, contractx.GenerateRequest{
		UserInput:      in.State.UserInput,
		RecentMessages: recentMessages(in),
		ChatSummary:    in.State.ChatSummary,
		Memory:         in.State.UserMemory,
		Order:          in.State.Order,
		OrderTotal:     in.State.FinalPrice,
	})
	if err != nil {
		log.Warn().Err(err).Str("failure", "generate").Str("agent", "general").
			Str("user", in.UserKey).Msg("general reply failed")
		reply = FallbackReply
	}

	in.State.ResponseMessage = reply
	return in, nil
}
