package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

const detailsTopK = 5

// Details answers menu item questions from catalog retrieval. Retrieval
// failures degrade to an empty candidate set; the generator then says the
// item is unknown instead of inventing one.
func Details(
	ctx context.Context,
	in *GraphState,
	catalog contractx.ProductCatalog,
	generate contractx.Generator,
) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	products, err := catalog.Search(ctx, in.State.UserInput, detailsTopK)
	if err != nil {
		log.Warn().Err(err).Str("failure", "retrieval").Str("user", in.UserKey).
			Msg("catalog search failed, answering without candidates")
		products = nil
	}

	reply, err := generate.Generate(ctx, contractx.GenerateRequest{
		UserInput:      in.State.UserInput,
		RecentMessages: recentMessages(in),
		ChatSummary:    in.State.ChatSummary,
		Memory:         in.State.UserMemory,
		Products:       products,
	})
	if err != nil {
		log.Warn().Err(err).Str("failure", "generate").Str("agent", "details").
			Str("user", in.UserKey).Msg("details reply failed")
		reply = FallbackReply
	}

	in.State.ResponseMessage = reply
	return in, nil
}
