package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

const (
	recommendTopK = 5
	maxQueryLikes = 3
)

// Recommend suggests items from catalog retrieval, biased by the user's
// stated likes and the time of day. Anything containing a known allergen is
// filtered out before the generator sees it.
func Recommend(
	ctx context.Context,
	in *GraphState,
	catalog contractx.ProductCatalog,
	generate contractx.Generator,
) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	query := buildRecommendQuery(in)
	products, err := catalog.Search(ctx, query, recommendTopK)
	if err != nil {
		log.Warn().Err(err).Str("failure", "retrieval").Str("user", in.UserKey).
			Msg("recommendation search failed, answering without candidates")
		products = nil
	}
	products = filterAllergens(products, in.State.UserMemory.Allergies)

	reply, err := generate.Generate(ctx, contractx.GenerateRequest{
		UserInput:      in.State.UserInput,
		RecentMessages: recentMessages(in),
		ChatSummary:    in.State.ChatSummary,
		Memory:         in.State.UserMemory,
		Products:       products,
	})
	if err != nil {
		log.Warn().Err(err).Str("failure", "generate").Str("agent", "recommendation").
			Str("user", in.UserKey).Msg("recommendation reply failed")
		reply = FallbackReply
	}

	in.State.ResponseMessage = reply
	return in, nil
}

func buildRecommendQuery(in *GraphState) string {
	parts := []string{in.State.UserInput}
	likes := in.State.UserMemory.Likes
	if len(likes) > maxQueryLikes {
		likes = likes[:maxQueryLikes]
	}
	parts = append(parts, likes...)
	parts = append(parts, timeOfDay(in.Now.Hour()))
	return strings.Join(parts, " ")
}

func timeOfDay(hour int) string {
	switch {
	case hour < 12:
		return "morning"
	case hour < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

func filterAllergens(products []statex.Product, allergies []string) []statex.Product {
	if len(allergies) == 0 || len(products) == 0 {
		return products
	}
	out := products[:0]
	for _, p := range products {
		if containsAllergen(p, allergies) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func containsAllergen(p statex.Product, allergies []string) bool {
	for _, allergy := range allergies {
		a := strings.ToLower(strings.TrimSpace(allergy))
		if a == "" {
			continue
		}
		for _, ing := range p.Ingredients {
			if strings.Contains(strings.ToLower(ing), a) {
				return true
			}
		}
	}
	return false
}
