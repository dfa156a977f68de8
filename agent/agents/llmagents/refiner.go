package llmagents

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

type refinerImpl struct {
	runner compose.Runnable[map[string]any, refinerLLMOutput]
}

type refinerLLMOutput struct {
	Refined string `json:"refined"`
}

func newRefiner(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*refinerImpl, error) {
	runner, err := compileStructuredLLMGraph[refinerLLMOutput](ctx, chatModel, systemPrompt, "refiner.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile refiner graph: %v", contractx.ErrModelInvoke, err)
	}
	return &refinerImpl{runner: runner}, nil
}

func (r *refinerImpl) Refine(ctx context.Context, req contractx.RefineRequest) (string, error) {
	original := strings.TrimSpace(req.UserInput)
	if original == "" {
		return "", fmt.Errorf("%w: user input is required", contractx.ErrValidation)
	}

	input, err := marshalInput(map[string]any{
		"user_input":      original,
		"recent_messages": req.RecentMessages,
		"chat_summary":    req.ChatSummary,
		"memory":          req.Memory,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal refiner payload: %v", contractx.ErrValidation, err)
	}

	out, err := r.runner.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: refiner invoke: %v", contractx.ErrModelInvoke, err)
	}

	refined := strings.TrimSpace(out.Refined)
	if refined == "" {
		return original, nil
	}
	return refined, nil
}
