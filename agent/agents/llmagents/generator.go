package llmagents

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

// generatorImpl produces the free-text specialist replies. One instance per
// prompt; details, recommendation and general each get their own.
type generatorImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func newGenerator(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, graphName string) (*generatorImpl, error) {
	runner, err := compileTextLLMGraph(ctx, chatModel, systemPrompt, graphName)
	if err != nil {
		return nil, fmt.Errorf("%w: compile generator graph: %v", contractx.ErrModelInvoke, err)
	}
	return &generatorImpl{runner: runner}, nil
}

func (g *generatorImpl) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return "", fmt.Errorf("%w: user input is required", contractx.ErrValidation)
	}

	input, err := marshalInput(map[string]any{
		"user_input":      req.UserInput,
		"recent_messages": req.RecentMessages,
		"chat_summary":    req.ChatSummary,
		"memory":          req.Memory,
		"order":           req.Order,
		"order_total":     req.OrderTotal,
		"products":        req.Products,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal generator payload: %v", contractx.ErrValidation, err)
	}

	out, err := g.runner.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: generator invoke: %v", contractx.ErrModelInvoke, err)
	}
	if out == nil {
		return "", fmt.Errorf("%w: generator returned nil message", contractx.ErrSchemaViolation)
	}

	reply := strings.TrimSpace(out.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: generator returned empty reply", contractx.ErrSchemaViolation)
	}
	return reply, nil
}
