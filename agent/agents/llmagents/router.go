package llmagents

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

type routerImpl struct {
	runner compose.Runnable[map[string]any, routerLLMOutput]
}

type routerLLMOutput struct {
	Target string `json:"target"`
}

func newRouter(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*routerImpl, error) {
	runner, err := compileStructuredLLMGraph[routerLLMOutput](ctx, chatModel, systemPrompt, "router.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile router graph: %v", contractx.ErrModelInvoke, err)
	}
	return &routerImpl{runner: runner}, nil
}

func (r *routerImpl) Route(ctx context.Context, req contractx.RouteRequest) (contractx.RouteDecision, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return contractx.RouteDecision{}, fmt.Errorf("%w: user input is required", contractx.ErrValidation)
	}

	input, err := marshalInput(map[string]any{
		"user_input":      req.UserInput,
		"has_order":       req.HasOrder,
		"order":           req.Order,
		"recent_messages": req.RecentMessages,
	})
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("%w: marshal router payload: %v", contractx.ErrValidation, err)
	}

	out, err := r.runner.Invoke(ctx, input)
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("%w: router invoke: %v", contractx.ErrModelInvoke, err)
	}

	target := contractx.TargetAgent(strings.ToLower(strings.TrimSpace(out.Target)))
	if !target.Valid() {
		return contractx.RouteDecision{}, fmt.Errorf("%w: unsupported target=%q", contractx.ErrSchemaViolation, out.Target)
	}
	return contractx.RouteDecision{Target: target}, nil
}
