package llmagents

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

type guardImpl struct {
	runner compose.Runnable[map[string]any, guardLLMOutput]
}

type guardLLMOutput struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

func newGuard(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*guardImpl, error) {
	runner, err := compileStructuredLLMGraph[guardLLMOutput](ctx, chatModel, systemPrompt, "guard.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile guard graph: %v", contractx.ErrModelInvoke, err)
	}
	return &guardImpl{runner: runner}, nil
}

func (g *guardImpl) Classify(ctx context.Context, req contractx.GuardRequest) (contractx.GuardDecision, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return contractx.GuardDecision{}, fmt.Errorf("%w: user input is required", contractx.ErrValidation)
	}

	input, err := marshalInput(map[string]any{
		"user_input":      req.UserInput,
		"recent_messages": req.RecentMessages,
		"has_order":       req.HasOrder,
	})
	if err != nil {
		return contractx.GuardDecision{}, fmt.Errorf("%w: marshal guard payload: %v", contractx.ErrValidation, err)
	}

	out, err := g.runner.Invoke(ctx, input)
	if err != nil {
		return contractx.GuardDecision{}, fmt.Errorf("%w: guard invoke: %v", contractx.ErrModelInvoke, err)
	}

	redirect := strings.TrimSpace(out.Redirect)
	if !out.Allowed && redirect == "" {
		return contractx.GuardDecision{}, fmt.Errorf("%w: blocked turn must include redirect", contractx.ErrSchemaViolation)
	}
	if out.Allowed {
		redirect = ""
	}

	return contractx.GuardDecision{Allowed: out.Allowed, Redirect: redirect}, nil
}
