package llmagents

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

type summarizerImpl struct {
	runner compose.Runnable[map[string]any, summaryLLMOutput]
}

type summaryLLMOutput struct {
	Summary string `json:"summary"`
}

func newSummarizer(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*summarizerImpl, error) {
	runner, err := compileStructuredLLMGraph[summaryLLMOutput](ctx, chatModel, systemPrompt, "summary.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile summary graph: %v", contractx.ErrModelInvoke, err)
	}
	return &summarizerImpl{runner: runner}, nil
}

func (s *summarizerImpl) Summarize(ctx context.Context, prior string, old []statex.Message) (string, error) {
	if len(old) == 0 {
		return prior, nil
	}

	input, err := marshalInput(map[string]any{
		"prior_summary": prior,
		"old_messages":  old,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal summary payload: %v", contractx.ErrValidation, err)
	}

	out, err := s.runner.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: summary invoke: %v", contractx.ErrModelInvoke, err)
	}

	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return "", fmt.Errorf("%w: summarizer returned empty summary", contractx.ErrSchemaViolation)
	}
	return summary, nil
}
