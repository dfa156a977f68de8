package llmagents

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

type memoryExtractorImpl struct {
	runner compose.Runnable[map[string]any, contractx.MemoryIntent]
}

func newMemoryExtractor(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*memoryExtractorImpl, error) {
	runner, err := compileStructuredLLMGraph[contractx.MemoryIntent](ctx, chatModel, systemPrompt, "memory.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile memory graph: %v", contractx.ErrModelInvoke, err)
	}
	return &memoryExtractorImpl{runner: runner}, nil
}

func (m *memoryExtractorImpl) Extract(ctx context.Context, req contractx.MemoryExtractRequest) (contractx.MemoryIntent, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return contractx.MemoryIntent{}, fmt.Errorf("%w: user input is required", contractx.ErrValidation)
	}

	input, err := marshalInput(map[string]any{
		"user_input":   req.UserInput,
		"memory":       req.Memory,
		"chat_summary": req.ChatSummary,
	})
	if err != nil {
		return contractx.MemoryIntent{}, fmt.Errorf("%w: marshal memory payload: %v", contractx.ErrValidation, err)
	}

	out, err := m.runner.Invoke(ctx, input)
	if err != nil {
		return contractx.MemoryIntent{}, fmt.Errorf("%w: memory invoke: %v", contractx.ErrModelInvoke, err)
	}
	return out, nil
}
