package llmagents

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/merrysway/brewflow/agent/contract"
)

// orderParserImpl wraps the three order-stage classification calls: action
// detection, new-order item parsing, and update parsing. Each has its own
// prompt but they share one chat model.
type orderParserImpl struct {
	actionRunner compose.Runnable[map[string]any, actionLLMOutput]
	itemsRunner  compose.Runnable[map[string]any, itemsLLMOutput]
	updateRunner compose.Runnable[map[string]any, updatesLLMOutput]
}

type actionLLMOutput struct {
	Action string `json:"action"`
}

type itemsLLMOutput struct {
	Items []contractx.OrderItemRequest `json:"items"`
}

type updatesLLMOutput struct {
	Updates []contractx.OrderModification `json:"updates"`
}

func newOrderParser(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	actionPrompt, itemsPrompt, updatesPrompt string,
) (*orderParserImpl, error) {
	actionRunner, err := compileStructuredLLMGraph[actionLLMOutput](ctx, chatModel, actionPrompt, "order.action_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile order action graph: %v", contractx.ErrModelInvoke, err)
	}
	itemsRunner, err := compileStructuredLLMGraph[itemsLLMOutput](ctx, chatModel, itemsPrompt, "order.items_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile order items graph: %v", contractx.ErrModelInvoke, err)
	}
	updateRunner, err := compileStructuredLLMGraph[updatesLLMOutput](ctx, chatModel, updatesPrompt, "order.updates_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile order updates graph: %v", contractx.ErrModelInvoke, err)
	}
	return &orderParserImpl{
		actionRunner: actionRunner,
		itemsRunner:  itemsRunner,
		updateRunner: updateRunner,
	}, nil
}

func (p *orderParserImpl) DetectAction(ctx context.Context, req contractx.ActionRequest) (contractx.OrderAction, error) {
	input, err := marshalActionRequest(req)
	if err != nil {
		return "", err
	}

	out, err := p.actionRunner.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: order action invoke: %v", contractx.ErrModelInvoke, err)
	}

	action := contractx.OrderAction(strings.ToLower(strings.TrimSpace(out.Action)))
	switch action {
	case contractx.ActionCreate, contractx.ActionUpdate, contractx.ActionConfirm, contractx.ActionCancel:
		return action, nil
	}
	return "", fmt.Errorf("%w: unsupported order action=%q", contractx.ErrSchemaViolation, out.Action)
}

func (p *orderParserImpl) ParseNewOrder(ctx context.Context, req contractx.ActionRequest) ([]contractx.OrderItemRequest, error) {
	input, err := marshalActionRequest(req)
	if err != nil {
		return nil, err
	}

	out, err := p.itemsRunner.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: order items invoke: %v", contractx.ErrModelInvoke, err)
	}

	items := make([]contractx.OrderItemRequest, 0, len(out.Items))
	for _, item := range out.Items {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *orderParserImpl) ParseUpdates(ctx context.Context, req contractx.ActionRequest) ([]contractx.OrderModification, error) {
	input, err := marshalActionRequest(req)
	if err != nil {
		return nil, err
	}

	out, err := p.updateRunner.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: order updates invoke: %v", contractx.ErrModelInvoke, err)
	}

	updates := make([]contractx.OrderModification, 0, len(out.Updates))
	for _, mod := range out.Updates {
		if strings.TrimSpace(mod.Name) == "" {
			continue
		}
		if mod.SetQuantity == nil && mod.DeltaQuantity == nil {
			return nil, fmt.Errorf("%w: modification for %q carries no quantity", contractx.ErrSchemaViolation, mod.Name)
		}
		updates = append(updates, mod)
	}
	return updates, nil
}

func marshalActionRequest(req contractx.ActionRequest) (map[string]any, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return nil, fmt.Errorf("%w: user input is required", contractx.ErrValidation)
	}
	input, err := marshalInput(map[string]any{
		"user_input":       req.UserInput,
		"has_order":        req.HasOrder,
		"order":            req.Order,
		"last_bot_message": req.LastBotMessage,
		"recent_messages":  req.RecentMessages,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal order payload: %v", contractx.ErrValidation, err)
	}
	return input, nil
}
