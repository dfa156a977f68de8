package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
	orderx "github.com/merrysway/brewflow/agent/order"
)

const (
	replyNothingParsed  = "I couldn't catch any items there. What would you like to order?"
	replyNoPendingOrder = "You don't have a pending order yet. What can I get you?"
	replyOrderCancelled = "No problem, I've cancelled that order. Anything else?"
	replyOrderEmptied   = "That cleared your order. What would you like instead?"
)

// Order runs the cart stage: classify the action, apply it through the order
// engine, persist the pending cart, and render the reply. Persistence write
// failures are logged and swallowed so the user still gets a coherent answer
// for this turn.
func Order(
	ctx context.Context,
	in *GraphState,
	parser contractx.OrderParser,
	engine *orderx.Engine,
	orders contractx.OrderStore,
) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	req := contractx.ActionRequest{
		UserInput:      in.State.UserInput,
		HasOrder:       in.State.HasOrder(),
		Order:          orderNames(in),
		LastBotMessage: lastAssistantMessage(in),
		RecentMessages: recentMessages(in),
	}

	action, err := parser.DetectAction(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("failure", "order_action").Str("user", in.UserKey).
			Msg("order action detection failed")
		in.State.ResponseMessage = FallbackReply
		return in, nil
	}

	switch action {
	case contractx.ActionCreate:
		if in.State.HasOrder() {
			// A create against a non-empty cart is additive; replacing the
			// cart wholesale would destroy items the user never mentioned.
			return orderUpdate(ctx, in, parser, engine, orders, req)
		}
		return orderCreate(ctx, in, parser, engine, orders, req)
	case contractx.ActionUpdate:
		if !in.State.HasOrder() {
			// Nothing to modify; read the named items as a fresh order.
			return orderCreate(ctx, in, parser, engine, orders, req)
		}
		return orderUpdate(ctx, in, parser, engine, orders, req)
	case contractx.ActionConfirm:
		return orderConfirm(ctx, in, orders)
	case contractx.ActionCancel:
		return orderCancel(ctx, in, orders)
	}

	in.State.ResponseMessage = FallbackReply
	return in, nil
}

// orderCreate resolves a fresh set of items into an empty cart.
func orderCreate(
	ctx context.Context,
	in *GraphState,
	parser contractx.OrderParser,
	engine *orderx.Engine,
	orders contractx.OrderStore,
	req contractx.ActionRequest,
) (*GraphState, error) {
	items, err := parser.ParseNewOrder(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("failure", "order_parse").Str("user", in.UserKey).
			Msg("new order parsing failed")
		in.State.ResponseMessage = FallbackReply
		return in, nil
	}
	if len(items) == 0 {
		in.State.ResponseMessage = replyNothingParsed
		return in, nil
	}

	res := engine.Build(ctx, items)
	if len(res.Lines) == 0 {
		reply := replyNothingParsed
		if len(res.Unavailable) > 0 {
			reply = orderx.FormatUnavailable(res.Unavailable) + "\n\nWhat else can I get you?"
		}
		in.State.ResponseMessage = reply
		return in, nil
	}

	in.State.Order = res.Lines
	in.State.FinalPrice = res.FinalPrice
	persistPending(ctx, in, orders)

	reply := orderx.FormatSummary(res.Lines, res.FinalPrice)
	if len(res.Unavailable) > 0 {
		reply = orderx.FormatUnavailable(res.Unavailable) + "\n\n" + reply
	}
	in.State.ResponseMessage = reply
	return in, nil
}

func orderUpdate(
	ctx context.Context,
	in *GraphState,
	parser contractx.OrderParser,
	engine *orderx.Engine,
	orders contractx.OrderStore,
	req contractx.ActionRequest,
) (*GraphState, error) {
	mods, err := parser.ParseUpdates(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("failure", "order_parse").Str("user", in.UserKey).
			Msg("order update parsing failed")
		in.State.ResponseMessage = FallbackReply
		return in, nil
	}
	if len(mods) == 0 {
		in.State.ResponseMessage = replyNothingParsed
		return in, nil
	}

	res := engine.ApplyUpdates(ctx, in.State.Order, mods)
	in.State.Order = res.Lines
	in.State.FinalPrice = res.FinalPrice
	persistPending(ctx, in, orders)

	if len(res.Lines) == 0 {
		in.State.ResponseMessage = replyOrderEmptied
		return in, nil
	}

	reply := orderx.FormatSummary(res.Lines, res.FinalPrice)
	if len(res.Unresolved) > 0 {
		reply = orderx.FormatUnavailable(res.Unresolved) + "\n\n" + reply
	}
	in.State.ResponseMessage = reply
	return in, nil
}

func orderConfirm(ctx context.Context, in *GraphState, orders contractx.OrderStore) (*GraphState, error) {
	if !in.State.HasOrder() {
		in.State.ResponseMessage = replyNoPendingOrder
		return in, nil
	}

	confirmationID, err := orders.Confirm(ctx, in.UserKey, in.State.Order, in.State.FinalPrice)
	if err != nil {
		log.Error().Err(err).Str("failure", "order_confirm").Str("user", in.UserKey).
			Msg("order confirmation failed, keeping pending cart")
		in.State.ResponseMessage = "Sorry, I couldn't confirm your order just now. It's still saved; try again in a moment."
		return in, nil
	}

	reply := orderx.FormatReceipt(in.State.Order, in.State.FinalPrice, confirmationID)
	in.State.Order = nil
	in.State.FinalPrice = 0
	in.State.ResponseMessage = reply
	return in, nil
}

// orderCancel clears the persisted pending record unconditionally. The
// in-memory cart can be empty while a stale record survives in the store, for
// example after a degraded hydrate, and a cancel must remove it either way.
func orderCancel(ctx context.Context, in *GraphState, orders contractx.OrderStore) (*GraphState, error) {
	hadOrder := in.State.HasOrder()

	if err := orders.ClearPending(ctx, in.UserKey); err != nil {
		log.Error().Err(err).Str("failure", "order_cancel").Str("user", in.UserKey).
			Msg("pending order clear failed")
	}
	in.State.Order = nil
	in.State.FinalPrice = 0

	if hadOrder {
		in.State.ResponseMessage = replyOrderCancelled
	} else {
		in.State.ResponseMessage = replyNoPendingOrder
	}
	return in, nil
}

func persistPending(ctx context.Context, in *GraphState, orders contractx.OrderStore) {
	if err := orders.PutPending(ctx, in.UserKey, in.State.Order, in.State.FinalPrice); err != nil {
		log.Error().Err(err).Str("failure", "order_write").Str("user", in.UserKey).
			Msg("pending order write failed")
	}
}
