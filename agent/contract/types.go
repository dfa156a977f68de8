package contract

import (
	statex "github.com/merrysway/brewflow/agent/state"
)

// TargetAgent identifies the specialist stage the router hands a turn to.
// Exactly one specialist runs per turn.
type TargetAgent string

const (
	TargetDetails        TargetAgent = "details"
	TargetOrder          TargetAgent = "order"
	TargetRecommendation TargetAgent = "recommendation"
	TargetGeneral        TargetAgent = "general"
)

func (t TargetAgent) Valid() bool {
	switch t {
	case TargetDetails, TargetOrder, TargetRecommendation, TargetGeneral:
		return true
	}
	return false
}

// OrderAction is the cart operation classified from a turn.
type OrderAction string

const (
	ActionCreate  OrderAction = "create"
	ActionUpdate  OrderAction = "update"
	ActionConfirm OrderAction = "confirm"
	ActionCancel  OrderAction = "cancel"
)

type GuardRequest struct {
	UserInput      string           `json:"user_input"`
	RecentMessages []statex.Message `json:"recent_messages,omitempty"`
	HasOrder       bool             `json:"has_order"`
}

type GuardDecision struct {
	Allowed bool `json:"allowed"`
	// Redirect is the reply for blocked inputs, e.g. a polite nudge back to
	// the menu.
	Redirect string `json:"redirect,omitempty"`
}

type MemoryExtractRequest struct {
	UserInput   string            `json:"user_input"`
	Memory      statex.UserMemory `json:"memory"`
	ChatSummary string            `json:"chat_summary,omitempty"`
}

// MemoryIntent is the extractor's structured output. The three sets are
// applied in declaration order: AddOrUpdate, then Remove, then Replace.
type MemoryIntent struct {
	AddOrUpdate map[string]any `json:"add_or_update,omitempty"`
	Remove      map[string]any `json:"remove,omitempty"`
	Replace     map[string]any `json:"replace,omitempty"`
}

func (m MemoryIntent) Empty() bool {
	return len(m.AddOrUpdate) == 0 && len(m.Remove) == 0 && len(m.Replace) == 0
}

type RefineRequest struct {
	UserInput      string            `json:"user_input"`
	RecentMessages []statex.Message  `json:"recent_messages,omitempty"`
	ChatSummary    string            `json:"chat_summary,omitempty"`
	Memory         statex.UserMemory `json:"memory"`
}

type RouteRequest struct {
	UserInput      string           `json:"user_input"`
	HasOrder       bool             `json:"has_order"`
	Order          []string         `json:"order,omitempty"`
	RecentMessages []statex.Message `json:"recent_messages,omitempty"`
}

type RouteDecision struct {
	Target TargetAgent `json:"target"`
}

type ActionRequest struct {
	UserInput      string           `json:"user_input"`
	HasOrder       bool             `json:"has_order"`
	Order          []string         `json:"order,omitempty"`
	LastBotMessage string           `json:"last_bot_message,omitempty"`
	RecentMessages []statex.Message `json:"recent_messages,omitempty"`
}

// OrderItemRequest is one (name, quantity) pair parsed from a CREATE turn.
type OrderItemRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OrderModification is one parsed UPDATE instruction. Exactly one of
// SetQuantity or DeltaQuantity is set.
type OrderModification struct {
	Name          string `json:"name"`
	SetQuantity   *int   `json:"set_quantity,omitempty"`
	DeltaQuantity *int   `json:"delta_quantity,omitempty"`
}

type GenerateRequest struct {
	UserInput      string             `json:"user_input"`
	RecentMessages []statex.Message   `json:"recent_messages,omitempty"`
	ChatSummary    string             `json:"chat_summary,omitempty"`
	Memory         statex.UserMemory  `json:"memory"`
	Order          []statex.OrderLine `json:"order,omitempty"`
	OrderTotal     float64            `json:"order_total"`
	// Products are retrieval candidates for the details and recommendation
	// replies, already filtered for allergies where relevant.
	Products []statex.Product `json:"products,omitempty"`
}
