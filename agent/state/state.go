package state

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Role tags for transcript messages. The transcript is append-only within a
// session and ordered oldest first.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func UserMessage(content string, now time.Time) Message {
	return Message{Role: RoleUser, Content: content, CreatedAt: now.UTC()}
}

func AssistantMessage(content string, now time.Time) Message {
	return Message{Role: RoleAssistant, Content: content, CreatedAt: now.UTC()}
}

// UserMemory is the durable per-user preference record. It survives across
// sessions and is persisted independently of the order and the transcript.
type UserMemory struct {
	Name      string   `json:"name,omitempty"`
	Likes     []string `json:"likes,omitempty"`
	Dislikes  []string `json:"dislikes,omitempty"`
	Allergies []string `json:"allergies,omitempty"`
	LastOrder string   `json:"last_order,omitempty"`
	Feedback  []string `json:"feedback,omitempty"`
	Location  string   `json:"location,omitempty"`
}

func (m UserMemory) Clone() UserMemory {
	out := m
	out.Likes = append([]string(nil), m.Likes...)
	out.Dislikes = append([]string(nil), m.Dislikes...)
	out.Allergies = append([]string(nil), m.Allergies...)
	out.Feedback = append([]string(nil), m.Feedback...)
	return out
}

// OrderLine is one cart entry. Lines with quantity <= 0 are removed, never
// stored; TotalPrice is always Round2(PerUnitPrice * Quantity).
type OrderLine struct {
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	PerUnitPrice float64 `json:"per_unit_price"`
	TotalPrice   float64 `json:"total_price"`
}

func NewOrderLine(name string, quantity int, perUnitPrice float64) OrderLine {
	return OrderLine{
		Name:         name,
		Quantity:     quantity,
		PerUnitPrice: perUnitPrice,
		TotalPrice:   Round2(perUnitPrice * float64(quantity)),
	}
}

// Product is the read-only catalog record supplied by the retrieval layer.
type Product struct {
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Available   bool     `json:"available"`
	Description string   `json:"description,omitempty"`
}

// ConversationState is the single mutable record threaded through every stage
// of a turn. It is hydrated from the three persisted records at the start of a
// turn and discarded once the turn's fragments have been written back.
type ConversationState struct {
	Messages        []Message   `json:"messages"`
	UserMemory      UserMemory  `json:"user_memory"`
	ChatSummary     string      `json:"chat_summary"`
	UserInput       string      `json:"user_input"`
	ResponseMessage string      `json:"response_message,omitempty"`
	Order           []OrderLine `json:"order"`
	FinalPrice      float64     `json:"final_price"`
}

// Round2 rounds monetary values to two decimals. Applied at every line total
// and again at the order total so drift cannot accumulate across updates.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// OrderTotal computes the rounded sum of line totals.
func OrderTotal(lines []OrderLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.TotalPrice
	}
	return Round2(sum)
}

func (s *ConversationState) RecomputeFinalPrice() {
	s.FinalPrice = OrderTotal(s.Order)
}

// LineByName returns the order line matching name case-insensitively.
func (s *ConversationState) LineByName(name string) (OrderLine, bool) {
	for _, l := range s.Order {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return OrderLine{}, false
}

func (s *ConversationState) HasOrder() bool {
	return len(s.Order) > 0
}

func (s *ConversationState) AppendUser(content string, now time.Time) {
	s.Messages = append(s.Messages, UserMessage(content, now))
}

func (s *ConversationState) AppendAssistant(content string, now time.Time) {
	s.Messages = append(s.Messages, AssistantMessage(content, now))
}

// RecentMessages returns up to n of the newest transcript messages.
func (s *ConversationState) RecentMessages(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// Validate checks the cart invariants: positive quantities, unique
// case-insensitive names, consistent line and order totals.
func (s *ConversationState) Validate() error {
	seen := make(map[string]struct{}, len(s.Order))
	for _, l := range s.Order {
		name := strings.ToLower(strings.TrimSpace(l.Name))
		if name == "" {
			return fmt.Errorf("order line has empty name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate order line %q", l.Name)
		}
		seen[name] = struct{}{}
		if l.Quantity <= 0 {
			return fmt.Errorf("order line %q has quantity %d", l.Name, l.Quantity)
		}
		if l.PerUnitPrice < 0 {
			return fmt.Errorf("order line %q has negative price", l.Name)
		}
		if want := Round2(l.PerUnitPrice * float64(l.Quantity)); l.TotalPrice != want {
			return fmt.Errorf("order line %q total %.2f, want %.2f", l.Name, l.TotalPrice, want)
		}
	}
	if want := OrderTotal(s.Order); s.FinalPrice != want {
		return fmt.Errorf("final price %.2f, want %.2f", s.FinalPrice, want)
	}
	return nil
}
