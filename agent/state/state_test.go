package state

import (
	"testing"
	"time"
)

func TestRound2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want float64
	}{
		{10.005, 10.01},
		{10.004, 10.0},
		{149.999, 150.0},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewOrderLineComputesTotal(t *testing.T) {
	t.Parallel()

	l := NewOrderLine("Latte", 3, 149.99)
	if l.TotalPrice != 449.97 {
		t.Fatalf("total = %v, want 449.97", l.TotalPrice)
	}
}

func TestOrderTotalRoundsSum(t *testing.T) {
	t.Parallel()

	lines := []OrderLine{
		NewOrderLine("A", 1, 0.1),
		NewOrderLine("B", 1, 0.2),
	}
	if got := OrderTotal(lines); got != 0.3 {
		t.Fatalf("OrderTotal = %v, want 0.3", got)
	}
}

func TestLineByNameIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	st := &ConversationState{Order: []OrderLine{NewOrderLine("Latte", 1, 150)}}
	if _, ok := st.LineByName("LATTE"); !ok {
		t.Fatal("expected case-insensitive match")
	}
	if _, ok := st.LineByName("Mocha"); ok {
		t.Fatal("unexpected match")
	}
}

func TestRecentMessages(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	st := &ConversationState{}
	st.AppendUser("one", now)
	st.AppendAssistant("two", now)
	st.AppendUser("three", now)

	got := st.RecentMessages(2)
	if len(got) != 2 || got[0].Content != "two" || got[1].Content != "three" {
		t.Fatalf("unexpected window: %+v", got)
	}
	if got := st.RecentMessages(10); len(got) != 3 {
		t.Fatalf("expected full transcript, got %d", len(got))
	}
	if got := st.RecentMessages(0); got != nil {
		t.Fatalf("expected nil for zero window, got %+v", got)
	}
}

func TestValidateAcceptsConsistentOrder(t *testing.T) {
	t.Parallel()

	st := &ConversationState{
		Order: []OrderLine{
			NewOrderLine("Latte", 2, 150.0),
			NewOrderLine("Cappuccino", 1, 180.0),
		},
	}
	st.RecomputeFinalPrice()

	if err := st.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsInvariantViolations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		state ConversationState
	}{
		{
			name: "zero quantity",
			state: ConversationState{
				Order: []OrderLine{{Name: "Latte", Quantity: 0, PerUnitPrice: 150, TotalPrice: 0}},
			},
		},
		{
			name: "duplicate names differ only by case",
			state: ConversationState{
				Order: []OrderLine{
					NewOrderLine("Latte", 1, 150.0),
					NewOrderLine("latte", 1, 150.0),
				},
				FinalPrice: 300.0,
			},
		},
		{
			name: "line total drift",
			state: ConversationState{
				Order:      []OrderLine{{Name: "Latte", Quantity: 2, PerUnitPrice: 150, TotalPrice: 299}},
				FinalPrice: 299,
			},
		},
		{
			name: "final price drift",
			state: ConversationState{
				Order:      []OrderLine{NewOrderLine("Latte", 1, 150.0)},
				FinalPrice: 160.0,
			},
		},
		{
			name: "empty name",
			state: ConversationState{
				Order: []OrderLine{NewOrderLine("  ", 1, 150.0)},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.state.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestUserMemoryCloneIsIndependent(t *testing.T) {
	t.Parallel()

	mem := UserMemory{Likes: []string{"Latte"}}
	clone := mem.Clone()
	clone.Likes[0] = "Mocha"

	if mem.Likes[0] != "Latte" {
		t.Fatalf("clone shares backing array: %v", mem.Likes)
	}
}
