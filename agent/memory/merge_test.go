package memory

import (
	"reflect"
	"testing"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

func TestApplyAddOrUpdateUnionsLists(t *testing.T) {
	t.Parallel()

	mem := statex.UserMemory{Likes: []string{"Latte", "cold brew"}}
	out := Apply(mem, contractx.MemoryIntent{
		AddOrUpdate: map[string]any{
			"likes": []any{"latte", "Mocha"},
		},
	})

	want := []string{"Latte", "cold brew", "Mocha"}
	if !reflect.DeepEqual(out.Likes, want) {
		t.Fatalf("likes = %v, want %v", out.Likes, want)
	}
	// The input record must stay untouched.
	if len(mem.Likes) != 2 {
		t.Fatalf("input record mutated: %v", mem.Likes)
	}
}

func TestApplyAddOrUpdateOverwritesScalars(t *testing.T) {
	t.Parallel()

	mem := statex.UserMemory{Name: "Asha", LastOrder: "Latte"}
	out := Apply(mem, contractx.MemoryIntent{
		AddOrUpdate: map[string]any{
			"last_order": "Cappuccino",
			"location":   "Indiranagar",
		},
	})

	if out.LastOrder != "Cappuccino" {
		t.Fatalf("last_order = %q, want Cappuccino", out.LastOrder)
	}
	if out.Location != "Indiranagar" {
		t.Fatalf("location = %q, want Indiranagar", out.Location)
	}
	if out.Name != "Asha" {
		t.Fatalf("untouched scalar changed: %q", out.Name)
	}
}

func TestApplyRemoveListIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	mem := statex.UserMemory{Allergies: []string{"Peanuts", "soy"}}
	out := Apply(mem, contractx.MemoryIntent{
		Remove: map[string]any{
			"allergies": "peanuts",
		},
	})

	if !reflect.DeepEqual(out.Allergies, []string{"soy"}) {
		t.Fatalf("allergies = %v, want [soy]", out.Allergies)
	}
}

func TestApplyRemoveScalarRequiresExactMatch(t *testing.T) {
	t.Parallel()

	mem := statex.UserMemory{LastOrder: "Latte"}

	out := Apply(mem, contractx.MemoryIntent{
		Remove: map[string]any{"last_order": "Cappuccino"},
	})
	if out.LastOrder != "Latte" {
		t.Fatalf("non-matching removal changed scalar: %q", out.LastOrder)
	}

	out = Apply(mem, contractx.MemoryIntent{
		Remove: map[string]any{"last_order": "Latte"},
	})
	if out.LastOrder != "" {
		t.Fatalf("matching removal kept scalar: %q", out.LastOrder)
	}
}

func TestApplyReplaceOverwritesWholesale(t *testing.T) {
	t.Parallel()

	mem := statex.UserMemory{Likes: []string{"Latte", "Mocha"}}
	out := Apply(mem, contractx.MemoryIntent{
		Replace: map[string]any{
			"likes": []any{"Espresso"},
		},
	})

	if !reflect.DeepEqual(out.Likes, []string{"Espresso"}) {
		t.Fatalf("likes = %v, want [Espresso]", out.Likes)
	}
}

func TestApplyOperationOrder(t *testing.T) {
	t.Parallel()

	// add_or_update runs first, remove second: the freshly added entry is
	// removed again within the same intent.
	mem := statex.UserMemory{Likes: []string{"Latte"}}
	out := Apply(mem, contractx.MemoryIntent{
		AddOrUpdate: map[string]any{"likes": "Mocha"},
		Remove:      map[string]any{"likes": "mocha"},
	})

	if !reflect.DeepEqual(out.Likes, []string{"Latte"}) {
		t.Fatalf("likes = %v, want [Latte]", out.Likes)
	}

	// replace runs last and wins over both.
	out = Apply(mem, contractx.MemoryIntent{
		AddOrUpdate: map[string]any{"likes": "Mocha"},
		Remove:      map[string]any{"likes": "latte"},
		Replace:     map[string]any{"likes": []string{"Cold Brew"}},
	})
	if !reflect.DeepEqual(out.Likes, []string{"Cold Brew"}) {
		t.Fatalf("likes = %v, want [Cold Brew]", out.Likes)
	}
}

func TestApplyIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	mem := statex.UserMemory{Name: "Asha"}
	out := Apply(mem, contractx.MemoryIntent{
		AddOrUpdate: map[string]any{"shoe_size": 42},
	})

	if !reflect.DeepEqual(out, mem) {
		t.Fatalf("unknown field changed record: %+v", out)
	}
}

func TestApplyEmptyIntentIsIdentity(t *testing.T) {
	t.Parallel()

	mem := statex.UserMemory{
		Name:      "Asha",
		Likes:     []string{"Latte"},
		Allergies: []string{"peanuts"},
	}
	out := Apply(mem, contractx.MemoryIntent{})
	if !reflect.DeepEqual(out, mem) {
		t.Fatalf("empty intent changed record: %+v", out)
	}
}
