package order

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

type fakeCatalog struct {
	products map[string]statex.Product
	findErr  error
	calls    int
}

func (f *fakeCatalog) FindByName(ctx context.Context, name string) (statex.Product, error) {
	f.calls++
	if f.findErr != nil {
		return statex.Product{}, f.findErr
	}
	p, ok := f.products[strings.ToLower(name)]
	if !ok {
		return statex.Product{}, contractx.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string, topK int) ([]statex.Product, error) {
	return nil, nil
}

func newTestCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[string]statex.Product{
			"latte":      {Name: "Latte", Price: 150.0, Available: true},
			"cappuccino": {Name: "Cappuccino", Price: 180.0, Available: true},
			"espresso":   {Name: "Espresso", Price: 120.0, Available: true},
			"mocha":      {Name: "Mocha", Price: 200.0, Available: false},
		},
	}
}

func newTestEngine(t *testing.T, catalog contractx.ProductCatalog) *Engine {
	t.Helper()
	e, err := NewEngine(catalog)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func intPtr(v int) *int { return &v }

func TestBuildResolvesItems(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, newTestCatalog())
	res := e.Build(context.Background(), []contractx.OrderItemRequest{
		{Name: "latte", Quantity: 2},
		{Name: "cappuccino", Quantity: 1},
	})

	if len(res.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Lines))
	}
	if res.Lines[0].Name != "Latte" || res.Lines[0].TotalPrice != 300.0 {
		t.Fatalf("unexpected first line: %+v", res.Lines[0])
	}
	if res.Lines[1].Name != "Cappuccino" || res.Lines[1].TotalPrice != 180.0 {
		t.Fatalf("unexpected second line: %+v", res.Lines[1])
	}
	if res.FinalPrice != 480.0 {
		t.Fatalf("expected final price 480, got %.2f", res.FinalPrice)
	}
	if len(res.Unavailable) != 0 {
		t.Fatalf("expected no unavailable items, got %v", res.Unavailable)
	}
}

func TestBuildSkipsUnknownAndUnavailable(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, newTestCatalog())
	res := e.Build(context.Background(), []contractx.OrderItemRequest{
		{Name: "latte", Quantity: 1},
		{Name: "mocha", Quantity: 1},
		{Name: "bubble tea", Quantity: 2},
	})

	if len(res.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(res.Lines))
	}
	if res.FinalPrice != 150.0 {
		t.Fatalf("expected final price 150, got %.2f", res.FinalPrice)
	}
	if len(res.Unavailable) != 2 {
		t.Fatalf("expected 2 unavailable items, got %v", res.Unavailable)
	}
}

func TestBuildDefaultsQuantityAndFoldsDuplicates(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, newTestCatalog())
	res := e.Build(context.Background(), []contractx.OrderItemRequest{
		{Name: "latte"},
		{Name: "Latte", Quantity: 2},
	})

	if len(res.Lines) != 1 {
		t.Fatalf("expected duplicate names folded into 1 line, got %d", len(res.Lines))
	}
	if res.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", res.Lines[0].Quantity)
	}
	if res.FinalPrice != 450.0 {
		t.Fatalf("expected final price 450, got %.2f", res.FinalPrice)
	}
}

func TestApplyUpdatesSetQuantity(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, newTestCatalog())
	existing := []statex.OrderLine{
		statex.NewOrderLine("Latte", 2, 150.0),
		statex.NewOrderLine("Cappuccino", 1, 180.0),
	}

	res := e.ApplyUpdates(context.Background(), existing, []contractx.OrderModification{
		{Name: "latte", SetQuantity: intPtr(3)},
	})

	if len(res.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Lines))
	}
	if res.Lines[0].Quantity != 3 || res.Lines[0].TotalPrice != 450.0 {
		t.Fatalf("unexpected latte line: %+v", res.Lines[0])
	}
	if res.FinalPrice != 630.0 {
		t.Fatalf("expected final price 630, got %.2f", res.FinalPrice)
	}
}

func TestApplyUpdatesZeroQuantityRemovesLine(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, newTestCatalog())
	existing := []statex.OrderLine{
		statex.NewOrderLine("Latte", 2, 150.0),
		statex.NewOrderLine("Cappuccino", 1, 180.0),
	}

	res := e.ApplyUpdates(context.Background(), existing, []contractx.OrderModification{
		{Name: "cappuccino", SetQuantity: intPtr(0)},
	})

	if len(res.Lines) != 1 {
		t.Fatalf("expected 1 line after removal, got %d", len(res.Lines))
	}
	if res.Lines[0].Name != "Latte" {
		t.Fatalf("wrong line removed: %+v", res.Lines)
	}
	if res.FinalPrice != 300.0 {
		t.Fatalf("expected final price 300, got %.2f", res.FinalPrice)
	}
}

func TestApplyUpdatesDeltaDrivesLineToZero(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, newTestCatalog())
	existing := []statex.OrderLine{
		statex.NewOrderLine("Latte", 2, 150.0),
	}

	res := e.ApplyUpdates(context.Background(), existing, []contractx.OrderModification{
		{Name: "latte", DeltaQuantity: intPtr(-2)},
	})

	if len(res.Lines) != 0 {
		t.Fatalf("expected empty order, got %+v", res.Lines)
	}
	if res.FinalPrice != 0 {
		t.Fatalf("expected final price 0, got %.2f", res.FinalPrice)
	}
}

func TestApplyUpdatesDeltaInsertsNewItem(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, newTestCatalog())
	existing := []statex.OrderLine{
		statex.NewOrderLine("Latte", 1, 150.0),
	}

	res := e.ApplyUpdates(context.Background(), existing, []contractx.OrderModification{
		{Name: "espresso", DeltaQuantity: intPtr(2)},
	})

	if len(res.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Lines))
	}
	if res.Lines[1].Name != "Espresso" || res.Lines[1].Quantity != 2 {
		t.Fatalf("unexpected inserted line: %+v", res.Lines[1])
	}
	if res.FinalPrice != 390.0 {
		t.Fatalf("expected final price 390, got %.2f", res.FinalPrice)
	}
}

func TestApplyUpdatesNegativeDeltaOnAbsentItemIsNoOp(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, newTestCatalog())
	existing := []statex.OrderLine{
		statex.NewOrderLine("Latte", 1, 150.0),
	}

	res := e.ApplyUpdates(context.Background(), existing, []contractx.OrderModification{
		{Name: "espresso", DeltaQuantity: intPtr(-1)},
	})

	if len(res.Lines) != 1 || res.FinalPrice != 150.0 {
		t.Fatalf("expected order unchanged, got %+v total %.2f", res.Lines, res.FinalPrice)
	}
	if len(res.Unresolved) != 0 {
		t.Fatalf("expected no unresolved items, got %v", res.Unresolved)
	}
}

func TestApplyUpdatesKeepsPriorPriceWhenLookupFails(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog()
	catalog.findErr = context.DeadlineExceeded
	e := newTestEngine(t, catalog)

	existing := []statex.OrderLine{
		statex.NewOrderLine("Latte", 2, 150.0),
	}

	res := e.ApplyUpdates(context.Background(), existing, []contractx.OrderModification{
		{Name: "latte", SetQuantity: intPtr(4)},
	})

	if len(res.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(res.Lines))
	}
	if res.Lines[0].PerUnitPrice != 150.0 || res.Lines[0].Quantity != 4 {
		t.Fatalf("expected prior price kept, got %+v", res.Lines[0])
	}
	if res.FinalPrice != 600.0 {
		t.Fatalf("expected final price 600, got %.2f", res.FinalPrice)
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0] != "latte" {
		t.Fatalf("expected latte reported unresolved, got %v", res.Unresolved)
	}
}

func TestApplyUpdatesSkipsUnresolvableInsertion(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, newTestCatalog())
	res := e.ApplyUpdates(context.Background(), nil, []contractx.OrderModification{
		{Name: "bubble tea", SetQuantity: intPtr(2)},
	})

	if len(res.Lines) != 0 {
		t.Fatalf("expected no lines, got %+v", res.Lines)
	}
	if len(res.Unresolved) != 1 {
		t.Fatalf("expected bubble tea unresolved, got %v", res.Unresolved)
	}
}

func TestFormatSummary(t *testing.T) {
	t.Parallel()

	lines := []statex.OrderLine{
		statex.NewOrderLine("Latte", 2, 150.0),
	}
	out := FormatSummary(lines, 300.0)

	if !strings.Contains(out, "Latte x2 @ ₹150.00 = ₹300.00") {
		t.Fatalf("missing line rendering: %q", out)
	}
	if !strings.Contains(out, "🧾 Total: ₹300.00") {
		t.Fatalf("missing total: %q", out)
	}
	if !strings.Contains(out, "Shall I confirm this order?") {
		t.Fatalf("missing confirmation prompt: %q", out)
	}
}

func TestFormatReceipt(t *testing.T) {
	t.Parallel()

	lines := []statex.OrderLine{
		statex.NewOrderLine("Latte", 1, 150.0),
	}
	out := FormatReceipt(lines, 150.0, "ord-123")

	if !strings.Contains(out, "✅ Order confirmed!") {
		t.Fatalf("missing confirmation header: %q", out)
	}
	if !strings.Contains(out, "📦 Order ID: ord-123") {
		t.Fatalf("missing order id: %q", out)
	}
}

func TestFormatUnavailable(t *testing.T) {
	t.Parallel()

	out := FormatUnavailable([]string{"bubble tea", "matcha"})
	if out != "⚠️ Skipped (not on menu): bubble tea, matcha" {
		t.Fatalf("unexpected rendering: %q", out)
	}
}
