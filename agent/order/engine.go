package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

// Engine applies cart mutations against the product catalog. It owns the
// arithmetic invariants: every line total is Round2(price*qty), the order
// total is Round2 of the line sum, and a quantity driven to zero or below
// removes the line outright.
type Engine struct {
	catalog contractx.ProductCatalog
}

func NewEngine(catalog contractx.ProductCatalog) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("product catalog is required")
	}
	return &Engine{catalog: catalog}, nil
}

// BuildResult is the outcome of resolving a CREATE request.
type BuildResult struct {
	Lines       []statex.OrderLine
	FinalPrice  float64
	Unavailable []string
}

// UpdateResult is the outcome of applying UPDATE modifications.
type UpdateResult struct {
	Lines      []statex.OrderLine
	FinalPrice float64
	// Unresolved names failed price re-resolution. Existing lines keep their
	// prior price; requested insertions are skipped.
	Unresolved []string
}

// Build resolves parsed (name, quantity) pairs into order lines. Items the
// catalog cannot resolve are reported as unavailable and excluded; a missing
// quantity defaults to one.
func (e *Engine) Build(ctx context.Context, items []contractx.OrderItemRequest) BuildResult {
	var res BuildResult
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		product, err := e.lookup(ctx, name)
		if err != nil {
			res.Unavailable = append(res.Unavailable, name)
			continue
		}
		res.Lines = upsertLine(res.Lines, statex.NewOrderLine(product.Name, qty, product.Price))
	}
	res.FinalPrice = statex.OrderTotal(res.Lines)
	return res
}

// ApplyUpdates applies per-item modifications against a name-keyed view of
// the existing order. Prices are re-resolved at update time; a failed
// re-resolution preserves the prior per-unit price rather than zeroing the
// line's value.
func (e *Engine) ApplyUpdates(ctx context.Context, existing []statex.OrderLine, mods []contractx.OrderModification) UpdateResult {
	lines := append([]statex.OrderLine(nil), existing...)
	var unresolved []string

	for _, mod := range mods {
		name := strings.TrimSpace(mod.Name)
		if name == "" {
			continue
		}
		idx := indexOf(lines, name)

		switch {
		case mod.SetQuantity != nil:
			qty := *mod.SetQuantity
			if qty <= 0 {
				if idx >= 0 {
					lines = append(lines[:idx], lines[idx+1:]...)
				}
				continue
			}
			price, displayName, ok := e.resolvePrice(ctx, name, lines, idx)
			if !ok {
				unresolved = append(unresolved, name)
				if idx < 0 {
					continue
				}
			}
			line := statex.NewOrderLine(displayName, qty, price)
			if idx >= 0 {
				lines[idx] = line
			} else {
				lines = append(lines, line)
			}

		case mod.DeltaQuantity != nil:
			delta := *mod.DeltaQuantity
			if idx >= 0 {
				qty := lines[idx].Quantity + delta
				if qty <= 0 {
					lines = append(lines[:idx], lines[idx+1:]...)
					continue
				}
				price, displayName, ok := e.resolvePrice(ctx, name, lines, idx)
				if !ok {
					unresolved = append(unresolved, name)
				}
				lines[idx] = statex.NewOrderLine(displayName, qty, price)
				continue
			}
			if delta <= 0 {
				// Nothing to subtract from.
				continue
			}
			product, err := e.lookup(ctx, name)
			if err != nil {
				unresolved = append(unresolved, name)
				continue
			}
			lines = append(lines, statex.NewOrderLine(product.Name, delta, product.Price))
		}
	}

	return UpdateResult{
		Lines:      lines,
		FinalPrice: statex.OrderTotal(lines),
		Unresolved: unresolved,
	}
}

// resolvePrice re-resolves a product's current price, falling back to the
// existing line's price when the lookup fails and a prior line exists.
func (e *Engine) resolvePrice(ctx context.Context, name string, lines []statex.OrderLine, idx int) (price float64, displayName string, ok bool) {
	product, err := e.lookup(ctx, name)
	if err == nil {
		return product.Price, product.Name, true
	}
	if idx >= 0 {
		log.Warn().Str("failure", "lookup").Str("item", name).
			Msg("price re-resolution failed, keeping prior price")
		return lines[idx].PerUnitPrice, lines[idx].Name, false
	}
	return 0, name, false
}

func (e *Engine) lookup(ctx context.Context, name string) (statex.Product, error) {
	product, err := e.catalog.FindByName(ctx, name)
	if err != nil {
		if !errors.Is(err, contractx.ErrNotFound) {
			log.Error().Err(err).Str("failure", "lookup").Str("item", name).
				Msg("catalog lookup failed")
		}
		return statex.Product{}, err
	}
	if !product.Available {
		return statex.Product{}, contractx.ErrNotFound
	}
	return product, nil
}

func indexOf(lines []statex.OrderLine, name string) int {
	for i, l := range lines {
		if strings.EqualFold(l.Name, name) {
			return i
		}
	}
	return -1
}

// upsertLine merges a resolved line into the list, folding duplicate names
// ("a latte and one more latte") into a single line.
func upsertLine(lines []statex.OrderLine, line statex.OrderLine) []statex.OrderLine {
	if idx := indexOf(lines, line.Name); idx >= 0 {
		merged := statex.NewOrderLine(lines[idx].Name, lines[idx].Quantity+line.Quantity, line.PerUnitPrice)
		lines[idx] = merged
		return lines
	}
	return append(lines, line)
}

/* ------------------------------ Formatting ------------------------------ */

// FormatSummary renders the pending cart with a confirmation prompt.
func FormatSummary(lines []statex.OrderLine, finalPrice float64) string {
	var b strings.Builder
	b.WriteString("Here's your order:\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "  • %s x%d @ ₹%.2f = ₹%.2f\n", l.Name, l.Quantity, l.PerUnitPrice, l.TotalPrice)
	}
	fmt.Fprintf(&b, "\n🧾 Total: ₹%.2f\n\nShall I confirm this order?", finalPrice)
	return b.String()
}

// FormatReceipt renders the final receipt for a confirmed order.
func FormatReceipt(lines []statex.OrderLine, finalPrice float64, confirmationID string) string {
	var b strings.Builder
	b.WriteString("✅ Order confirmed! Here's your receipt:\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "  • %s x%d = ₹%.2f\n", l.Name, l.Quantity, l.TotalPrice)
	}
	fmt.Fprintf(&b, "\n🧾 Total: ₹%.2f", finalPrice)
	if confirmationID != "" {
		fmt.Fprintf(&b, "\n📦 Order ID: %s", confirmationID)
	}
	return b.String()
}

// FormatUnavailable renders the skipped-items suffix for a CREATE reply.
func FormatUnavailable(names []string) string {
	return "⚠️ Skipped (not on menu): " + strings.Join(names, ", ")
}
