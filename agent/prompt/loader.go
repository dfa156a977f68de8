package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/guard.txt
	guardRaw string

	//go:embed template/memory.txt
	memoryRaw string

	//go:embed template/refiner.txt
	refinerRaw string

	//go:embed template/router.txt
	routerRaw string

	//go:embed template/order_action.txt
	orderActionRaw string

	//go:embed template/order_items.txt
	orderItemsRaw string

	//go:embed template/order_updates.txt
	orderUpdatesRaw string

	//go:embed template/details.txt
	detailsRaw string

	//go:embed template/recommendation.txt
	recommendationRaw string

	//go:embed template/general.txt
	generalRaw string

	//go:embed template/summary.txt
	summaryRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Guard          string
	Memory         string
	Refiner        string
	Router         string
	OrderAction    string
	OrderItems     string
	OrderUpdates   string
	Details        string
	Recommendation string
	General        string
	Summary        string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Guard:          strings.TrimSpace(guardRaw),
		Memory:         strings.TrimSpace(memoryRaw),
		Refiner:        strings.TrimSpace(refinerRaw),
		Router:         strings.TrimSpace(routerRaw),
		OrderAction:    strings.TrimSpace(orderActionRaw),
		OrderItems:     strings.TrimSpace(orderItemsRaw),
		OrderUpdates:   strings.TrimSpace(orderUpdatesRaw),
		Details:        strings.TrimSpace(detailsRaw),
		Recommendation: strings.TrimSpace(recommendationRaw),
		General:        strings.TrimSpace(generalRaw),
		Summary:        strings.TrimSpace(summaryRaw),
	}
}
