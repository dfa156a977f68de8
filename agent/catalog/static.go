package catalog

import (
	"context"
	"sort"
	"strings"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

// Static is an in-memory catalog used for development and tests. Lookup is
// case-insensitive on the product name.
type Static struct {
	products []statex.Product
	byName   map[string]statex.Product
}

func NewStatic(products []statex.Product) *Static {
	byName := make(map[string]statex.Product, len(products))
	for _, p := range products {
		byName[strings.ToLower(p.Name)] = p
	}
	return &Static{
		products: append([]statex.Product(nil), products...),
		byName:   byName,
	}
}

func (c *Static) FindByName(ctx context.Context, name string) (statex.Product, error) {
	p, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return statex.Product{}, contractx.ErrNotFound
	}
	return p, nil
}

func (c *Static) Search(ctx context.Context, query string, topK int) ([]statex.Product, error) {
	if topK <= 0 {
		topK = 5
	}
	terms := strings.Fields(strings.ToLower(query))

	type scored struct {
		product statex.Product
		score   int
	}
	var hits []scored
	for _, p := range c.products {
		haystack := strings.ToLower(strings.Join(append([]string{p.Name, p.Category, p.Description}, p.Ingredients...), " "))
		score := 0
		for _, t := range terms {
			if strings.Contains(haystack, t) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{product: p, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]statex.Product, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.product)
	}
	return out, nil
}

// DefaultMenu is the seed menu used by the CLI when no vector catalog is
// configured.
func DefaultMenu() []statex.Product {
	return []statex.Product{
		{Name: "Latte", Category: "coffee", Price: 150.0, Rating: 4.5, Ingredients: []string{"espresso", "milk"}, Available: true, Description: "Smooth espresso with steamed milk."},
		{Name: "Cappuccino", Category: "coffee", Price: 180.0, Rating: 4.6, Ingredients: []string{"espresso", "milk", "milk foam"}, Available: true, Description: "Espresso topped with thick milk foam."},
		{Name: "Espresso", Category: "coffee", Price: 120.0, Rating: 4.4, Ingredients: []string{"espresso"}, Available: true, Description: "A short, strong shot."},
		{Name: "Americano", Category: "coffee", Price: 130.0, Rating: 4.2, Ingredients: []string{"espresso", "water"}, Available: true, Description: "Espresso lengthened with hot water."},
		{Name: "Mocha", Category: "coffee", Price: 200.0, Rating: 4.5, Ingredients: []string{"espresso", "milk", "chocolate"}, Available: true, Description: "Chocolate-laced latte."},
		{Name: "Cold Brew", Category: "coffee", Price: 170.0, Rating: 4.3, Ingredients: []string{"coffee"}, Available: true, Description: "Slow-steeped, served over ice."},
		{Name: "Chai Latte", Category: "tea", Price: 140.0, Rating: 4.1, Ingredients: []string{"black tea", "milk", "spices"}, Available: true, Description: "Spiced tea with steamed milk."},
		{Name: "Hot Chocolate", Category: "beverage", Price: 160.0, Rating: 4.0, Ingredients: []string{"milk", "chocolate"}, Available: true, Description: "Rich and sweet."},
		{Name: "Croissant", Category: "bakery", Price: 90.0, Rating: 4.3, Ingredients: []string{"flour", "butter"}, Available: true, Description: "Flaky and buttery."},
		{Name: "Chocolate Chip Cookie", Category: "bakery", Price: 70.0, Rating: 4.2, Ingredients: []string{"flour", "butter", "chocolate"}, Available: true, Description: "Baked fresh daily."},
		{Name: "Blueberry Muffin", Category: "bakery", Price: 110.0, Rating: 4.1, Ingredients: []string{"flour", "blueberries", "butter"}, Available: true, Description: "Bursting with berries."},
	}
}
