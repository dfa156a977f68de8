package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/qdrant/go-client/qdrant"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

// QdrantConfig configures the vector product catalog.
type QdrantConfig struct {
	Host       string        `envconfig:"HOST" split_words:"true" default:"localhost"`
	Port       int           `envconfig:"PORT" split_words:"true" default:"6334"`
	APIKey     string        `envconfig:"API_KEY" split_words:"true"`
	UseTLS     bool          `envconfig:"USE_TLS" split_words:"true" default:"false"`
	Collection string        `envconfig:"COLLECTION" split_words:"true" default:"coffee_products"`
	EmbedModel string        `envconfig:"EMBED_MODEL" split_words:"true" default:"text-embedding-3-small"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Qdrant resolves products against a Qdrant collection, embedding search
// queries through an OpenAI-compatible embeddings endpoint. The gRPC client
// is expensive to establish, so it is created lazily exactly once and reused
// across concurrent turns.
type Qdrant struct {
	cfg   QdrantConfig
	embed *openaisdk.Client

	initOnce sync.Once
	initErr  error
	client   *qdrant.Client
}

func NewQdrant(cfg QdrantConfig, embed *openaisdk.Client) (*Qdrant, error) {
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, errors.New("qdrant collection is required")
	}
	if embed == nil {
		return nil, errors.New("embeddings client is required")
	}
	return &Qdrant{cfg: cfg, embed: embed}, nil
}

func (c *Qdrant) ensureClient() (*qdrant.Client, error) {
	c.initOnce.Do(func() {
		c.client, c.initErr = qdrant.NewClient(&qdrant.Config{
			Host:   c.cfg.Host,
			Port:   c.cfg.Port,
			APIKey: c.cfg.APIKey,
			UseTLS: c.cfg.UseTLS,
		})
	})
	if c.initErr != nil {
		return nil, fmt.Errorf("connect qdrant: %w", c.initErr)
	}
	return c.client, nil
}

// FindByName resolves an exact product by its case-normalized name using a
// payload keyword match, no embedding involved.
func (c *Qdrant) FindByName(ctx context.Context, name string) (statex.Product, error) {
	client, err := c.ensureClient()
	if err != nil {
		return statex.Product{}, err
	}

	points, err := client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: c.cfg.Collection,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("name", titleCase(name)),
			},
		},
		Limit:       qdrant.PtrOf(uint32(1)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return statex.Product{}, fmt.Errorf("scroll %s: %w", c.cfg.Collection, err)
	}
	if len(points) == 0 {
		return statex.Product{}, contractx.ErrNotFound
	}
	return productFromPayload(points[0].Payload), nil
}

// Search embeds the query and returns the topK nearest products.
func (c *Qdrant) Search(ctx context.Context, query string, topK int) ([]statex.Product, error) {
	if topK <= 0 {
		topK = 5
	}
	client, err := c.ensureClient()
	if err != nil {
		return nil, err
	}

	vector, err := c.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	points, err := client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.cfg.Collection, err)
	}

	products := make([]statex.Product, 0, len(points))
	for _, p := range points {
		products = append(products, productFromPayload(p.Payload))
	}
	return products, nil
}

func (c *Qdrant) embedQuery(ctx context.Context, query string) ([]float32, error) {
	resp, err := c.embed.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(c.cfg.EmbedModel),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{query},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embeddings response is empty")
	}
	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

func productFromPayload(payload map[string]*qdrant.Value) statex.Product {
	p := statex.Product{
		Name:        payload["name"].GetStringValue(),
		Category:    payload["category"].GetStringValue(),
		Description: payload["description"].GetStringValue(),
		Available:   true,
	}
	if v, ok := payload["price"]; ok {
		p.Price = v.GetDoubleValue()
	}
	if v, ok := payload["rating"]; ok {
		p.Rating = v.GetDoubleValue()
	}
	if v, ok := payload["is_available"]; ok {
		p.Available = v.GetBoolValue()
	}
	if v, ok := payload["ingredients"]; ok {
		if list := v.GetListValue(); list != nil {
			for _, item := range list.Values {
				if s := item.GetStringValue(); s != "" {
					p.Ingredients = append(p.Ingredients, s)
				}
			}
		}
	}
	return p
}

// titleCase matches the casing convention the seeding script uses for the
// name payload field ("iced latte" -> "Iced Latte").
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
