package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/merrysway/brewflow/agent/agents/llmagents"
	"github.com/merrysway/brewflow/agent/agents/orchestrator"
	catalogx "github.com/merrysway/brewflow/agent/catalog"
	contractx "github.com/merrysway/brewflow/agent/contract"
	llmx "github.com/merrysway/brewflow/agent/llm"
	storex "github.com/merrysway/brewflow/agent/store"
	configx "github.com/merrysway/brewflow/pkg/config"
	_ "github.com/merrysway/brewflow/pkg/logger/autoload"
	openrouterx "github.com/merrysway/brewflow/pkg/openrouter"
	redisx "github.com/merrysway/brewflow/pkg/redis"
)

type AppConfig struct {
	UserKey        string `envconfig:"USER_KEY" split_words:"true" default:"guest"`
	CatalogBackend string `envconfig:"CATALOG_BACKEND" split_words:"true" default:"static"`
	HistoryEnabled bool   `envconfig:"HISTORY_ENABLED" split_words:"true" default:"false"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
}

func main() {
	ctx := context.Background()
	appCfg := configx.MustNew[AppConfig]("")

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	models, err := llmagents.NewRegistry(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build model registry")
	}

	restCfg := configx.MustNew[storex.RestConfig]("UPSTASH")
	restClient, err := storex.NewRestClient(*restCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build redis rest client")
	}

	memoryStore, err := storex.NewMemoryStore(restClient)
	if err != nil {
		log.Fatal().Err(err).Msg("build memory store")
	}

	var history *storex.OrderHistory
	if appCfg.HistoryEnabled {
		pgCfg := configx.MustNew[storex.PostgresConfig]("POSTGRES")
		history, err = storex.NewOrderHistory(*pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build order history")
		}
		defer history.Close()
		if err := history.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("init order history")
		}
	}

	orderStore, err := storex.NewOrderStore(restClient, history)
	if err != nil {
		log.Fatal().Err(err).Msg("build order store")
	}

	redisCfg := configx.MustNew[redisx.Config]("REDIS")
	transcriptStore, err := storex.NewTranscriptStore(redisCfg.MustNew())
	if err != nil {
		log.Fatal().Err(err).Msg("build transcript store")
	}

	catalog, err := buildCatalog(appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build product catalog")
	}

	svc, err := orchestrator.New(models, catalog, memoryStore, orderStore, transcriptStore)
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	runChatLoop(ctx, svc, appCfg.UserKey)
}

func buildCatalog(appCfg *AppConfig) (contractx.ProductCatalog, error) {
	switch strings.ToLower(strings.TrimSpace(appCfg.CatalogBackend)) {
	case "qdrant":
		embed := openrouterx.NewClient(openrouterx.Config{
			APIKey:  appCfg.OpenAIAPIKey,
			BaseURL: appCfg.OpenAIBaseURL,
		})
		if embed == nil {
			return nil, fmt.Errorf("qdrant catalog needs OPENAI_API_KEY for embeddings")
		}
		qdrantCfg := configx.MustNew[catalogx.QdrantConfig]("QDRANT")
		return catalogx.NewQdrant(*qdrantCfg, embed)
	default:
		return catalogx.NewStatic(catalogx.DefaultMenu()), nil
	}
}

func runChatLoop(ctx context.Context, svc *orchestrator.Orchestrator, userKey string) {
	fmt.Println("merrysway.coffee — type a message, or /quit to leave")

	scanner := bufio.NewScanner(os.Stdin)
	var sessionKey string

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" || text == "/exit" {
			fmt.Println("See you next time!")
			return
		}

		res, err := svc.HandleTurn(ctx, userKey, sessionKey, text)
		if err != nil {
			log.Error().Err(err).Msg("turn failed")
			continue
		}
		sessionKey = res.SessionKey
		fmt.Println(res.Reply)
	}

	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("stdin read failed")
	}
}
