package llmagents

import (
	"context"
	"fmt"

	contractx "github.com/merrysway/brewflow/agent/contract"
	llmx "github.com/merrysway/brewflow/agent/llm"
	promptx "github.com/merrysway/brewflow/agent/prompt"
)

type registryImpl struct {
	guard          contractx.GuardClassifier
	memory         contractx.MemoryExtractor
	refiner        contractx.IntentRefiner
	router         contractx.Router
	orderParser    contractx.OrderParser
	details        contractx.Generator
	recommendation contractx.Generator
	general        contractx.Generator
	summarizer     contractx.Summarizer
}

func (r *registryImpl) Guard() contractx.GuardClassifier    { return r.guard }
func (r *registryImpl) Memory() contractx.MemoryExtractor   { return r.memory }
func (r *registryImpl) Refiner() contractx.IntentRefiner    { return r.refiner }
func (r *registryImpl) Router() contractx.Router            { return r.router }
func (r *registryImpl) OrderParser() contractx.OrderParser  { return r.orderParser }
func (r *registryImpl) Details() contractx.Generator        { return r.details }
func (r *registryImpl) Recommendation() contractx.Generator { return r.recommendation }
func (r *registryImpl) General() contractx.Generator        { return r.general }
func (r *registryImpl) Summarizer() contractx.Summarizer    { return r.summarizer }

func NewRegistry(ctx context.Context, cfg llmx.Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	classifierCfg := cfg.OpenRouterFor(llmx.KindClassifier)
	classifierModel, err := classifierCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create classifier model: %v", contractx.ErrModelInvoke, err)
	}
	generatorCfg := cfg.OpenRouterFor(llmx.KindGenerator)
	generatorModel, err := generatorCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create generator model: %v", contractx.ErrModelInvoke, err)
	}
	summarizerCfg := cfg.OpenRouterFor(llmx.KindSummarizer)
	summarizerModel, err := summarizerCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create summarizer model: %v", contractx.ErrModelInvoke, err)
	}

	guard, err := newGuard(ctx, classifierModel, prompts.Guard)
	if err != nil {
		return nil, err
	}
	memory, err := newMemoryExtractor(ctx, classifierModel, prompts.Memory)
	if err != nil {
		return nil, err
	}
	refiner, err := newRefiner(ctx, classifierModel, prompts.Refiner)
	if err != nil {
		return nil, err
	}
	router, err := newRouter(ctx, classifierModel, prompts.Router)
	if err != nil {
		return nil, err
	}
	orderParser, err := newOrderParser(ctx, classifierModel, prompts.OrderAction, prompts.OrderItems, prompts.OrderUpdates)
	if err != nil {
		return nil, err
	}
	details, err := newGenerator(ctx, generatorModel, prompts.Details, "details.model_graph")
	if err != nil {
		return nil, err
	}
	recommendation, err := newGenerator(ctx, generatorModel, prompts.Recommendation, "recommendation.model_graph")
	if err != nil {
		return nil, err
	}
	general, err := newGenerator(ctx, generatorModel, prompts.General, "general.model_graph")
	if err != nil {
		return nil, err
	}
	summarizer, err := newSummarizer(ctx, summarizerModel, prompts.Summary)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		guard:          guard,
		memory:         memory,
		refiner:        refiner,
		router:         router,
		orderParser:    orderParser,
		details:        details,
		recommendation: recommendation,
		general:        general,
		summarizer:     summarizer,
	}, nil
}
