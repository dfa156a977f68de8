package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/merrysway/brewflow/agent/contract"
	nodex "github.com/merrysway/brewflow/agent/nodes"
)

func (o *Orchestrator) compileHandleTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("hydrate",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Hydrate(ctx, in, o.memory, o.orders, o.transcripts)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node hydrate: %w", err)
	}

	if err := graph.AddLambdaNode("guard",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Guard(ctx, in, o.models.Guard())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node guard: %w", err)
	}

	if err := graph.AddLambdaNode("write_memory",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.WriteMemory(ctx, in, o.models.Memory(), o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node write_memory: %w", err)
	}

	if err := graph.AddLambdaNode("refine_intent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RefineIntent(ctx, in, o.models.Refiner())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node refine_intent: %w", err)
	}

	if err := graph.AddLambdaNode("route",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Route(ctx, in, o.models.Router())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route: %w", err)
	}

	if err := graph.AddLambdaNode("details",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Details(ctx, in, o.catalog, o.models.Details())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node details: %w", err)
	}

	if err := graph.AddLambdaNode("order",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Order(ctx, in, o.models.OrderParser(), o.engine, o.orders)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node order: %w", err)
	}

	if err := graph.AddLambdaNode("recommendation",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Recommend(ctx, in, o.catalog, o.models.Recommendation())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node recommendation: %w", err)
	}

	if err := graph.AddLambdaNode("general",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.General(ctx, in, o.models.General())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node general: %w", err)
	}

	if err := graph.AddLambdaNode("summarize",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Summarize(ctx, in, o.models.Summarizer(), o.transcripts)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node summarize: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	// A blocked turn skips memory, routing and the specialists entirely; the
	// order, memory and summary records stay untouched.
	guardBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.Blocked {
				return "finalize_reply", nil
			}
			return "write_memory", nil
		},
		map[string]bool{
			"finalize_reply": true,
			"write_memory":   true,
		},
	)
	if err := graph.AddBranch("guard", guardBranch); err != nil {
		return nil, fmt.Errorf("add guard branch: %w", err)
	}

	// Exactly one specialist runs per turn.
	routeBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			switch in.Target {
			case contractx.TargetDetails:
				return "details", nil
			case contractx.TargetOrder:
				return "order", nil
			case contractx.TargetRecommendation:
				return "recommendation", nil
			default:
				return "general", nil
			}
		},
		map[string]bool{
			"details":        true,
			"order":          true,
			"recommendation": true,
			"general":        true,
		},
	)
	if err := graph.AddBranch("route", routeBranch); err != nil {
		return nil, fmt.Errorf("add route branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "hydrate"},
		{"hydrate", "guard"},
		{"write_memory", "refine_intent"},
		{"refine_intent", "route"},
		{"details", "summarize"},
		{"order", "summarize"},
		{"recommendation", "summarize"},
		{"general", "summarize"},
		{"summarize", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
