package memory

import (
	"context"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

// DefaultWindow is the number of recent messages kept verbatim in the
// transcript; older ones are folded into the chat summary.
const DefaultWindow = 6

// FoldResult carries the retained window and the (possibly updated) summary.
type FoldResult struct {
	Messages []statex.Message
	Summary  string
	Folded   bool
}

// Fold truncates the transcript to the newest k messages, folding the excess
// into the summary via the summarizer. A transcript at or below the window is
// returned unchanged without invoking the summarizer, so re-running the fold
// is a no-op.
func Fold(ctx context.Context, summarizer contractx.Summarizer, messages []statex.Message, prior string, k int) (FoldResult, error) {
	if k <= 0 {
		k = DefaultWindow
	}
	if len(messages) <= k {
		return FoldResult{Messages: messages, Summary: prior}, nil
	}

	old := messages[:len(messages)-k]
	recent := messages[len(messages)-k:]

	summary, err := summarizer.Summarize(ctx, prior, old)
	if err != nil {
		// Keep the transcript intact rather than dropping unfolded turns.
		return FoldResult{Messages: messages, Summary: prior}, err
	}

	return FoldResult{
		Messages: append([]statex.Message(nil), recent...),
		Summary:  summary,
		Folded:   true,
	}, nil
}
