package nodes

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidUser    = errors.New("user key is empty")
	ErrInvalidSession = errors.New("session key is empty")
)

// FallbackReply is the safe reply for turns where a stage failure left no
// usable response.
const FallbackReply = "Sorry, I had trouble with that. Could you say it again?"

type GraphInput struct {
	UserKey    string
	SessionKey string
	Text       string
}

type GraphOutput struct {
	Reply string
}

// GraphState is threaded through every stage of one turn. Stages mutate it in
// place and pass it on; the conversation state inside is hydrated once and
// written back fragment by fragment.
type GraphState struct {
	UserKey    string
	SessionKey string
	Text       string
	Now        time.Time

	State   *statex.ConversationState
	Target  contractx.TargetAgent
	Blocked bool
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	userKey := strings.TrimSpace(in.UserKey)
	if userKey == "" {
		return nil, ErrInvalidUser
	}

	sessionKey := strings.TrimSpace(in.SessionKey)
	if sessionKey == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		UserKey:    userKey,
		SessionKey: sessionKey,
		Text:       text,
		Now:        nowFn().UTC(),
	}, nil
}

// FinalizeReply closes the turn. A missing response message falls back to the
// generic apology rather than surfacing an error to the caller.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.State == nil {
		return GraphOutput{Reply: FallbackReply}, nil
	}
	reply := strings.TrimSpace(in.State.ResponseMessage)
	if reply == "" {
		reply = FallbackReply
	}
	return GraphOutput{Reply: reply}, nil
}

// recentWindow is how much transcript context the classifier stages see.
const recentWindow = 6

func recentMessages(in *GraphState) []statex.Message {
	if in.State == nil {
		return nil
	}
	return in.State.RecentMessages(recentWindow)
}

func orderNames(in *GraphState) []string {
	if in.State == nil || len(in.State.Order) == 0 {
		return nil
	}
	names := make([]string, 0, len(in.State.Order))
	for _, l := range in.State.Order {
		names = append(names, l.Name)
	}
	return names
}

func lastAssistantMessage(in *GraphState) string {
	if in.State == nil {
		return ""
	}
	for i := len(in.State.Messages) - 1; i >= 0; i-- {
		if in.State.Messages[i].Role == statex.RoleAssistant {
			return in.State.Messages[i].Content
		}
	}
	return ""
}
