package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	statex "github.com/merrysway/brewflow/agent/state"
)

const (
	defaultTranscriptKeyPrefix = "brew:chat:"
	defaultTranscriptTTL       = 72 * time.Hour

	transcriptMessagesField = "messages"
	transcriptSummaryField  = "summary"
)

// TranscriptStore keeps one hash per session: the bounded message window as a
// JSON array plus the rolling chat summary. Both fields are overwritten
// wholesale, so the record is always self-contained.
type TranscriptStore struct {
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewTranscriptStore(rdb *redis.Client) (*TranscriptStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	return &TranscriptStore{
		rdb:       rdb,
		keyPrefix: defaultTranscriptKeyPrefix,
		ttl:       defaultTranscriptTTL,
	}, nil
}

func (s *TranscriptStore) Load(ctx context.Context, sessionKey string) ([]statex.Message, string, error) {
	key, err := s.key(sessionKey)
	if err != nil {
		return nil, "", err
	}

	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, "", fmt.Errorf("load transcript %s: %w", sessionKey, err)
	}
	if len(fields) == 0 {
		return nil, "", nil
	}

	var messages []statex.Message
	if raw := fields[transcriptMessagesField]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &messages); err != nil {
			return nil, "", fmt.Errorf("unmarshal transcript %s: %w", sessionKey, err)
		}
	}
	return messages, fields[transcriptSummaryField], nil
}

// AppendTurn appends one user/assistant exchange to the stored window. This
// is a read-modify-write cycle; the summarize stage is responsible for
// keeping the window bounded.
func (s *TranscriptStore) AppendTurn(ctx context.Context, sessionKey string, userText, assistantText string) error {
	messages, summary, err := s.Load(ctx, sessionKey)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	messages = append(messages,
		statex.UserMessage(userText, now),
		statex.AssistantMessage(assistantText, now),
	)
	return s.SaveWindow(ctx, sessionKey, messages, summary)
}

// SaveWindow overwrites the session record with the given window and summary.
func (s *TranscriptStore) SaveWindow(ctx context.Context, sessionKey string, messages []statex.Message, summary string) error {
	key, err := s.key(sessionKey)
	if err != nil {
		return err
	}

	if messages == nil {
		messages = []statex.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal transcript %s: %w", sessionKey, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		transcriptMessagesField, string(raw),
		transcriptSummaryField, summary,
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save transcript %s: %w", sessionKey, err)
	}
	return nil
}

func (s *TranscriptStore) key(sessionKey string) (string, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return "", ErrInvalidKey
	}
	return s.keyPrefix + sessionKey, nil
}
