package store

import (
	"context"
	"errors"
	"strings"
	"time"

	statex "github.com/merrysway/brewflow/agent/state"
)

// MemoryStore persists one UserMemory record per user in Redis.
type MemoryStore struct {
	client    *RestClient
	keyPrefix string
}

type memoryRecord struct {
	Memory    statex.UserMemory `json:"memory"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewMemoryStore(client *RestClient) (*MemoryStore, error) {
	if client == nil {
		return nil, errors.New("rest client is required")
	}
	return &MemoryStore{client: client, keyPrefix: defaultMemoryKeyPrefix}, nil
}

// Get returns the stored preference record, or the empty record for an
// unknown user.
func (s *MemoryStore) Get(ctx context.Context, userKey string) (statex.UserMemory, error) {
	if strings.TrimSpace(userKey) == "" {
		return statex.UserMemory{}, ErrInvalidKey
	}
	var rec memoryRecord
	found, err := s.client.GetJSON(ctx, s.keyPrefix+userKey, &rec)
	if err != nil {
		return statex.UserMemory{}, err
	}
	if !found {
		return statex.UserMemory{}, nil
	}
	return rec.Memory, nil
}

func (s *MemoryStore) Put(ctx context.Context, userKey string, mem statex.UserMemory) error {
	if strings.TrimSpace(userKey) == "" {
		return ErrInvalidKey
	}
	return s.client.SetJSON(ctx, s.keyPrefix+userKey, memoryRecord{
		Memory:    mem,
		UpdatedAt: time.Now().UTC(),
	})
}
