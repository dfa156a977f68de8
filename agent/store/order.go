package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	statex "github.com/merrysway/brewflow/agent/state"
)

// OrderStore keeps the mutable pending cart in Redis and moves confirmed
// orders into the immutable Postgres history. The two records are never
// written in one transaction; a pending cart is simply overwritten wholesale
// each turn.
type OrderStore struct {
	client    *RestClient
	history   *OrderHistory
	keyPrefix string
}

type pendingOrderRecord struct {
	Items     []statex.OrderLine `json:"items"`
	Total     float64            `json:"total"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewOrderStore builds an OrderStore. history may be nil, in which case
// confirmations are acknowledged without a durable history row.
func NewOrderStore(client *RestClient, history *OrderHistory) (*OrderStore, error) {
	if client == nil {
		return nil, errors.New("rest client is required")
	}
	return &OrderStore{
		client:    client,
		history:   history,
		keyPrefix: defaultOrderKeyPrefix,
	}, nil
}

func (s *OrderStore) GetPending(ctx context.Context, userKey string) ([]statex.OrderLine, float64, error) {
	if strings.TrimSpace(userKey) == "" {
		return nil, 0, ErrInvalidKey
	}
	var rec pendingOrderRecord
	found, err := s.client.GetJSON(ctx, s.keyPrefix+userKey, &rec)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return nil, 0, nil
	}
	return rec.Items, rec.Total, nil
}

func (s *OrderStore) PutPending(ctx context.Context, userKey string, order []statex.OrderLine, finalPrice float64) error {
	if strings.TrimSpace(userKey) == "" {
		return ErrInvalidKey
	}
	if len(order) == 0 {
		return s.client.Delete(ctx, s.keyPrefix+userKey)
	}
	return s.client.SetJSON(ctx, s.keyPrefix+userKey, pendingOrderRecord{
		Items:     order,
		Total:     finalPrice,
		UpdatedAt: time.Now().UTC(),
	})
}

// Confirm moves the order out of the pending record into history and returns
// the confirmation id. A missing history backend degrades to an id-only
// confirmation.
func (s *OrderStore) Confirm(ctx context.Context, userKey string, order []statex.OrderLine, finalPrice float64) (string, error) {
	if strings.TrimSpace(userKey) == "" {
		return "", ErrInvalidKey
	}

	confirmationID := uuid.NewString()
	if s.history != nil {
		err := s.history.Insert(ctx, ConfirmedOrder{
			ID:        confirmationID,
			UserKey:   userKey,
			Items:     order,
			Total:     finalPrice,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return "", err
		}
	} else {
		log.Warn().Str("user", userKey).Msg("no order history backend, confirmation not archived")
	}

	if err := s.client.Delete(ctx, s.keyPrefix+userKey); err != nil {
		return "", err
	}
	return confirmationID, nil
}

func (s *OrderStore) ClearPending(ctx context.Context, userKey string) error {
	if strings.TrimSpace(userKey) == "" {
		return ErrInvalidKey
	}
	return s.client.Delete(ctx, s.keyPrefix+userKey)
}
