package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	statex "github.com/merrysway/brewflow/agent/state"
)

// PostgresConfig configures the confirmed-order history database.
type PostgresConfig struct {
	DSN             string        `envconfig:"DSN" split_words:"true" required:"true"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"4"`
	ConnMaxIdleTime time.Duration `envconfig:"CONN_MAX_IDLE_TIME" split_words:"true" default:"5m"`
}

// ConfirmedOrder is one immutable history row. Rows are only ever inserted.
type ConfirmedOrder struct {
	bun.BaseModel `bun:"table:confirmed_orders,alias:co"`

	ID        string             `bun:"id,pk"`
	UserKey   string             `bun:"user_key,notnull"`
	Items     []statex.OrderLine `bun:"items,type:jsonb"`
	Total     float64            `bun:"total,notnull"`
	CreatedAt time.Time          `bun:"created_at,notnull"`
}

// OrderHistory stores confirmed orders in Postgres via bun.
type OrderHistory struct {
	db *bun.DB
}

func NewOrderHistory(cfg PostgresConfig) (*OrderHistory, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return &OrderHistory{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// Init creates the history table when it does not exist yet.
func (h *OrderHistory) Init(ctx context.Context) error {
	_, err := h.db.NewCreateTable().
		Model((*ConfirmedOrder)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create confirmed_orders table: %w", err)
	}
	return nil
}

func (h *OrderHistory) Insert(ctx context.Context, row ConfirmedOrder) error {
	if _, err := h.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert confirmed order %s: %w", row.ID, err)
	}
	return nil
}

// ListByUser returns a user's confirmation history, newest first.
func (h *OrderHistory) ListByUser(ctx context.Context, userKey string, limit int) ([]ConfirmedOrder, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []ConfirmedOrder
	err := h.db.NewSelect().
		Model(&rows).
		Where("user_key = ?", userKey).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list confirmed orders for %s: %w", userKey, err)
	}
	return rows, nil
}

func (h *OrderHistory) Close() error {
	return h.db.Close()
}
