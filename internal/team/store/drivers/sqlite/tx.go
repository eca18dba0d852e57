package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/expo/internal/team/store"
)

type txStore struct {
	tx *sql.Tx
	q  *queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx, q: &queries{db: tx}}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op, the outer Store owns the connection.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }
func (t *txStore) WithTx(context.Context, func(store.Tx) error) error {
	return sql.ErrTxDone
}

// ApplyMigrations is a no-op; migrations run before any transaction.
func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Members() store.Members         { return &membersRepo{q: t.q} }
func (t *txStore) SetupTokens() store.SetupTokens { return &setupTokensRepo{q: t.q} }
