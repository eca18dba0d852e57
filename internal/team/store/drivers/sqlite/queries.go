package sqlite

import (
	"context"
	"database/sql"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

const memberColumns = `id, name, email, role, password_hash, password_set, active, created_at, updated_at`

const (
	createMember = `
INSERT INTO members (` + memberColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	getMemberByID    = `SELECT ` + memberColumns + ` FROM members WHERE id = ?`
	getMemberByEmail = `SELECT ` + memberColumns + ` FROM members WHERE email = ?`
	listMembers      = `SELECT ` + memberColumns + ` FROM members ORDER BY created_at, id`

	activateMember = `
UPDATE members
SET password_hash = ?, password_set = 1, active = 1, updated_at = ?
WHERE id = ?`

	deleteMember = `DELETE FROM members WHERE id = ?`
	countAdmins  = `SELECT COUNT(*) FROM members WHERE role = 'admin'`
)

const setupTokenColumns = `id, token_hash, member_id, email, created_at`

const (
	createSetupToken = `
INSERT INTO setup_tokens (` + setupTokenColumns + `)
VALUES (?, ?, ?, ?, ?)`

	getSetupTokenByHash            = `SELECT ` + setupTokenColumns + ` FROM setup_tokens WHERE token_hash = ?`
	deleteSetupToken               = `DELETE FROM setup_tokens WHERE id = ?`
	deleteSetupTokensByEmail       = `DELETE FROM setup_tokens WHERE email = ?`
	deleteSetupTokensCreatedBefore = `DELETE FROM setup_tokens WHERE created_at < ?`
)

// exec runs a statement and returns the affected row count.
func (q *queries) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
