package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/internal/team/store"
)

type setupTokensRepo struct {
	q *queries
}

func (r *setupTokensRepo) CreateSetupToken(ctx context.Context, t domain.SetupToken) error {
	_, err := r.q.db.ExecContext(ctx, createSetupToken,
		t.ID, t.TokenHash, t.MemberID, t.Email, formatTime(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *setupTokensRepo) GetSetupTokenByHash(ctx context.Context, hash string) (domain.SetupToken, error) {
	var (
		t       domain.SetupToken
		created string
	)
	err := r.q.db.QueryRowContext(ctx, getSetupTokenByHash, hash).
		Scan(&t.ID, &t.TokenHash, &t.MemberID, &t.Email, &created)
	if err != nil {
		return domain.SetupToken{}, mapNotFound(err)
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return domain.SetupToken{}, err
	}
	return t, nil
}

func (r *setupTokensRepo) DeleteSetupToken(ctx context.Context, id string) error {
	n, err := r.q.exec(ctx, deleteSetupToken, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *setupTokensRepo) DeleteSetupTokensByEmail(ctx context.Context, email string) (int64, error) {
	return r.q.exec(ctx, deleteSetupTokensByEmail, email)
}

func (r *setupTokensRepo) DeleteSetupTokensCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.q.exec(ctx, deleteSetupTokensCreatedBefore, formatTime(cutoff))
}
