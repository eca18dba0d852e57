package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/internal/team/store"
)

type membersRepo struct {
	q *queries
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (domain.Member, error) {
	var (
		m                domain.Member
		role             string
		created, updated string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &role, &m.PasswordHash, &m.PasswordSet, &m.Active, &created, &updated); err != nil {
		return domain.Member{}, err
	}

	var err error
	if m.CreatedAt, err = parseTime(created); err != nil {
		return domain.Member{}, err
	}
	if m.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Member{}, err
	}
	m.Role = domain.Role(role)
	return m, nil
}

func (r *membersRepo) CreateMember(ctx context.Context, m domain.Member) error {
	_, err := r.q.db.ExecContext(ctx, createMember,
		m.ID, m.Name, m.Email, string(m.Role), m.PasswordHash,
		m.PasswordSet, m.Active, formatTime(m.CreatedAt), formatTime(m.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *membersRepo) GetMemberByID(ctx context.Context, id string) (domain.Member, error) {
	m, err := scanMember(r.q.db.QueryRowContext(ctx, getMemberByID, id))
	return m, mapNotFound(err)
}

func (r *membersRepo) GetMemberByEmail(ctx context.Context, email string) (domain.Member, error) {
	m, err := scanMember(r.q.db.QueryRowContext(ctx, getMemberByEmail, email))
	return m, mapNotFound(err)
}

func (r *membersRepo) ListMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.q.db.QueryContext(ctx, listMembers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membersRepo) ActivateMember(ctx context.Context, id, passwordHash string, now time.Time) error {
	n, err := r.q.exec(ctx, activateMember, passwordHash, formatTime(now), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *membersRepo) DeleteMember(ctx context.Context, id string) error {
	n, err := r.q.exec(ctx, deleteMember, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *membersRepo) HasAdmin(ctx context.Context) (bool, error) {
	var n int
	if err := r.q.db.QueryRowContext(ctx, countAdmins).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
