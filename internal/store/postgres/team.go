package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanbus/kanbus/internal/domain"
)

type TeamRepo struct {
	pool *pgxpool.Pool
}

func NewTeamRepo(pool *pgxpool.Pool) *TeamRepo {
	return &TeamRepo{pool: pool}
}

func (r *TeamRepo) Create(ctx context.Context, t *domain.Team) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("teamRepo.Create: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO teams (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Name, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("teamRepo.Create: %w", translateConstraint(err))
	}

	for _, userID := range t.MemberIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			t.ID, userID,
		)
		if err != nil {
			return fmt.Errorf("teamRepo.Create: member: %w", translateConstraint(err))
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("teamRepo.Create: commit: %w", err)
	}

	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	var t domain.Team

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM teams WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("teamRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("teamRepo.GetByID: %w", err)
	}

	t.MemberIDs, err = r.MemberIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("teamRepo.GetByID: %w", err)
	}

	t.BoardIDs, err = scanIDs(ctx, r.pool, "teamRepo.GetByID.boards",
		`SELECT board_id FROM board_teams WHERE team_id = $1`, id)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *TeamRepo) List(ctx context.Context) ([]*domain.Team, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM teams ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("teamRepo.List: %w", err)
	}
	defer rows.Close()

	var teams []*domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("teamRepo.List: scan: %w", err)
		}
		teams = append(teams, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("teamRepo.List: rows: %w", err)
	}

	return teams, nil
}

func (r *TeamRepo) Update(ctx context.Context, t *domain.Team) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE teams SET name = $1, updated_at = now() WHERE id = $2`,
		t.Name, t.ID,
	)
	if err != nil {
		return fmt.Errorf("teamRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("teamRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TeamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("teamRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("teamRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TeamRepo) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		teamID, userID,
	)
	if err != nil {
		return fmt.Errorf("teamRepo.AddMember: %w", translateConstraint(err))
	}
	return nil
}

func (r *TeamRepo) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`,
		teamID, userID,
	)
	if err != nil {
		return fmt.Errorf("teamRepo.RemoveMember: %w", err)
	}
	return nil
}

func (r *TeamRepo) MemberIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	return scanIDs(ctx, r.pool, "teamRepo.MemberIDs",
		`SELECT user_id FROM team_members WHERE team_id = $1`, teamID)
}

func (r *TeamRepo) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var member bool
	err := r.pool.QueryRow(ctx,
		`SELECT exists(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID,
	).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("teamRepo.IsMember: %w", err)
	}
	return member, nil
}

func (r *TeamRepo) AddBoard(ctx context.Context, teamID, boardID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO board_teams (board_id, team_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		boardID, teamID,
	)
	if err != nil {
		return fmt.Errorf("teamRepo.AddBoard: %w", translateConstraint(err))
	}
	return nil
}

func (r *TeamRepo) RemoveBoard(ctx context.Context, teamID, boardID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM board_teams WHERE board_id = $1 AND team_id = $2`,
		boardID, teamID,
	)
	if err != nil {
		return fmt.Errorf("teamRepo.RemoveBoard: %w", err)
	}
	return nil
}

func (r *TeamRepo) BoardIDsForMember(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return scanIDs(ctx, r.pool, "teamRepo.BoardIDsForMember",
		`SELECT DISTINCT bt.board_id
		 FROM board_teams bt JOIN team_members tm ON tm.team_id = bt.team_id
		 WHERE tm.user_id = $1`,
		userID)
}
