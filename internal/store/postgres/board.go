package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanbus/kanbus/internal/domain"
)

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) Create(ctx context.Context, b *domain.Board) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("boardRepo.Create: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO boards (id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		b.ID, b.Name, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Create: %w", translateConstraint(err))
	}

	for pos, c := range b.Columns {
		_, err = tx.Exec(ctx,
			`INSERT INTO columns (id, board_id, name, position) VALUES ($1, $2, $3, $4)`,
			c.ID, b.ID, c.Name, pos,
		)
		if err != nil {
			return fmt.Errorf("boardRepo.Create: column: %w", err)
		}
	}

	for _, userID := range b.UserIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO board_users (board_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			b.ID, userID,
		)
		if err != nil {
			return fmt.Errorf("boardRepo.Create: user association: %w", translateConstraint(err))
		}
	}

	for _, teamID := range b.TeamIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO board_teams (board_id, team_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			b.ID, teamID,
		)
		if err != nil {
			return fmt.Errorf("boardRepo.Create: team association: %w", translateConstraint(err))
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("boardRepo.Create: commit: %w", err)
	}

	return nil
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var b domain.Board

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM boards WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", err)
	}

	return &b, nil
}

func (r *BoardRepo) GetFull(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return getFullBoard(ctx, r.pool, id)
}

func (r *BoardRepo) IDs(ctx context.Context) ([]uuid.UUID, error) {
	return scanIDs(ctx, r.pool, "boardRepo.IDs",
		`SELECT id FROM boards ORDER BY created_at`)
}

func (r *BoardRepo) BoardIDForColumn(ctx context.Context, columnID uuid.UUID) (uuid.UUID, error) {
	var boardID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT board_id FROM columns WHERE id = $1`, columnID,
	).Scan(&boardID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("boardRepo.BoardIDForColumn: %w", domain.ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("boardRepo.BoardIDForColumn: %w", err)
	}
	return boardID, nil
}

func (r *BoardRepo) IDsWithUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return scanIDs(ctx, r.pool, "boardRepo.IDsWithUser",
		`SELECT board_id FROM board_users WHERE user_id = $1`, userID)
}

// Delete removes a board and, via cascading foreign keys, its columns,
// tasks, subtasks and user associations. A board still attached to any
// team cannot be deleted; the teams must be detached first.
func (r *BoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	var teamCount int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM board_teams WHERE board_id = $1`, id,
	).Scan(&teamCount)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: team check: %w", err)
	}
	if teamCount > 0 {
		return fmt.Errorf("boardRepo.Delete: board has %d attached teams: %w", teamCount, domain.ErrConflict)
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("boardRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BoardRepo) AddUser(ctx context.Context, boardID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO board_users (board_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		boardID, userID,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.AddUser: %w", translateConstraint(err))
	}
	return nil
}

func (r *BoardRepo) RemoveUser(ctx context.Context, boardID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM board_users WHERE board_id = $1 AND user_id = $2`,
		boardID, userID,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.RemoveUser: %w", err)
	}
	return nil
}

func (r *BoardRepo) UserIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	return scanIDs(ctx, r.pool, "boardRepo.UserIDs",
		`SELECT user_id FROM board_users WHERE board_id = $1`, boardID)
}

func (r *BoardRepo) TeamIDs(ctx context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	return scanIDs(ctx, r.pool, "boardRepo.TeamIDs",
		`SELECT team_id FROM board_teams WHERE board_id = $1`, boardID)
}

// Reconcile applies the patch as one transaction: optional rename,
// optional full replacement of team associations, and a structural
// column diff against the persisted state. Any failure, including a
// cancelled context, rolls the whole update back. On success the
// canonical post-update snapshot is read inside the same transaction.
func (r *BoardRepo) Reconcile(ctx context.Context, id uuid.UUID, patch domain.BoardPatch) (*domain.Board, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.Reconcile: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the board row so concurrent reconciles serialize.
	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT true FROM boards WHERE id = $1 FOR UPDATE`, id,
	).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.Reconcile: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.Reconcile: lock: %w", err)
	}

	if patch.Name != nil {
		_, err = tx.Exec(ctx,
			`UPDATE boards SET name = $1, updated_at = now() WHERE id = $2`,
			*patch.Name, id,
		)
		if err != nil {
			return nil, fmt.Errorf("boardRepo.Reconcile: rename: %w", err)
		}
	}

	if patch.TeamIDs != nil {
		if err = r.replaceTeams(ctx, tx, id, patch.TeamIDs); err != nil {
			return nil, fmt.Errorf("boardRepo.Reconcile: %w", err)
		}
	}

	if patch.Columns != nil {
		if err = r.reconcileColumns(ctx, tx, id, patch.Columns); err != nil {
			return nil, fmt.Errorf("boardRepo.Reconcile: %w", err)
		}
	}

	board, err := getFullBoard(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.Reconcile: snapshot: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("boardRepo.Reconcile: commit: %w", err)
	}

	return board, nil
}

// replaceTeams swaps the full set of board<->team associations. The
// desired set is authoritative, not a delta.
func (r *BoardRepo) replaceTeams(ctx context.Context, tx pgx.Tx, boardID uuid.UUID, teamIDs []uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM board_teams WHERE board_id = $1`, boardID)
	if err != nil {
		return fmt.Errorf("clear teams: %w", err)
	}

	for _, teamID := range teamIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO board_teams (board_id, team_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			boardID, teamID,
		)
		if err != nil {
			return fmt.Errorf("attach team %s: %w", teamID, translateConstraint(err))
		}
	}

	return nil
}

// reconcileColumns diffs the desired column list against the persisted
// one: persisted columns missing from the desired list are deleted
// (their tasks and subtasks cascade away), surviving columns are
// renamed and repositioned to match the desired order, and id-less
// entries are created fresh.
func (r *BoardRepo) reconcileColumns(ctx context.Context, tx pgx.Tx, boardID uuid.UUID, desired []domain.ColumnChange) error {
	existing, err := loadColumns(ctx, tx, boardID)
	if err != nil {
		return fmt.Errorf("load columns: %w", err)
	}

	diff := domain.DiffColumns(existing, desired)

	for _, columnID := range diff.Delete {
		_, err = tx.Exec(ctx,
			`DELETE FROM columns WHERE id = $1 AND board_id = $2`,
			columnID, boardID,
		)
		if err != nil {
			return fmt.Errorf("delete column %s: %w", columnID, err)
		}
	}

	for pos, entry := range diff.Order {
		if entry.ID == uuid.Nil {
			_, err = tx.Exec(ctx,
				`INSERT INTO columns (id, board_id, name, position) VALUES ($1, $2, $3, $4)`,
				uuid.New(), boardID, entry.Name, pos,
			)
			if err != nil {
				return fmt.Errorf("create column %q: %w", entry.Name, err)
			}
			continue
		}

		name := entry.Name
		if renamed, ok := diff.Rename[entry.ID]; ok {
			name = renamed
		}
		tag, execErr := tx.Exec(ctx,
			`UPDATE columns SET name = $1, position = $2 WHERE id = $3 AND board_id = $4`,
			name, pos, entry.ID, boardID,
		)
		if execErr != nil {
			return fmt.Errorf("update column %s: %w", entry.ID, execErr)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("update column %s: %w", entry.ID, domain.ErrNotFound)
		}
	}

	return nil
}

// getFullBoard loads the board with ordered columns, nested tasks and
// subtasks, and both association sets. Runs on the pool or inside a
// transaction.
func getFullBoard(ctx context.Context, q querier, id uuid.UUID) (*domain.Board, error) {
	var b domain.Board

	err := q.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM boards WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("getFullBoard: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getFullBoard: %w", err)
	}

	b.Columns, err = loadColumns(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("getFullBoard: columns: %w", err)
	}

	byColumn := make(map[uuid.UUID]*domain.Column, len(b.Columns))
	for _, c := range b.Columns {
		c.Tasks = []*domain.Task{}
		byColumn[c.ID] = c
	}

	tasks, err := loadBoardTasks(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("getFullBoard: tasks: %w", err)
	}
	for _, t := range tasks {
		if c, ok := byColumn[t.ColumnID]; ok {
			c.Tasks = append(c.Tasks, t)
		}
	}

	b.UserIDs, err = scanIDs(ctx, q, "getFullBoard.users",
		`SELECT user_id FROM board_users WHERE board_id = $1`, id)
	if err != nil {
		return nil, err
	}

	b.TeamIDs, err = scanIDs(ctx, q, "getFullBoard.teams",
		`SELECT team_id FROM board_teams WHERE board_id = $1`, id)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func loadColumns(ctx context.Context, q querier, boardID uuid.UUID) ([]*domain.Column, error) {
	rows, err := q.Query(ctx,
		`SELECT id, board_id, name, position FROM columns
		 WHERE board_id = $1 ORDER BY position`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("loadColumns: %w", err)
	}
	defer rows.Close()

	var columns []*domain.Column
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Name, &c.Position); err != nil {
			return nil, fmt.Errorf("loadColumns: scan: %w", err)
		}
		columns = append(columns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loadColumns: rows: %w", err)
	}

	return columns, nil
}

// loadBoardTasks returns every task on the board with subtasks attached.
func loadBoardTasks(ctx context.Context, q querier, boardID uuid.UUID) ([]*domain.Task, error) {
	rows, err := q.Query(ctx,
		`SELECT id, column_id, board_id, title, description, created_at, updated_at
		 FROM tasks WHERE board_id = $1 ORDER BY created_at`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("loadBoardTasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	byID := make(map[uuid.UUID]*domain.Task)
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.ColumnID, &t.BoardID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("loadBoardTasks: scan: %w", err)
		}
		t.Subtasks = []*domain.Subtask{}
		tasks = append(tasks, &t)
		byID[t.ID] = &t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loadBoardTasks: rows: %w", err)
	}

	if len(tasks) == 0 {
		return tasks, nil
	}

	subRows, err := q.Query(ctx,
		`SELECT s.id, s.task_id, s.title, s.completed, s.created_at, s.updated_at
		 FROM subtasks s JOIN tasks t ON t.id = s.task_id
		 WHERE t.board_id = $1 ORDER BY s.created_at`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("loadBoardTasks: subtasks: %w", err)
	}
	defer subRows.Close()

	for subRows.Next() {
		var s domain.Subtask
		if err := subRows.Scan(&s.ID, &s.TaskID, &s.Title, &s.Completed, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("loadBoardTasks: subtask scan: %w", err)
		}
		if t, ok := byID[s.TaskID]; ok {
			t.Subtasks = append(t.Subtasks, &s)
		}
	}
	if err := subRows.Err(); err != nil {
		return nil, fmt.Errorf("loadBoardTasks: subtask rows: %w", err)
	}

	return tasks, nil
}

func scanIDs(ctx context.Context, q querier, caller, sql string, args ...any) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return ids, nil
}

// translateConstraint maps foreign-key violations (a referenced row
// does not exist, e.g. a bad team id in a reconcile) onto the domain's
// validation error so callers can report them as client faults.
func translateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrValidation)
	}
	return err
}
