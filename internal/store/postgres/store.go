package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanbus/kanbus/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so reads can
// run inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool     *pgxpool.Pool
	boards   *BoardRepo
	tasks    *TaskRepo
	subtasks *SubtaskRepo
	teams    *TeamRepo
	users    *UserRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:     pool,
		boards:   NewBoardRepo(pool),
		tasks:    NewTaskRepo(pool),
		subtasks: NewSubtaskRepo(pool),
		teams:    NewTeamRepo(pool),
		users:    NewUserRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Boards() domain.BoardRepository     { return s.boards }
func (s *Store) Tasks() domain.TaskRepository       { return s.tasks }
func (s *Store) Subtasks() domain.SubtaskRepository { return s.subtasks }
func (s *Store) Teams() domain.TeamRepository       { return s.teams }
func (s *Store) Users() domain.UserRepository       { return s.users }
