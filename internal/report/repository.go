package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datalumen/lumen/internal/domain"
	"github.com/datalumen/lumen/internal/metric"
)

// DB interface for database operations (compatible with pgxpool.Pool and pgxmock)
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// Repository persists recurring report definitions.
type Repository struct {
	db DB
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, def *Definition) error {
	query := `
		INSERT INTO report_definitions (name, metrics, granularity, source, schedule)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		def.Name,
		def.Metrics,
		string(def.Granularity),
		def.Source,
		string(def.Schedule),
	).Scan(&def.ID, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create report definition: %w", err)
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Definition, error) {
	query := `
		SELECT id, name, metrics, granularity, source, schedule, last_run_at, created_at, updated_at
		FROM report_definitions
		WHERE id = $1
	`

	def, err := scanDefinition(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report definition %s: %w", id, err)
	}

	return def, nil
}

func (r *Repository) List(ctx context.Context) ([]*Definition, error) {
	query := `
		SELECT id, name, metrics, granularity, source, schedule, last_run_at, created_at, updated_at
		FROM report_definitions
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list report definitions: %w", err)
	}
	defer rows.Close()

	var defs []*Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report definition: %w", err)
		}
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report definitions: %w", err)
	}

	return defs, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM report_definitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report definition %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

// MarkRun records a completed run.
func (r *Repository) MarkRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE report_definitions
		SET last_run_at = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark report run %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDefinition(row rowScanner) (*Definition, error) {
	var def Definition
	var granularity, schedule string
	err := row.Scan(
		&def.ID,
		&def.Name,
		&def.Metrics,
		&granularity,
		&def.Source,
		&schedule,
		&def.LastRunAt,
		&def.CreatedAt,
		&def.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	def.Granularity = metric.Granularity(granularity)
	def.Schedule = Schedule(schedule)
	return &def, nil
}
