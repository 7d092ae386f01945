package metric

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB interface for database operations (compatible with pgxpool.Pool and pgxmock)
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// GroupedRow is one (bucket, metric) cell of a range-grouped query.
type GroupedRow struct {
	BucketKey string
	Name      string
	Sum       float64
}

// WindowAggregate carries both combinators for one metric over one window;
// the caller picks sum or avg from the registry's aggregation policy.
type WindowAggregate struct {
	Sum float64
	Avg float64
}

// TrendPoint is one day of a daily trend series.
type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Repository is the append-only metric store.
type Repository struct {
	db DB
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

// Insert appends one observation. Rows are never updated afterwards.
func (r *Repository) Insert(ctx context.Context, obs *Observation) error {
	query := `
		INSERT INTO metric_observations (name, value, occurred_at, source, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	source := obs.Source
	if source == "" {
		source = DefaultSource
	}
	metadata := obs.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	err := r.db.QueryRow(ctx, query,
		obs.Name,
		obs.Value,
		obs.OccurredAt,
		source,
		metadata,
	).Scan(&obs.ID, &obs.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert observation %s: %w", obs.Name, err)
	}

	obs.Source = source
	return nil
}

// InsertBatch appends observations in one transaction.
func (r *Repository) InsertBatch(ctx context.Context, observations []*Observation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO metric_observations (name, value, occurred_at, source, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, obs := range observations {
		source := obs.Source
		if source == "" {
			source = DefaultSource
		}
		metadata := obs.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		if _, err := tx.Exec(ctx, query, obs.Name, obs.Value, obs.OccurredAt, source, metadata); err != nil {
			return fmt.Errorf("insert observation %s: %w", obs.Name, err)
		}
	}

	return tx.Commit(ctx)
}

// QueryGrouped returns the per-(bucket, metric) sum for the given metrics and
// window, ordered by bucket key ascending then metric name. The store always
// sums; sum-vs-average presentation is the caller's decision. An empty source
// matches all sources.
func (r *Repository) QueryGrouped(ctx context.Context, names []string, start, end time.Time, source string, g Granularity) ([]GroupedRow, error) {
	query := `
		SELECT date_trunc($1, occurred_at AT TIME ZONE 'UTC') AS bucket,
		       name,
		       SUM(value) AS sum_value
		FROM metric_observations
		WHERE name = ANY($2)
		  AND occurred_at >= $3
		  AND occurred_at <= $4
		  AND ($5 = '' OR source = $5)
		GROUP BY bucket, name
		ORDER BY bucket ASC, name ASC
	`

	rows, err := r.db.Query(ctx, query, g.TruncField(), names, start, end, source)
	if err != nil {
		return nil, fmt.Errorf("query grouped metrics: %w", err)
	}
	defer rows.Close()

	var result []GroupedRow
	for rows.Next() {
		var bucket time.Time
		var row GroupedRow
		if err := rows.Scan(&bucket, &row.Name, &row.Sum); err != nil {
			return nil, fmt.Errorf("scan grouped row: %w", err)
		}
		row.BucketKey = BucketKey(bucket, g)
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grouped rows: %w", err)
	}

	return result, nil
}

// QueryWindowAggregate returns per-metric sum and average over one window in
// a single pass. Metrics with no observations are absent from the map.
func (r *Repository) QueryWindowAggregate(ctx context.Context, names []string, start, end time.Time) (map[string]WindowAggregate, error) {
	query := `
		SELECT name, SUM(value) AS sum_value, AVG(value) AS avg_value
		FROM metric_observations
		WHERE name = ANY($1)
		  AND occurred_at >= $2
		  AND occurred_at <= $3
		GROUP BY name
	`

	rows, err := r.db.Query(ctx, query, names, start, end)
	if err != nil {
		return nil, fmt.Errorf("query window aggregate: %w", err)
	}
	defer rows.Close()

	result := make(map[string]WindowAggregate)
	for rows.Next() {
		var name string
		var agg WindowAggregate
		if err := rows.Scan(&name, &agg.Sum, &agg.Avg); err != nil {
			return nil, fmt.Errorf("scan window aggregate: %w", err)
		}
		result[name] = agg
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate window aggregates: %w", err)
	}

	return result, nil
}

// QueryDailyTrend returns per-metric daily sums over one window, date
// ascending. Days with no observations are absent; zero-filling the window
// is the caller's job.
func (r *Repository) QueryDailyTrend(ctx context.Context, names []string, start, end time.Time) (map[string][]TrendPoint, error) {
	query := `
		SELECT name,
		       date_trunc('day', occurred_at AT TIME ZONE 'UTC') AS day,
		       SUM(value) AS sum_value
		FROM metric_observations
		WHERE name = ANY($1)
		  AND occurred_at >= $2
		  AND occurred_at <= $3
		GROUP BY name, day
		ORDER BY day ASC, name ASC
	`

	rows, err := r.db.Query(ctx, query, names, start, end)
	if err != nil {
		return nil, fmt.Errorf("query daily trend: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]TrendPoint)
	for rows.Next() {
		var name string
		var day time.Time
		var value float64
		if err := rows.Scan(&name, &day, &value); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		result[name] = append(result[name], TrendPoint{
			Date:  BucketKey(day, GranularityDay),
			Value: value,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend points: %w", err)
	}

	return result, nil
}

// DeleteOlderThan removes observations past the retention horizon.
func (r *Repository) DeleteOlderThan(ctx context.Context, horizon time.Duration) (int64, error) {
	query := `
		DELETE FROM metric_observations
		WHERE occurred_at < $1
	`

	cutoff := time.Now().UTC().Add(-horizon)
	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old observations: %w", err)
	}

	return result.RowsAffected(), nil
}
