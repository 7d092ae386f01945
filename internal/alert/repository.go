package alert

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
)

// DB interface for database operations (compatible with pgxpool.Pool and pgxmock)
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

type Repository struct {
	db DB
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, rule *Rule) error {
	query := `
		INSERT INTO alert_rules (
			name, metric, operator, threshold, window_seconds,
			cooldown_seconds, severity, enabled
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		rule.Name, rule.Metric, string(rule.Operator), rule.Threshold,
		rule.WindowSeconds, rule.CooldownSeconds, string(rule.Severity), rule.Enabled,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create alert rule: %w", err)
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Rule, error) {
	query := `
		SELECT id, name, metric, operator, threshold, window_seconds,
		       cooldown_seconds, severity, enabled, last_triggered_at,
		       created_at, updated_at
		FROM alert_rules
		WHERE id = $1
	`

	rule, err := scanRule(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get alert rule %s: %w", id, err)
	}

	return rule, nil
}

func (r *Repository) List(ctx context.Context) ([]*Rule, error) {
	query := `
		SELECT id, name, metric, operator, threshold, window_seconds,
		       cooldown_seconds, severity, enabled, last_triggered_at,
		       created_at, updated_at
		FROM alert_rules
		ORDER BY created_at ASC
	`

	return r.listRules(ctx, query)
}

func (r *Repository) ListEnabled(ctx context.Context) ([]*Rule, error) {
	query := `
		SELECT id, name, metric, operator, threshold, window_seconds,
		       cooldown_seconds, severity, enabled, last_triggered_at,
		       created_at, updated_at
		FROM alert_rules
		WHERE enabled = true
		ORDER BY created_at ASC
	`

	return r.listRules(ctx, query)
}

func (r *Repository) listRules(ctx context.Context, query string) ([]*Rule, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list alert rules: %w", err)
	}
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete alert rule %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}

// MarkTriggered stamps the rule and records the firing in one logical step.
func (r *Repository) MarkTriggered(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO alert_events (rule_id, triggered_at, value, threshold)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		event.RuleID, event.TriggeredAt, event.Value, event.Threshold,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("save alert event: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`UPDATE alert_rules SET last_triggered_at = $2, updated_at = NOW() WHERE id = $1`,
		event.RuleID, event.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("stamp alert rule %s: %w", event.RuleID, err)
	}

	return nil
}

func (r *Repository) ListEvents(ctx context.Context, ruleID uuid.UUID, limit int) ([]*Event, error) {
	query := `
		SELECT id, rule_id, triggered_at, value, threshold, created_at
		FROM alert_events
		WHERE rule_id = $1
		ORDER BY triggered_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, ruleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list alert events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.RuleID, &e.TriggeredAt, &e.Value, &e.Threshold, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert event: %w", err)
		}
		events = append(events, &e)
	}

	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*Rule, error) {
	var (
		rule      Rule
		operator  string
		severity  string
		triggered *time.Time
	)

	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Metric, &operator, &rule.Threshold,
		&rule.WindowSeconds, &rule.CooldownSeconds, &severity, &rule.Enabled,
		&triggered, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Operator = Operator(operator)
	rule.Severity = Severity(severity)
	rule.LastTriggeredAt = triggered
	return &rule, nil
}
