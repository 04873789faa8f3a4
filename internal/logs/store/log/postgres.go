package log

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"logdata/internal/logs/models"
	id "logdata/pkg/domain"
)

// PostgresStore persists records in PostgreSQL. The filterable fields are
// denormalized into columns; the full payload is kept as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	payload, err := json.Marshal(record.Log)
	if err != nil {
		return fmt.Errorf("encode log payload: %w", err)
	}
	tags := record.Log.Tags
	if tags == nil {
		tags = []string{}
	}
	query := `
		INSERT INTO logs (id, tenant_id, tenant_name, level, user_name, tags, payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.TenantID),
		record.TenantName,
		record.Log.Level,
		record.Log.UserName(),
		tags,
		string(payload),
		record.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("save log: %w", err)
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, filter models.SearchFilter) ([]*models.Record, error) {
	query, args := buildSearch(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search logs: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return out, nil
}

// buildSearch turns the filter into a parameterized query. Fields left at
// their zero value add no clause.
func buildSearch(filter models.SearchFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if !filter.TenantID.IsNil() {
		add("tenant_id = $%d", uuid.UUID(filter.TenantID))
	}
	if filter.Level != "" {
		add("level = $%d", filter.Level)
	}
	if filter.UserName != "" {
		add("user_name = $%d", filter.UserName)
	}
	if len(filter.Tags) > 0 {
		add("tags && $%d::text[]", filter.Tags)
	}
	if filter.HasTimeRange() {
		add("received_at >= $%d", *filter.Start)
		add("received_at <= $%d", *filter.End)
	}

	var b strings.Builder
	b.WriteString(`SELECT id, tenant_id, tenant_name, payload, received_at FROM logs`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY received_at, id")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func scanRecord(rows *sql.Rows) (*models.Record, error) {
	var (
		record   models.Record
		logID    uuid.UUID
		tenantID uuid.UUID
		payload  []byte
	)
	if err := rows.Scan(&logID, &tenantID, &record.TenantName, &payload, &record.ReceivedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &record.Log); err != nil {
		return nil, fmt.Errorf("decode log payload: %w", err)
	}
	record.ID = id.LogID(logID)
	record.TenantID = id.TenantID(tenantID)
	return &record, nil
}
