// Package tenant persists registered companies.
package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"logdata/internal/tenant/models"
	id "logdata/pkg/domain"
	"logdata/pkg/platform/sentinel"
)

// PostgresStore persists tenants in PostgreSQL. The unique index on name is
// the authority for concurrent registrations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tenant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectTenant = `SELECT id, name, public_key, alert_recipients, created_at FROM tenants`

// CreateIfNameAvailable inserts the tenant, mapping a unique violation on name to ErrAlreadyUsed.
func (s *PostgresStore) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	if tenant == nil {
		return fmt.Errorf("tenant is required")
	}
	recipients, err := json.Marshal(tenant.AlertRecipients)
	if err != nil {
		return fmt.Errorf("encode alert recipients: %w", err)
	}
	query := `
		INSERT INTO tenants (id, name, public_key, alert_recipients, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(tenant.ID),
		tenant.Name,
		tenant.PublicKey,
		string(recipients),
		tenant.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tenant name must be unique: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

// FindByName retrieves a tenant by its exact name.
func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Tenant, error) {
	tenant, err := scanTenant(s.db.QueryRowContext(ctx, selectTenant+` WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant by name: %w", err)
	}
	return tenant, nil
}

type tenantRow interface {
	Scan(dest ...any) error
}

func scanTenant(row tenantRow) (*models.Tenant, error) {
	var tenant models.Tenant
	var tenantID uuid.UUID
	var recipients []byte
	if err := row.Scan(&tenantID, &tenant.Name, &tenant.PublicKey, &recipients, &tenant.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(recipients, &tenant.AlertRecipients); err != nil {
		return nil, fmt.Errorf("decode alert recipients: %w", err)
	}
	tenant.ID = id.TenantID(tenantID)
	return &tenant, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
