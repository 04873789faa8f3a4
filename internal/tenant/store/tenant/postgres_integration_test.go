//go:build integration

package tenant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"logdata/internal/tenant/models"
	tenantstore "logdata/internal/tenant/store/tenant"
	id "logdata/pkg/domain"
	"logdata/pkg/platform/sentinel"
	"logdata/pkg/testutil"
	"logdata/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *tenantstore.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = tenantstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateModuleTables(context.Background()))
}

func (s *PostgresStoreSuite) newTenant(name string) *models.Tenant {
	key := testutil.KeyFor(s.T(), "postgres-store")
	tenant, err := models.NewTenant(id.NewTenantID(), name, key.PublicPEM,
		[]string{"ops@acme.io", "dev@acme.io"}, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return tenant
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	tenant := s.newTenant("Acme")
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, tenant))

	byName, err := s.store.FindByName(ctx, "Acme")
	s.Require().NoError(err)
	s.Equal(tenant.ID, byName.ID)
	s.Equal(tenant.PublicKey, byName.PublicKey)
	s.Equal([]string{"ops@acme.io", "dev@acme.io"}, byName.AlertRecipients)
	s.True(tenant.CreatedAt.Equal(byName.CreatedAt))
}

func (s *PostgresStoreSuite) TestExactNameMatch() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, s.newTenant("Acme")))

	_, err := s.store.FindByName(ctx, "acme")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByName(ctx, "Nobody")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateNameMapsToAlreadyUsed() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, s.newTenant("Acme")))

	err := s.store.CreateIfNameAvailable(ctx, s.newTenant("Acme"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestConcurrentRegistrationSingleWinner() {
	candidates := make([]*models.Tenant, 10)
	for i := range candidates {
		candidates[i] = s.newTenant("Racer")
	}

	result := testutil.RunConcurrent(len(candidates), func(i int) error {
		return s.store.CreateIfNameAvailable(context.Background(), candidates[i])
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.Conflicts)
}
