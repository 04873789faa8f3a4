package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logdata/internal/tenant/models"
	id "logdata/pkg/domain"
	"logdata/pkg/platform/sentinel"
	"logdata/pkg/testutil"
)

func newTenant(t *testing.T, name string) *models.Tenant {
	t.Helper()
	tenant, err := models.NewTenant(id.NewTenantID(), name, "-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----",
		[]string{"ops@example.com"}, time.Now())
	require.NoError(t, err)
	return tenant
}

func TestCreateIfNameAvailable(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	tenant := newTenant(t, "Acme")

	require.NoError(t, store.CreateIfNameAvailable(ctx, tenant))

	found, err := store.FindByName(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, tenant, found)
}

func TestCreateIfNameAvailable_DuplicateName(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.CreateIfNameAvailable(ctx, newTenant(t, "Acme")))

	err := store.CreateIfNameAvailable(ctx, newTenant(t, "Acme"))
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestNamesAreCaseSensitive(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.CreateIfNameAvailable(ctx, newTenant(t, "Acme")))
	require.NoError(t, store.CreateIfNameAvailable(ctx, newTenant(t, "ACME")))

	_, err := store.FindByName(ctx, "acme")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	found, err := store.FindByName(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, "ACME", found.Name)
}

func TestNotFound(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_, err := store.FindByName(ctx, "Nobody")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	tenant := newTenant(t, "Acme")
	require.NoError(t, store.CreateIfNameAvailable(ctx, tenant))

	found, err := store.FindByName(ctx, "Acme")
	require.NoError(t, err)
	found.AlertRecipients[0] = "attacker@evil.test"

	again, err := store.FindByName(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", again.AlertRecipients[0])
}

func TestConcurrentCreateSameName(t *testing.T) {
	store := NewInMemory()
	candidates := make([]*models.Tenant, 20)
	for i := range candidates {
		candidates[i] = newTenant(t, "Racer")
	}

	result := testutil.RunConcurrent(len(candidates), func(i int) error {
		return store.CreateIfNameAvailable(context.Background(), candidates[i])
	})

	assert.Equal(t, int32(1), result.Successes)
	assert.Equal(t, int32(19), result.Conflicts)
}
