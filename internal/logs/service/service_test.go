package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"logdata/internal/logs/models"
	"logdata/internal/logs/service/mocks"
	tenantmodels "logdata/internal/tenant/models"
	id "logdata/pkg/domain"
	dErrors "logdata/pkg/domain-errors"
	"logdata/pkg/requestcontext"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks logdata/internal/logs/service LogStore,TenantDirectory,AlertDispatcher

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	store      *mocks.MockLogStore
	directory  *mocks.MockTenantDirectory
	dispatcher *mocks.MockAlertDispatcher
	service    *Service
	tenant     *tenantmodels.Tenant
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockLogStore(s.ctrl)
	s.directory = mocks.NewMockTenantDirectory(s.ctrl)
	s.dispatcher = mocks.NewMockAlertDispatcher(s.ctrl)
	s.service = New(s.store, s.directory, s.dispatcher,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSearchLimits(50, 200))
	s.now = time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	s.tenant = &tenantmodels.Tenant{
		ID:              id.NewTenantID(),
		Name:            "Acme",
		PublicKey:       "key",
		AlertRecipients: []string{"ops@acme.io"},
	}
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) TestIngestUnknownTenantPropagatesDirectoryError() {
	notFound := dErrors.New(dErrors.CodeNotFound, "Company not found")
	s.directory.EXPECT().GetTenant(gomock.Any(), "Ghost").Return(nil, notFound)

	result, err := s.service.Ingest(s.ctx(), "Ghost", &models.LogPayload{Level: "INFO", Message: "hi"})
	s.Nil(result)
	s.Same(notFound, err)
}

func (s *ServiceSuite) TestIngestDefaultsTimestampAndSetsReceivedAt() {
	s.directory.EXPECT().GetTenant(gomock.Any(), "Acme").Return(s.tenant, nil)
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *models.Record) error {
		s.Equal("2026-04-02T08:30:00Z", r.Log.Timestamp)
		s.Equal(s.now, r.ReceivedAt)
		s.Equal(s.tenant.ID, r.TenantID)
		s.Equal("Acme", r.TenantName)
		return nil
	})

	result, err := s.service.Ingest(s.ctx(), "Acme", &models.LogPayload{Level: "INFO", Message: "hi"})
	s.Require().NoError(err)
	s.Equal(models.AlertNotRequired, result.Alert)
}

func (s *ServiceSuite) TestIngestKeepsClientTimestamp() {
	s.directory.EXPECT().GetTenant(gomock.Any(), "Acme").Return(s.tenant, nil)
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *models.Record) error {
		s.Equal("2020-01-01T00:00:00Z", r.Log.Timestamp)
		return nil
	})

	_, err := s.service.Ingest(s.ctx(), "Acme", &models.LogPayload{Timestamp: "2020-01-01T00:00:00Z", Level: "INFO", Message: "hi"})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestIngestStoreFailureIsNotAlertingFailure() {
	s.directory.EXPECT().GetTenant(gomock.Any(), "Acme").Return(s.tenant, nil)
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	result, err := s.service.Ingest(s.ctx(), "Acme", &models.LogPayload{Level: "ERROR", Message: "boom"})
	s.Nil(result)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestIngestLevelMatchIsCaseSensitive() {
	s.directory.EXPECT().GetTenant(gomock.Any(), "Acme").Return(s.tenant, nil)
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	result, err := s.service.Ingest(s.ctx(), "Acme", &models.LogPayload{Level: "error", Message: "lower"})
	s.Require().NoError(err)
	s.Equal(models.AlertNotRequired, result.Alert)
}

func (s *ServiceSuite) TestIngestWrapsPlainDispatchErrors() {
	s.directory.EXPECT().GetTenant(gomock.Any(), "Acme").Return(s.tenant, nil)
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.dispatcher.EXPECT().
		Dispatch(gomock.Any(), []string{"ops@acme.io"}, "[Acme] ERROR alert from billing", gomock.Any()).
		Return(context.DeadlineExceeded)

	result, err := s.service.Ingest(s.ctx(), "Acme", &models.LogPayload{Service: "billing", Level: "ERROR", Message: "boom"})
	s.Require().NotNil(result)
	s.Equal(models.AlertFailed, result.Alert)
	s.True(dErrors.HasCode(err, dErrors.CodeAlertingFailed))
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *ServiceSuite) TestIngestRejectsInvalidPayload() {
	_, err := s.service.Ingest(s.ctx(), "Acme", &models.LogPayload{Message: "no level"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Ingest(s.ctx(), "Acme", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestSearchForcesTenantAndClampsLimit() {
	cases := []struct {
		name      string
		requested int
		want      int
	}{
		{"default when unset", 0, 50},
		{"explicit within bounds", 10, 10},
		{"clamped to max", 5000, 200},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.directory.EXPECT().GetTenant(gomock.Any(), "Acme").Return(s.tenant, nil)
			s.store.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, f models.SearchFilter) ([]*models.Record, error) {
					s.Equal(s.tenant.ID, f.TenantID)
					s.Equal(tc.want, f.Limit)
					s.Equal([]string{"urgent"}, f.Tags)
					return []*models.Record{}, nil
				})

			records, err := s.service.Search(s.ctx(), "Acme", &models.SearchRequest{Tags: []string{" urgent ", ""}, Limit: tc.requested})
			s.Require().NoError(err)
			s.Empty(records)
		})
	}
}

func (s *ServiceSuite) TestSearchRejectsInvertedRange() {
	start := s.now
	end := s.now.Add(-time.Hour)
	_, err := s.service.Search(s.ctx(), "Acme", &models.SearchRequest{Start: &start, End: &end})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestSearchStoreFailure() {
	s.directory.EXPECT().GetTenant(gomock.Any(), "Acme").Return(s.tenant, nil)
	s.store.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

	_, err := s.service.Search(s.ctx(), "Acme", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
