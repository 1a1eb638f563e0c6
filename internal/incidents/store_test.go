package incidents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miradorstack/mirador-kb/internal/config"
	"github.com/miradorstack/mirador-kb/internal/models"
	"github.com/miradorstack/mirador-kb/internal/patterns"
	"github.com/miradorstack/mirador-kb/internal/repo"
	"github.com/miradorstack/mirador-kb/internal/utils"
)

const project = "shop"

type testEnv struct {
	svc     *Service
	catalog *patterns.Catalog
	clock   time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repo.NewStore(repo.NewMemoryBackend())
	catalog := patterns.NewCatalog(nil, store)
	env := &testEnv{
		svc:     NewService(nil, config.DefaultThresholds(), store, catalog, nil),
		catalog: catalog,
		clock:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	env.svc.now = func() time.Time {
		env.clock = env.clock.Add(time.Minute)
		return env.clock
	}
	return env
}

func oomDraft() models.IncidentDraft {
	return models.IncidentDraft{
		Type:        models.IncidentResourceExhaustion,
		Severity:    models.SeverityCritical,
		Title:       "checkout pods OOMKilled after deploy",
		Description: "containers exceeded memory limit during peak traffic",
		Tags:        []string{"oom", "memory"},
	}
}

func TestRecordAssignsIdentityAndBumpsPatterns(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	incident, err := env.svc.Record(ctx, project, oomDraft())
	require.NoError(t, err)
	assert.NotEmpty(t, incident.ID)
	assert.Equal(t, models.StatusOpen, incident.Status)
	assert.Equal(t, project, incident.Project)
	assert.False(t, incident.CreatedAt.IsZero())
	assert.Equal(t, incident.CreatedAt, incident.Timestamp)
	assert.Nil(t, incident.ResolvedAt)

	oom, err := env.catalog.Get(ctx, project, "pat-oom-killed")
	require.NoError(t, err)
	assert.Equal(t, 1, oom.Occurrences)
	require.NotNil(t, oom.LastSeen)

	cert, err := env.catalog.Get(ctx, project, "pat-cert-expiry")
	require.NoError(t, err)
	assert.Zero(t, cert.Occurrences)
}

func TestRecordRejectsInvalidDraft(t *testing.T) {
	env := newTestEnv(t)
	draft := oomDraft()
	draft.Severity = "urgent"

	_, err := env.svc.Record(context.Background(), project, draft)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	all, err := env.svc.List(context.Background(), project)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateMaintainsResolvedAt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	incident, err := env.svc.Record(ctx, project, oomDraft())
	require.NoError(t, err)

	investigating := models.StatusInvestigating
	updated, err := env.svc.Update(ctx, project, incident.ID, models.IncidentPatch{Status: &investigating})
	require.NoError(t, err)
	assert.Nil(t, updated.ResolvedAt)

	resolved := models.StatusResolved
	cause := "limit set to 256Mi"
	updated, err = env.svc.Update(ctx, project, incident.ID, models.IncidentPatch{Status: &resolved, RootCause: &cause})
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
	assert.Equal(t, cause, updated.RootCause)
	assert.Equal(t, incident.Title, updated.Title)

	open := models.StatusOpen
	updated, err = env.svc.Update(ctx, project, incident.ID, models.IncidentPatch{Status: &open})
	require.NoError(t, err)
	assert.Nil(t, updated.ResolvedAt)

	_, err = env.svc.Update(ctx, project, "missing", models.IncidentPatch{Status: &open})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	bogus := models.IncidentStatus("closed")
	_, err = env.svc.Update(ctx, project, incident.ID, models.IncidentPatch{Status: &bogus})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestGetUnknownIncident(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Get(context.Background(), project, "nope")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestSearchFiltersAndOrdering(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.svc.Record(ctx, project, oomDraft())
	require.NoError(t, err)
	second, err := env.svc.Record(ctx, project, models.IncidentDraft{
		Type:        models.IncidentDependencyFailure,
		Severity:    models.SeverityHigh,
		Title:       "payments cannot reach postgres",
		Description: "connection refused from payments-api",
		RootCause:   "Database failover",
		Tags:        []string{"database"},
	})
	require.NoError(t, err)
	third, err := env.svc.Record(ctx, project, models.IncidentDraft{
		Type:     models.IncidentErrorSpike,
		Severity: models.SeverityMedium,
		Title:    "error spike in worker",
		Tags:     []string{"errors", "memory"},
	})
	require.NoError(t, err)

	all, err := env.svc.Search(ctx, project, models.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(all))

	byTag, err := env.svc.Search(ctx, project, models.SearchFilter{Tags: []string{"memory", "unused"}})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, first.ID}, ids(byTag))

	byQuery, err := env.svc.Search(ctx, project, models.SearchFilter{Query: "FAILOVER"})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, ids(byQuery))

	bySeverity, err := env.svc.Search(ctx, project, models.SearchFilter{Severity: models.SeverityCritical, Type: models.IncidentResourceExhaustion})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, ids(bySeverity))

	limited, err := env.svc.Search(ctx, project, models.SearchFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID}, ids(limited))

	_, err = env.svc.Search(ctx, project, models.SearchFilter{Limit: -1})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestFixRoundTripResolvesIncidentAndUpdatesStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	incident, err := env.svc.Record(ctx, project, oomDraft())
	require.NoError(t, err)

	before, err := env.svc.Stats(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, 0, before.Fixes.Resolved)
	assert.Equal(t, 1, before.Incidents.Open)

	fix, err := env.svc.RecordFix(ctx, project, incident.ID, models.FixDraft{
		Description: "Raise memory limit to 1Gi",
		Type:        models.FixConfigChange,
		Diff:        "-memory: 256Mi\n+memory: 1Gi",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomePending, fix.Outcome)
	assert.Equal(t, incident.ID, fix.IncidentID)

	resolved, err := env.svc.UpdateFixOutcome(ctx, project, incident.ID, models.OutcomeResolved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.Fix.ResolvedAt)

	after, err := env.svc.Stats(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, before.Fixes.Resolved+1, after.Fixes.Resolved)
	assert.Equal(t, 1, after.Fixes.Total)
	assert.InDelta(t, 1.0, after.Fixes.SuccessRate, 1e-9)
	assert.Equal(t, 1, after.Incidents.Resolved)
	assert.Equal(t, 0, after.Incidents.Open)
	assert.Equal(t, 8, after.Patterns.Total)
	assert.Equal(t, 2, after.Patterns.ByCategory[models.CategoryResource])

	oom, err := env.catalog.Get(ctx, project, "pat-oom-killed")
	require.NoError(t, err)
	assert.Equal(t, 1, oom.Occurrences)
	assert.InDelta(t, 1.0, oom.SuccessRate, 1e-9)
}

func TestFixOutcomeErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	incident, err := env.svc.Record(ctx, project, oomDraft())
	require.NoError(t, err)

	_, err = env.svc.UpdateFixOutcome(ctx, project, incident.ID, models.OutcomeFailed)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = env.svc.UpdateFixOutcome(ctx, project, incident.ID, "great")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = env.svc.RecordFix(ctx, project, "missing", models.FixDraft{Description: "x", Type: models.FixManual})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = env.svc.RecordFix(ctx, project, incident.ID, models.FixDraft{Description: "x", Type: "magic"})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

type brokenStore struct{}

func (brokenStore) LoadIncidents(context.Context, string) ([]models.Incident, error) {
	return nil, utils.StorageUnavailable("load", errors.New("disk gone"))
}

func (brokenStore) SaveIncidents(context.Context, string, []models.Incident) error {
	return utils.StorageUnavailable("save", errors.New("disk gone"))
}

func TestStorageFailuresPropagate(t *testing.T) {
	svc := NewService(nil, config.DefaultThresholds(), brokenStore{}, nil, nil)

	_, err := svc.Record(context.Background(), project, oomDraft())
	assert.ErrorIs(t, err, utils.ErrStorageUnavailable)

	_, err = svc.Search(context.Background(), project, models.SearchFilter{})
	assert.ErrorIs(t, err, utils.ErrStorageUnavailable)

	_, err = svc.Stats(context.Background(), project)
	assert.ErrorIs(t, err, utils.ErrStorageUnavailable)
}

func ids(incidents []models.Incident) []string {
	out := make([]string, 0, len(incidents))
	for _, incident := range incidents {
		out = append(out, incident.ID)
	}
	return out
}
