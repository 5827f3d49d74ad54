package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/meditrek/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleConsultation(mode model.QueryMode, status model.ConsultationStatus, at time.Time) *model.Consultation {
	form := "tablet"
	return &model.Consultation{
		Mode: mode,
		Profile: model.PatientProfile{
			Symptoms:  []string{"cough", "fever"},
			Gender:    "female",
			Age:       "34",
			Allergies: "none",
		},
		Result: model.CombinedRecommendation{
			Medications: []model.MedicationRecommendation{{
				Rank:           1,
				Name:           "Tylenol",
				MedicationType: &form,
				SideEffects:    "Nausea",
				PharmacyLinks:  map[string]string{"cvs": "https://www.cvs.com/search?searchTerm=Tylenol"},
			}},
			Management: model.ManagementLists{ToDoList: []string{"Rest"}, DoNotList: []string{"Smoke"}},
		},
		Status:     status,
		DurationMs: 1200,
		CreatedAt:  at,
	}
}

func TestSQLite_SaveAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := sampleConsultation(model.QueryModeCombined, model.ConsultationComplete, time.Time{})
	require.NoError(t, st.SaveConsultation(ctx, c))
	require.NotEmpty(t, c.ID)
	require.False(t, c.CreatedAt.IsZero())

	got, err := st.GetConsultation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, model.QueryModeCombined, got.Mode)
	assert.Equal(t, model.ConsultationComplete, got.Status)
	assert.Equal(t, int64(1200), got.DurationMs)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, c.Profile, got.Profile)
	require.Len(t, got.Result.Medications, 1)
	assert.Equal(t, "Tylenol", got.Result.Medications[0].Name)
	require.NotNil(t, got.Result.Medications[0].MedicationType)
	assert.Equal(t, "tablet", *got.Result.Medications[0].MedicationType)
	assert.Equal(t, []string{"Rest"}, got.Result.Management.ToDoList)
}

func TestSQLite_SaveUpsertsByID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := sampleConsultation(model.QueryModeMedications, model.ConsultationPartial, time.Now())
	require.NoError(t, st.SaveConsultation(ctx, c))

	c.Status = model.ConsultationFailed
	c.Error = "backend unavailable"
	require.NoError(t, st.SaveConsultation(ctx, c))

	got, err := st.GetConsultation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationFailed, got.Status)
	assert.Equal(t, "backend unavailable", got.Error)

	all, err := st.ListConsultations(ctx, ConsultationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLite_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetConsultation(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListFiltersAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.SaveConsultation(ctx, sampleConsultation(model.QueryModeCombined, model.ConsultationComplete, base)))
	require.NoError(t, st.SaveConsultation(ctx, sampleConsultation(model.QueryModeCombined, model.ConsultationPartial, base.Add(time.Hour))))
	require.NoError(t, st.SaveConsultation(ctx, sampleConsultation(model.QueryModeManagement, model.ConsultationComplete, base.Add(2*time.Hour))))

	all, err := st.ListConsultations(ctx, ConsultationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.QueryModeManagement, all[0].Mode, "newest first")
	assert.True(t, all[2].CreatedAt.Equal(base))

	combined, err := st.ListConsultations(ctx, ConsultationFilter{Mode: model.QueryModeCombined})
	require.NoError(t, err)
	assert.Len(t, combined, 2)

	partial, err := st.ListConsultations(ctx, ConsultationFilter{Status: model.ConsultationPartial})
	require.NoError(t, err)
	require.Len(t, partial, 1)
	assert.Equal(t, model.ConsultationPartial, partial[0].Status)

	recent, err := st.ListConsultations(ctx, ConsultationFilter{Since: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	page, err := st.ListConsultations(ctx, ConsultationFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, model.ConsultationPartial, page[0].Status)
}

func TestSQLite_ListEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)

	out, err := st.ListConsultations(context.Background(), ConsultationFilter{})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSQLite_DeleteOlderThan(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := sampleConsultation(model.QueryModeCombined, model.ConsultationComplete, now.Add(-48*time.Hour))
	fresh := sampleConsultation(model.QueryModeCombined, model.ConsultationComplete, now)
	require.NoError(t, st.SaveConsultation(ctx, old))
	require.NoError(t, st.SaveConsultation(ctx, fresh))

	n, err := st.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = st.GetConsultation(ctx, old.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = st.GetConsultation(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, DriverNone, "", nil)
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = Open(ctx, "", "", nil)
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "open.db"), nil)
	require.NoError(t, err)
	require.NotNil(t, st)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	_, err = st.ListConsultations(ctx, ConsultationFilter{})
	assert.NoError(t, err, "migrations ran")

	_, err = Open(ctx, "mysql", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
