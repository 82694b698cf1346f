package schedules_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/2beens/skischeduler/internal/apperr"
	"github.com/2beens/skischeduler/internal/leaders"
	"github.com/2beens/skischeduler/internal/schedules"
	"github.com/2beens/skischeduler/internal/store"
	"github.com/2beens/skischeduler/internal/telemetry/metrics"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRepo(t *testing.T) (*schedules.Repo, *store.FileBackend) {
	t.Helper()
	backend, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return schedules.NewRepo(store.New(backend, 1, metrics.NewTestManager())), backend
}

func newEntry() schedules.Entry {
	return schedules.Entry{
		Warmup:       gofakeit.HipsterWord(),
		Exercise1:    "Snowplow",
		Exercise2:    "Hockey Stops",
		Exercise3:    "Pole Plant",
		MainActivity: "Slalom",
		Cooldown:     gofakeit.HipsterWord(),
		Leaders:      leaders.List{gofakeit.FirstName()},
	}
}

func readDocument(t *testing.T, backend *store.FileBackend) map[string]map[string]schedules.Entry {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(backend.Dir(), "schedules.json"))
	require.NoError(t, err)
	var doc map[string]map[string]schedules.Entry
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestRepo_PutGet(t *testing.T) {
	repo, backend := newTestRepo(t)
	ctx := context.Background()

	entry := newEntry()
	stored, err := repo.Put(ctx, "group1", "2025-07", entry)
	require.NoError(t, err)
	assert.Equal(t, entry, stored)

	// stored under the canonical, non padded key
	doc := readDocument(t, backend)
	require.Contains(t, doc, "group1")
	assert.Contains(t, doc["group1"], "2025-7")

	got, err := repo.Get(ctx, "group1", "2025-7")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	// replaced wholesale
	replacement := schedules.Entry{Exercises: []string{"Slalom", "Traverse"}}
	_, err = repo.Put(ctx, "group1", "2025-7", replacement)
	require.NoError(t, err)
	got, err = repo.Get(ctx, "group1", "2025-7")
	require.NoError(t, err)
	assert.Equal(t, []string{"Slalom", "Traverse"}, got.Exercises)
	assert.Empty(t, got.Warmup)
	assert.Equal(t, leaders.List{}, got.Leaders)
}

func TestRepo_Put_LeadersNormalization(t *testing.T) {
	repo, backend := newTestRepo(t)
	ctx := context.Background()

	for _, tc := range []struct {
		body string
		want leaders.List
	}{
		{`{"warmup": "Jog", "leaders": "Alice, Bob ,  "}`, leaders.List{"Alice", "Bob"}},
		{`{"warmup": "Jog", "leaders": ["Carol", " ", "Dave "]}`, leaders.List{"Carol", "Dave"}},
		{`{"warmup": "Jog"}`, leaders.List{}},
	} {
		var entry schedules.Entry
		require.NoError(t, json.Unmarshal([]byte(tc.body), &entry))

		stored, err := repo.Put(ctx, "group1", "2025-10", entry)
		require.NoError(t, err)
		assert.Equal(t, tc.want, stored.Leaders, tc.body)

		doc := readDocument(t, backend)
		assert.Equal(t, tc.want, doc["group1"]["2025-10"].Leaders, tc.body)
	}
}

func TestRepo_Get_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "group1", "2025-1")
	require.ErrorIs(t, err, schedules.ErrScheduleNotFound)

	_, err = repo.Put(ctx, "group1", "2025-1", newEntry())
	require.NoError(t, err)

	_, err = repo.Get(ctx, "group1", "2025-2")
	require.ErrorIs(t, err, schedules.ErrScheduleNotFound)
	_, err = repo.Get(ctx, "group2", "2025-1")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepo_InvalidKeys(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, tc := range []struct{ group, yearWeek string }{
		{"group1", "2025"},
		{"group1", "2025-0"},
		{"group1", "2025-54"},
		{"group1", "25-3"},
		{"group1", "2025-W3"},
		{" ", "2025-3"},
	} {
		_, err := repo.Get(ctx, tc.group, tc.yearWeek)
		assert.ErrorIs(t, err, apperr.ErrValidation, "%+v", tc)
		_, err = repo.Put(ctx, tc.group, tc.yearWeek, newEntry())
		assert.ErrorIs(t, err, apperr.ErrValidation, "%+v", tc)
		err = repo.Delete(ctx, tc.group, tc.yearWeek)
		assert.ErrorIs(t, err, apperr.ErrValidation, "%+v", tc)
	}
}

func TestRepo_Delete_BucketCleanup(t *testing.T) {
	repo, backend := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Put(ctx, "group1", "2025-1", newEntry())
	require.NoError(t, err)
	_, err = repo.Put(ctx, "group1", "2025-2", newEntry())
	require.NoError(t, err)
	_, err = repo.Put(ctx, "group2", "2025-1", newEntry())
	require.NoError(t, err)

	// non last entry, the group stays
	require.NoError(t, repo.Delete(ctx, "group1", "2025-1"))
	doc := readDocument(t, backend)
	require.Contains(t, doc, "group1")
	assert.Len(t, doc["group1"], 1)
	assert.Contains(t, doc["group1"], "2025-2")

	// last entry, the group is gone
	require.NoError(t, repo.Delete(ctx, "group1", "2025-2"))
	doc = readDocument(t, backend)
	assert.NotContains(t, doc, "group1")
	assert.Contains(t, doc, "group2")

	err = repo.Delete(ctx, "group1", "2025-2")
	require.ErrorIs(t, err, schedules.ErrScheduleNotFound)
	err = repo.Delete(ctx, "group2", "2025-9")
	require.ErrorIs(t, err, schedules.ErrScheduleNotFound)

	require.NoError(t, repo.Delete(ctx, "group2", "2025-01"))
	data, err := os.ReadFile(filepath.Join(backend.Dir(), "schedules.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestRepo_ListGroup(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	list, err := repo.ListGroup(ctx, "group1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, yw := range []string{"2025-10", "2024-52", "2025-9", "2025-1"} {
		_, err := repo.Put(ctx, "group1", yw, newEntry())
		require.NoError(t, err)
	}
	_, err = repo.Put(ctx, "group2", "2025-3", newEntry())
	require.NoError(t, err)

	list, err = repo.ListGroup(ctx, "group1")
	require.NoError(t, err)
	var keys []string
	for _, e := range list {
		keys = append(keys, e.YearWeek)
	}
	assert.Equal(t, []string{"2024-52", "2025-1", "2025-9", "2025-10"}, keys)

	data, err := json.Marshal(list[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"yearWeek":"2024-52"`)
	assert.Contains(t, string(data), `"exercise1":"Snowplow"`)
}

func TestRepo_Put_KeepsOtherEntriesAsStored(t *testing.T) {
	repo, backend := newTestRepo(t)
	ctx := context.Background()

	legacyEntry := `{"warm-up":"Jog","main-activity":"Race","leaders":["Ann"],"weather":{"snow":"powder"}}`
	require.NoError(t, backend.Write(ctx, store.Schedules.Name, []byte(`{"group2":{"2024-50":`+legacyEntry+`}}`)))

	_, err := repo.Put(ctx, "group1", "2025-3", newEntry())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(backend.Dir(), "schedules.json"))
	require.NoError(t, err)
	var doc schedules.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "group1")
	assert.JSONEq(t, legacyEntry, string(doc["group2"]["2024-50"]))

	// hyphenated slots of the first client are readable through the regular fields
	got, err := repo.Get(ctx, "group2", "2024-50")
	require.NoError(t, err)
	assert.Equal(t, "Jog", got.Warmup)
	assert.Equal(t, "Race", got.MainActivity)
	assert.Equal(t, leaders.List{"Ann"}, got.Leaders)
	assert.JSONEq(t, `{"snow":"powder"}`, string(got.Extra["weather"]))
}

func TestRepo_Put_KeepsUnknownFieldsOfEntry(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	var entry schedules.Entry
	require.NoError(t, json.Unmarshal([]byte(`{"warmup":"Jog","leaders":"Ann, Bo","notes":"bring wax"}`), &entry))
	_, err := repo.Put(ctx, "group1", "2025-3", entry)
	require.NoError(t, err)

	got, err := repo.Get(ctx, "group1", "2025-3")
	require.NoError(t, err)
	assert.Equal(t, "Jog", got.Warmup)
	assert.Equal(t, leaders.List{"Ann", "Bo"}, got.Leaders)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "bring wax", fields["notes"])
	assert.Equal(t, []any{"Ann", "Bo"}, fields["leaders"])
}
