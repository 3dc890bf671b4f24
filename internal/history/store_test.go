package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/gradecalc/internal/grading"
	"github.com/mind-engage/gradecalc/internal/history"
	"github.com/mind-engage/gradecalc/internal/storage"
)

/* ---------------- fake KV with failure injection ---------------- */

type flakyKV struct {
	*storage.MemoryKV
	failGet, failSet, failRemove error
	sets                         int
}

func newFlakyKV() *flakyKV { return &flakyKV{MemoryKV: storage.NewMemoryKV()} }

func (f *flakyKV) Get(ctx context.Context, key string) (string, error) {
	if f.failGet != nil {
		return "", f.failGet
	}
	return f.MemoryKV.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	f.sets++
	if f.failSet != nil {
		return f.failSet
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func (f *flakyKV) Remove(ctx context.Context, key string) error {
	if f.failRemove != nil {
		return f.failRemove
	}
	return f.MemoryKV.Remove(ctx, key)
}

var errQuota = errors.New("quota exceeded")

func entry(id string, earned, total float64) grading.Entry {
	pct := grading.Percentage(earned, total)
	l := grading.LetterFor(pct)
	return grading.Entry{
		ID: id, Earned: earned, Total: total, Percentage: pct,
		LetterGrade: l, Message: grading.MessageFor(l), Date: "10/17/2026, 3:04:05 PM",
	}
}

func ids(es []grading.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

/* ---------------- tests ---------------- */

func TestAppend_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := history.New(storage.NewMemoryKV())
	require.NoError(t, s.Load(ctx))

	for _, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, s.Append(ctx, entry(id, 8, 10)))
	}
	assert.Equal(t, []string{"e3", "e2", "e1"}, ids(s.Entries()))
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := history.New(kv)
	require.NoError(t, s.Append(ctx, entry("a", 1, 3)))
	require.NoError(t, s.Append(ctx, entry("b", 97, 100)))
	require.NoError(t, s.Append(ctx, entry("c", 0, 5)))

	fresh := history.New(kv)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, s.Entries(), fresh.Entries())
}

func TestPersistedLayout(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := history.New(kv)
	require.NoError(t, s.Append(ctx, entry("x", 4, 10)))

	raw, err := kv.Get(ctx, history.DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"x","earned":4,"total":10,"percentage":40,"letterGrade":"F",
		"message":"Make sure you are studying 📚","date":"10/17/2026, 3:04:05 PM"}]`, raw)
}

func TestLoad_MissingOrMalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, blob := range map[string]string{
		"garbage":    "{not json",
		"object":     `{"id":"a"}`,
		"wrong type": `[1,2,3]`,
	} {
		t.Run(name, func(t *testing.T) {
			kv := storage.NewMemoryKV()
			require.NoError(t, kv.Set(ctx, history.DefaultKey, blob))
			s := history.New(kv)
			require.NoError(t, s.Load(ctx))
			assert.Equal(t, 0, s.Len())
		})
	}

	s := history.New(storage.NewMemoryKV())
	require.NoError(t, s.Load(ctx))
	assert.Empty(t, s.Entries())
}

func TestLoad_ReadFailureReportsAndEmpties(t *testing.T) {
	kv := newFlakyKV()
	kv.failGet = errQuota
	s := history.New(kv)

	err := s.Load(context.Background())
	var pe *history.PersistError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "load", pe.Op)
	assert.ErrorIs(t, err, errQuota)
	assert.Equal(t, 0, s.Len())
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	s := history.New(kv)
	require.NoError(t, s.Append(ctx, entry("a", 1, 2)))
	require.NoError(t, s.Append(ctx, entry("b", 1, 2)))
	require.NoError(t, s.Append(ctx, entry("c", 1, 2)))

	removed, err := s.Remove(ctx, "b")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"c", "a"}, ids(s.Entries()))

	fresh := history.New(kv)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, []string{"c", "a"}, ids(fresh.Entries()))
}

func TestRemove_UnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	s := history.New(kv)
	require.NoError(t, s.Append(ctx, entry("a", 1, 2)))
	before := kv.sets

	removed, err := s.Remove(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []string{"a"}, ids(s.Entries()))
	assert.Equal(t, before, kv.sets, "no write expected")
}

func TestClear_ThenFreshLoadIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := history.New(kv)
	require.NoError(t, s.Append(ctx, entry("a", 1, 2)))
	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Len())

	_, err := kv.Get(ctx, history.DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	fresh := history.New(kv)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, 0, fresh.Len())
}

func TestWriteFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	s := history.New(kv)
	require.NoError(t, s.Append(ctx, entry("a", 1, 2)))
	require.NoError(t, s.Append(ctx, entry("b", 1, 2)))

	kv.failSet = errQuota
	kv.failRemove = errQuota

	err := s.Append(ctx, entry("c", 1, 2))
	var pe *history.PersistError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "append", pe.Op)
	assert.Equal(t, []string{"b", "a"}, ids(s.Entries()))

	removed, err := s.Remove(ctx, "a")
	assert.False(t, removed)
	assert.ErrorIs(t, err, errQuota)
	assert.Equal(t, []string{"b", "a"}, ids(s.Entries()))

	assert.ErrorIs(t, s.Clear(ctx), errQuota)
	assert.Equal(t, []string{"b", "a"}, ids(s.Entries()))

	// memory and storage still agree
	kv.failSet, kv.failRemove = nil, nil
	fresh := history.New(kv)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, s.Entries(), fresh.Entries())
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := history.New(kv, history.WithKey("alt"))
	require.NoError(t, s.Append(ctx, entry("a", 1, 2)))

	_, err := kv.Get(ctx, "alt")
	assert.NoError(t, err)
	_, err = kv.Get(ctx, history.DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", got.ID)
}

func TestEntriesIsACopy(t *testing.T) {
	ctx := context.Background()
	s := history.New(storage.NewMemoryKV())
	require.NoError(t, s.Append(ctx, entry("a", 1, 2)))
	es := s.Entries()
	es[0].ID = "mutated"
	assert.Equal(t, "a", s.Entries()[0].ID)
}

func TestFailedLoadNeverOverwritesPersistedHistory(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	seed := history.New(kv)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, seed.Append(ctx, entry(id, 1, 2)))
	}

	s := history.New(kv)
	kv.failGet = errQuota
	require.Error(t, s.Load(ctx))
	assert.False(t, s.Loaded())

	// still unreadable: the write is refused and storage is untouched
	sets := kv.sets
	err := s.Append(ctx, entry("d", 1, 2))
	var pe *history.PersistError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "append", pe.Op)
	assert.Equal(t, sets, kv.sets)
	_, err = s.Remove(ctx, "a")
	assert.ErrorIs(t, err, errQuota)
	assert.Equal(t, 0, s.Len())

	// storage recovers: the next write reloads first and keeps the old entries
	kv.failGet = nil
	require.NoError(t, s.Append(ctx, entry("d", 1, 2)))
	assert.True(t, s.Loaded())
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids(s.Entries()))

	fresh := history.New(kv)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids(fresh.Entries()))
}
