package repository_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authenticator/pkg/cryptography"
	"github.com/dmitrymomot/authenticator/pkg/feature"
	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/repository"
	"github.com/dmitrymomot/authenticator/pkg/secrets"
	"github.com/dmitrymomot/authenticator/pkg/shared"
)

const (
	validKey   = "JBSWY3DPEHPK3PXP"
	invalidKey = "not a key!"
)

var epoch = time.Unix(1_700_000_010, 0)

type reports struct {
	mu   sync.Mutex
	errs []error
}

func (r *reports) Report(_ context.Context, err error, _ ...slog.Attr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *reports) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

type fixture struct {
	repo     *repository.Repository
	store    *item.MemoryStore
	crypto   cryptography.Service
	shared   *shared.MemorySource
	reports  *reports
	clock    *clock
	syncFlag *feature.MemoryProvider
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T, syncFlag bool) *fixture {
	t.Helper()

	flags, err := feature.NewMemoryProvider("", feature.Flag{
		Name:    feature.FlagPasswordManagerSync,
		Enabled: syncFlag,
	})
	require.NoError(t, err)

	f := &fixture{
		store:    item.NewMemoryStore(),
		crypto:   cryptography.NewService(secrets.NewKeyProvider(secrets.NewMemoryKeyStore())),
		shared:   shared.NewMemorySource(),
		reports:  &reports{},
		clock:    &clock{now: epoch},
		syncFlag: flags,
	}
	t.Cleanup(func() {
		_ = f.store.Close()
		_ = f.shared.Close()
	})

	f.repo = repository.New(f.store, f.crypto,
		repository.WithClock(f.clock.Now),
		repository.WithErrorReporter(f.reports),
		repository.WithSharedSource(f.shared),
		repository.WithFeatureFlags(flags),
		repository.WithLogger(logger.Discard()),
	)
	return f
}

func view(id, name string, favorite bool) item.View {
	return item.View{ID: id, Name: name, Favorite: favorite, TOTPKey: item.Ptr(validKey)}
}

// await reads from ch until match accepts a value.
func await[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "stream closed")
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for a matching emission")
		}
	}
}

func sectionIDs(sections []item.ListSection) []string {
	ids := make([]string, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	return ids
}

func names(items []item.ListItem) []string {
	out := make([]string, len(items))
	for i, li := range items {
		out[i] = li.Name
	}
	return out
}

func TestRepositoryCRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	v := view("1", "GitHub", false)
	v.Username = item.Ptr("octocat")
	require.NoError(t, f.repo.Add(ctx, v))

	t.Run("stored fields are sealed", func(t *testing.T) {
		stored, err := f.store.Fetch(ctx, "1")
		require.NoError(t, err)
		assert.NotEqual(t, "GitHub", stored.Name)
		require.NotNil(t, stored.TOTPKey)
		assert.NotEqual(t, validKey, *stored.TOTPKey)
	})

	t.Run("fetch returns the view", func(t *testing.T) {
		got, err := f.repo.Fetch(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, v, got)
	})

	t.Run("duplicate add fails", func(t *testing.T) {
		assert.ErrorIs(t, f.repo.Add(ctx, v), item.ErrItemExists)
	})

	t.Run("empty id is rejected", func(t *testing.T) {
		assert.ErrorIs(t, f.repo.Add(ctx, view("", "x", false)), repository.ErrInvalidView)
	})

	t.Run("update replaces the item", func(t *testing.T) {
		updated := v
		updated.Name = "GitHub Enterprise"
		updated.Username = nil
		require.NoError(t, f.repo.Update(ctx, updated))

		got, err := f.repo.Fetch(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "GitHub Enterprise", got.Name)
		assert.Nil(t, got.Username)
	})

	t.Run("update of missing item fails", func(t *testing.T) {
		assert.ErrorIs(t, f.repo.Update(ctx, view("missing", "x", false)), item.ErrItemNotFound)
	})

	t.Run("fetch all", func(t *testing.T) {
		require.NoError(t, f.repo.Add(ctx, view("2", "GitLab", true)))
		all, err := f.repo.FetchAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.repo.Delete(ctx, "1"))
		_, err := f.repo.Fetch(ctx, "1")
		assert.ErrorIs(t, err, item.ErrItemNotFound)
		assert.ErrorIs(t, f.repo.Delete(ctx, "1"), item.ErrItemNotFound)
	})
}

type failingCrypto struct {
	cryptography.Service
	err error
}

func (c failingCrypto) Encrypt(context.Context, item.View) (item.Item, error) {
	return item.Item{}, c.err
}

func TestRepositoryAddSurfacesEncryptionFailure(t *testing.T) {
	t.Parallel()
	store := item.NewMemoryStore()
	defer store.Close()

	cause := errors.Join(cryptography.ErrUnableToEncryptRequiredField, errors.New("boom"))
	repo := repository.New(store, failingCrypto{err: cause})

	err := repo.Add(context.Background(), view("1", "x", false))
	assert.Same(t, cause, err)

	all, err := store.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRepositoryFetchAllIsAllOrNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.repo.Add(ctx, view("1", "Good", false)))
	require.NoError(t, f.store.Add(ctx, item.Item{ID: "2", Name: "garbage"}))

	all, err := f.repo.FetchAll(ctx)
	assert.ErrorIs(t, err, cryptography.ErrUnableToReadEncryptedData)
	assert.Nil(t, all)
}

func TestItemListWithoutSync(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, false)

	require.NoError(t, f.repo.Add(ctx, view("b", "B", false)))
	require.NoError(t, f.repo.Add(ctx, view("a", "A", true)))
	require.NoError(t, f.shared.SetItems([]shared.Item{
		{ID: "s", Name: "Shared", TOTPKey: item.Ptr(validKey), AccountID: "user@example.com"},
	}))
	require.NoError(t, f.shared.SetSyncEnabled(true))

	res := await(t, f.repo.ItemList(ctx), func(r repository.ListResult) bool {
		return r.Err == nil && len(item.AllItems(r.Sections)) == 2
	})

	require.Len(t, res.Sections, 2)
	assert.Equal(t, item.SectionFavorites, res.Sections[0].ID)
	assert.Equal(t, item.FavoritesName, res.Sections[0].Name)
	assert.Equal(t, []string{"A"}, names(res.Sections[0].Items))
	assert.Equal(t, item.SectionUnorganized, res.Sections[1].ID)
	assert.Empty(t, res.Sections[1].Name)
	assert.Equal(t, []string{"B"}, names(res.Sections[1].Items))
}

func TestItemListWithSync(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, true)

	require.NoError(t, f.repo.Add(ctx, view("fav", "Local favorite", true)))
	require.NoError(t, f.repo.Add(ctx, view("loc", "Local", false)))
	require.NoError(t, f.shared.SetItems([]shared.Item{
		{ID: "z1", Name: "Zeta", TOTPKey: item.Ptr(validKey), AccountID: "zed@example.com", Username: item.Ptr("zed")},
		{ID: "a2", Name: "beta", TOTPKey: item.Ptr(validKey), AccountID: "amy@example.com"},
		{ID: "a1", Name: "Alpha", TOTPKey: item.Ptr(validKey), AccountID: "amy@example.com"},
		{ID: "sf", Name: "Shared favorite", TOTPKey: item.Ptr(validKey), AccountID: "amy@example.com", Favorite: true},
	}))

	t.Run("sync off at the source keeps the plain layout", func(t *testing.T) {
		res := await(t, f.repo.ItemList(ctx), func(r repository.ListResult) bool {
			return r.Err == nil && len(item.AllItems(r.Sections)) == 2
		})
		assert.Equal(t, []string{item.SectionFavorites, item.SectionUnorganized}, sectionIDs(res.Sections))
	})

	require.NoError(t, f.shared.SetSyncEnabled(true))

	res := await(t, f.repo.ItemList(ctx), func(r repository.ListResult) bool {
		return r.Err == nil && len(r.Sections) == 4
	})

	assert.Equal(t, []string{
		item.SectionFavorites,
		item.SectionLocalCodes,
		item.SyncedSectionID("amy@example.com"),
		item.SyncedSectionID("zed@example.com"),
	}, sectionIDs(res.Sections))

	assert.Equal(t, []string{"Local favorite", "Shared favorite"}, names(res.Sections[0].Items))
	assert.Equal(t, item.LocalCodesName, res.Sections[1].Name)
	assert.Equal(t, []string{"Local"}, names(res.Sections[1].Items))
	assert.Equal(t, "amy@example.com", res.Sections[2].Name)
	assert.Equal(t, []string{"Alpha", "beta"}, names(res.Sections[2].Items))
	assert.Equal(t, "zed", res.Sections[3].Items[0].AccountName)

	t.Run("empty sections are dropped", func(t *testing.T) {
		require.NoError(t, f.repo.Delete(ctx, "loc"))
		res := await(t, f.repo.ItemList(ctx), func(r repository.ListResult) bool {
			return r.Err == nil && len(r.Sections) == 3
		})
		assert.NotContains(t, sectionIDs(res.Sections), item.SectionLocalCodes)
	})
}

func TestItemListFollowsStoreChanges(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, false)

	list := f.repo.ItemList(ctx)
	first := await(t, list, func(repository.ListResult) bool { return true })
	require.NoError(t, first.Err)
	assert.Empty(t, first.Sections)

	require.NoError(t, f.repo.Add(ctx, view("1", "Café", false)))
	res := await(t, list, func(r repository.ListResult) bool { return len(r.Sections) == 1 })
	assert.Equal(t, []string{"Café"}, names(res.Sections[0].Items))

	t.Run("a corrupt item fails the emission", func(t *testing.T) {
		require.NoError(t, f.store.Add(ctx, item.Item{ID: "2", Name: "garbage"}))
		res := await(t, list, func(r repository.ListResult) bool { return r.Err != nil })
		assert.ErrorIs(t, res.Err, cryptography.ErrUnableToReadEncryptedData)
		assert.Nil(t, res.Sections)

		require.NoError(t, f.store.Delete(ctx, "2"))
		res = await(t, list, func(r repository.ListResult) bool { return r.Err == nil })
		assert.Len(t, res.Sections, 1)
	})
}

func TestItemListSkipsUnparseableKeys(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, false)

	bad := view("bad", "Broken", false)
	bad.TOTPKey = item.Ptr(invalidKey)
	noKey := view("nokey", "No key", false)
	noKey.TOTPKey = nil
	require.NoError(t, f.repo.Add(ctx, bad))
	require.NoError(t, f.repo.Add(ctx, noKey))
	require.NoError(t, f.repo.Add(ctx, view("ok", "Fine", false)))

	res := await(t, f.repo.ItemList(ctx), func(r repository.ListResult) bool {
		return r.Err == nil && len(item.AllItems(r.Sections)) == 1
	})
	assert.Equal(t, []string{"Fine"}, names(item.AllItems(res.Sections)))

	errs := f.reports.all()
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], repository.ErrUnableToGenerateCode)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, false)

	require.NoError(t, f.repo.Add(ctx, view("1", "Café", false)))
	require.NoError(t, f.repo.Add(ctx, view("2", "Bitwarden", true)))
	require.NoError(t, f.repo.Add(ctx, view("3", "cafeteria", false)))

	t.Run("fold match", func(t *testing.T) {
		res := await(t, f.repo.SearchStream(ctx, "  CAFE "), func(repository.SearchResult) bool { return true })
		require.NoError(t, res.Err)
		assert.Equal(t, []string{"Café", "cafeteria"}, names(res.Items))
	})

	t.Run("reruns on new queries and store changes", func(t *testing.T) {
		queries := make(chan string)
		results := f.repo.Search(ctx, queries)

		queries <- "bit"
		res := await(t, results, func(r repository.SearchResult) bool { return len(r.Items) == 1 })
		assert.Equal(t, "Bitwarden", res.Items[0].Name)

		queries <- "caf"
		res = await(t, results, func(r repository.SearchResult) bool { return len(r.Items) == 2 })
		assert.Equal(t, []string{"Café", "cafeteria"}, names(res.Items))

		require.NoError(t, f.repo.Delete(ctx, "3"))
		res = await(t, results, func(r repository.SearchResult) bool { return len(r.Items) == 1 })
		assert.Equal(t, "Café", res.Items[0].Name)
	})
}

func TestItemDetails(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, false)

	require.NoError(t, f.repo.Add(ctx, view("1", "GitHub", false)))
	details := f.repo.ItemDetails(ctx, "1")

	res := await(t, details, func(r repository.DetailsResult) bool { return r.View != nil })
	assert.Equal(t, "GitHub", res.View.Name)

	renamed := view("1", "GitHub Work", false)
	require.NoError(t, f.repo.Update(ctx, renamed))
	res = await(t, details, func(r repository.DetailsResult) bool {
		return r.View != nil && r.View.Name == "GitHub Work"
	})
	assert.Equal(t, renamed, *res.View)

	require.NoError(t, f.repo.Delete(ctx, "1"))
	res = await(t, details, func(r repository.DetailsResult) bool { return r.View == nil })
	assert.NoError(t, res.Err)
}

func TestItemListClosesWithContext(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	list := f.repo.ItemList(ctx)
	await(t, list, func(repository.ListResult) bool { return true })
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-list:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
