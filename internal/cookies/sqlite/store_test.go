package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/impit/internal/cookies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetAndGet(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	cookie := &cookies.Cookie{
		Domain: "example.com",
		Path:   "/",
		Name:   "session",
		Value:  "abc123",
		Attributes: cookies.Attributes{
			Secure:   true,
			HttpOnly: true,
			SameSite: "Strict",
			Expires:  time.Now().Add(24 * time.Hour),
			Extra:    map[string]string{"Priority": "High"},
		},
	}

	// Set cookie
	err = store.Set(ctx, cookie)
	require.NoError(t, err)
	assert.NotEmpty(t, cookie.ID)

	// Get cookie
	got, err := store.Get(ctx, "example.com", "/", "session")
	require.NoError(t, err)
	assert.Equal(t, "session", got.Name)
	assert.Equal(t, "abc123", got.Value)
	assert.True(t, got.Attributes.Secure)
	assert.True(t, got.Attributes.HttpOnly)
	assert.Equal(t, "Strict", got.Attributes.SameSite)
	assert.Equal(t, "High", got.Attributes.Extra["Priority"])
	assert.False(t, got.Attributes.Expires.IsZero())
}

func TestStore_SetUpdates(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Set initial cookie
	cookie := &cookies.Cookie{
		Domain: "example.com",
		Path:   "/",
		Name:   "test",
		Value:  "initial",
	}
	err = store.Set(ctx, cookie)
	require.NoError(t, err)

	// Update with same domain/path/name
	cookie2 := &cookies.Cookie{
		Domain: "example.com",
		Path:   "/",
		Name:   "test",
		Value:  "updated",
	}
	err = store.Set(ctx, cookie2)
	require.NoError(t, err)

	// Should have updated value
	got, err := store.Get(ctx, "example.com", "/", "test")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Value)

	// Should only have one cookie
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_List(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Add cookies
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Name: "c1", Value: "v1"}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "a.com", Path: "/api", Name: "c2", Value: "v2"}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "b.com", Path: "/", Name: "c3", Value: "v3"}))

	// List all
	all, err := store.List(ctx, cookies.QueryOptions{IncludeExpired: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// List by domain
	aCookies, err := store.List(ctx, cookies.QueryOptions{Domain: "a.com", IncludeExpired: true})
	require.NoError(t, err)
	assert.Len(t, aCookies, 2)

	// List by domain and path
	apiCookies, err := store.List(ctx, cookies.QueryOptions{Domain: "a.com", Path: "/api", IncludeExpired: true})
	require.NoError(t, err)
	assert.Len(t, apiCookies, 1)

	// List with limit
	limited, err := store.List(ctx, cookies.QueryOptions{Limit: 2, IncludeExpired: true})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_ListExcludesExpired(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Add expired and valid cookies
	require.NoError(t, store.Set(ctx, &cookies.Cookie{
		Domain: "test.com", Path: "/", Name: "valid", Value: "v1",
		Attributes: cookies.Attributes{Expires: time.Now().Add(1 * time.Hour)},
	}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{
		Domain: "test.com", Path: "/", Name: "expired", Value: "v2",
		Attributes: cookies.Attributes{Expires: time.Now().Add(-1 * time.Hour)},
	}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{
		Domain: "test.com", Path: "/", Name: "session", Value: "v3",
		// No expiry - session cookie
	}))

	// List without expired should return 2
	valid, err := store.List(ctx, cookies.QueryOptions{IncludeExpired: false})
	require.NoError(t, err)
	assert.Len(t, valid, 2)

	// List with expired should return 3
	all, err := store.List(ctx, cookies.QueryOptions{IncludeExpired: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_ExpiryIgnoresLocalZone(t *testing.T) {
	orig := time.Local
	time.Local = time.FixedZone("JST", 9*3600)
	defer func() { time.Local = orig }()

	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Servers send Expires in GMT; net/http parses it as UTC.
	require.NoError(t, store.Set(ctx, &cookies.Cookie{
		Domain: "test.com", Path: "/", Name: "utc", Value: "v1",
		Attributes: cookies.Attributes{Expires: time.Now().UTC().Add(time.Hour)},
	}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{
		Domain: "test.com", Path: "/", Name: "local", Value: "v2",
		Attributes: cookies.Attributes{Expires: time.Now().Add(time.Hour)},
	}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{
		Domain: "test.com", Path: "/", Name: "gone", Value: "v3",
		Attributes: cookies.Attributes{Expires: time.Now().UTC().Add(-time.Minute)},
	}))

	live, err := store.List(ctx, cookies.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "utc", live[0].Name)
	assert.Equal(t, "local", live[1].Name)

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	jar, err := cookies.Load(ctx, store, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"utc", "local"}, jar.Names())
}

func TestStore_Delete(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Add cookie
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "test.com", Path: "/", Name: "c1", Value: "v1"}))

	// Delete it
	err = store.Delete(ctx, "test.com", "/", "c1")
	require.NoError(t, err)

	// Should not exist
	_, err = store.Get(ctx, "test.com", "/", "c1")
	assert.ErrorIs(t, err, cookies.ErrNotFound)
}

func TestStore_DeleteByDomain(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Add cookies
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Name: "c1", Value: "v1"}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "a.com", Path: "/api", Name: "c2", Value: "v2"}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "b.com", Path: "/", Name: "c3", Value: "v3"}))

	// Delete domain
	err = store.DeleteByDomain(ctx, "a.com")
	require.NoError(t, err)

	// Check counts
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// b.com cookie should remain
	got, err := store.Get(ctx, "b.com", "/", "c3")
	require.NoError(t, err)
	assert.Equal(t, "v3", got.Value)
}

func TestStore_DeleteExpired(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Add cookies
	require.NoError(t, store.Set(ctx, &cookies.Cookie{
		Domain: "test.com", Path: "/", Name: "valid", Value: "v1",
		Attributes: cookies.Attributes{Expires: time.Now().Add(1 * time.Hour)},
	}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{
		Domain: "test.com", Path: "/", Name: "expired1", Value: "v2",
		Attributes: cookies.Attributes{Expires: time.Now().Add(-1 * time.Hour)},
	}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{
		Domain: "test.com", Path: "/", Name: "expired2", Value: "v3",
		Attributes: cookies.Attributes{Expires: time.Now().Add(-2 * time.Hour)},
	}))

	// Delete expired
	deleted, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	// Should have 1 remaining
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_Clear(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Add cookies
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Name: "c1", Value: "v1"}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "b.com", Path: "/", Name: "c2", Value: "v2"}))

	// Clear
	err = store.Clear(ctx)
	require.NoError(t, err)

	// Should be empty
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStore_Count(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Initially empty
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Add cookies
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Name: "c1", Value: "v1"}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "b.com", Path: "/", Name: "c2", Value: "v2"}))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestStore_ClosedStore(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)

	// Close the store
	err = store.Close()
	require.NoError(t, err)

	ctx := context.Background()

	// All operations should return ErrStoreClosed
	_, err = store.Get(ctx, "test.com", "/", "test")
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	err = store.Set(ctx, &cookies.Cookie{Domain: "test.com", Path: "/", Name: "test", Value: "v"})
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	_, err = store.List(ctx, cookies.QueryOptions{})
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	err = store.Delete(ctx, "test.com", "/", "test")
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	err = store.DeleteByDomain(ctx, "test.com")
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	_, err = store.DeleteExpired(ctx)
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	err = store.Clear(ctx)
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)

	_, err = store.Count(ctx)
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)
}

func TestStore_GetNotFound(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	_, err = store.Get(ctx, "nonexistent.com", "/", "missing")
	assert.ErrorIs(t, err, cookies.ErrNotFound)
}

func TestStore_ListByName(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Add cookies with same name on different domains
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Name: "session", Value: "a"}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "b.com", Path: "/", Name: "session", Value: "b"}))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "c.com", Path: "/", Name: "other", Value: "c"}))

	// List by name
	sessionCookies, err := store.List(ctx, cookies.QueryOptions{Name: "session", IncludeExpired: true})
	require.NoError(t, err)
	assert.Len(t, sessionCookies, 2)
}

func TestHelperFunctions(t *testing.T) {
	// Test boolToInt
	assert.Equal(t, 1, boolToInt(true))
	assert.Equal(t, 0, boolToInt(false))

	// Test nullTime
	now := time.Now()
	assert.Equal(t, now.UTC(), nullTime(now))
	assert.Nil(t, nullTime(time.Time{}))
}

func TestStore_NewWithFilePath(t *testing.T) {
	// Create temp directory
	dbPath := filepath.Join(t.TempDir(), "cookies.db")

	// Create store with file path
	store, err := New(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Set a cookie
	err = store.Set(ctx, &cookies.Cookie{
		Domain: "test.com",
		Path:   "/",
		Name:   "session",
		Value:  "abc123",
	})
	require.NoError(t, err)

	// Close and reopen to verify persistence
	store.Close()

	store2, err := New(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	// Cookie should persist
	got, err := store2.Get(ctx, "test.com", "/", "session")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.Value)
}

func TestStore_SetKeepsIdentityAndOrder(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	first := &cookies.Cookie{Domain: "a.com", Path: "/", Name: "first", Value: "1"}
	require.NoError(t, store.Set(ctx, first))
	require.NoError(t, store.Set(ctx, &cookies.Cookie{Domain: "a.com", Path: "/", Name: "second", Value: "2"}))

	update := &cookies.Cookie{Domain: "a.com", Path: "/", Name: "first", Value: "updated"}
	require.NoError(t, store.Set(ctx, update))

	// update adopts the stored identity
	assert.Equal(t, first.ID, update.ID)
	assert.WithinDuration(t, first.CreatedAt, update.CreatedAt, time.Millisecond)

	all, err := store.List(ctx, cookies.QueryOptions{IncludeExpired: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Name)
	assert.Equal(t, "updated", all[0].Value)
	assert.Equal(t, "second", all[1].Name)
}

func TestStore_LoadAndSaveJar(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	jar := cookies.New()
	jar.Set("session", "abc", cookies.WithDomain("example.com"))
	jar.Set("session", "xyz", cookies.WithDomain("other.com"))
	jar.Set("theme", "dark")
	require.NoError(t, cookies.Save(ctx, store, jar))

	loaded, err := cookies.Load(ctx, store, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"session", "session", "theme"}, loaded.Names())

	_, err = loaded.Lookup("session")
	assert.ErrorIs(t, err, cookies.ErrCookieConflict)

	loaded.Delete("session", cookies.WithDomain("other.com"))
	require.NoError(t, cookies.Save(ctx, store, loaded))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = store.Get(ctx, "other.com", "/", "session")
	assert.ErrorIs(t, err, cookies.ErrNotFound)
}

func TestStore_Repository(t *testing.T) {
	cookies.RunRepositoryTests(t, func() (cookies.Repository, func()) {
		store, err := NewInMemory()
		require.NoError(t, err)
		return store, func() { store.Close() }
	})
}
