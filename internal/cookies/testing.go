package cookies

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRepositoryTests runs the standard repository test suite against any
// Repository implementation.
func RunRepositoryTests(t *testing.T, newRepo func() (Repository, func())) {
	t.Run("Set", func(t *testing.T) {
		runSetTests(t, newRepo)
	})
	t.Run("List", func(t *testing.T) {
		runListTests(t, newRepo)
	})
	t.Run("Delete", func(t *testing.T) {
		runDeleteTests(t, newRepo)
	})
	t.Run("Sync", func(t *testing.T) {
		runSyncTests(t, newRepo)
	})
	t.Run("Close", func(t *testing.T) {
		runCloseTests(t, newRepo)
	})
}

func runSetTests(t *testing.T, newRepo func() (Repository, func())) {
	ctx := context.Background()

	t.Run("stores and retrieves attributes", func(t *testing.T) {
		repo, cleanup := newRepo()
		defer cleanup()

		expires := time.Now().Add(time.Hour).Truncate(time.Second)
		c := &Cookie{
			Name:   "session",
			Value:  "abc",
			Domain: "example.com",
			Path:   "/app",
			Attributes: Attributes{
				Secure:   true,
				HttpOnly: true,
				HostOnly: true,
				SameSite: "lax",
				Expires:  expires,
				Extra:    map[string]string{"Priority": "High"},
			},
		}
		require.NoError(t, repo.Set(ctx, c))
		assert.NotEmpty(t, c.ID)

		got, err := repo.Get(ctx, "example.com", "/app", "session")
		require.NoError(t, err)
		assert.Equal(t, "abc", got.Value)
		assert.True(t, got.Attributes.Secure)
		assert.True(t, got.Attributes.HttpOnly)
		assert.True(t, got.Attributes.HostOnly)
		assert.Equal(t, "lax", got.Attributes.SameSite)
		assert.True(t, expires.Equal(got.Attributes.Expires))
		assert.Equal(t, map[string]string{"Priority": "High"}, got.Attributes.Extra)
	})

	t.Run("same key replaces and keeps identity", func(t *testing.T) {
		repo, cleanup := newRepo()
		defer cleanup()

		first := &Cookie{Name: "a", Value: "1", Domain: "example.com", Path: "/"}
		require.NoError(t, repo.Set(ctx, first))
		require.NoError(t, repo.Set(ctx, &Cookie{Name: "b", Value: "2", Domain: "example.com", Path: "/"}))

		second := &Cookie{Name: "a", Value: "updated", Domain: "example.com", Path: "/"}
		require.NoError(t, repo.Set(ctx, second))
		assert.Equal(t, first.ID, second.ID)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		list, err := repo.List(ctx, QueryOptions{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].Name)
		assert.Equal(t, "updated", list[0].Value)
	})

	t.Run("empty domain is a key of its own", func(t *testing.T) {
		repo, cleanup := newRepo()
		defer cleanup()

		require.NoError(t, repo.Set(ctx, &Cookie{Name: "n", Value: "any", Path: "/"}))
		require.NoError(t, repo.Set(ctx, &Cookie{Name: "n", Value: "scoped", Domain: "example.com", Path: "/"}))

		got, err := repo.Get(ctx, "", "/", "n")
		require.NoError(t, err)
		assert.Equal(t, "any", got.Value)
	})

	t.Run("missing cookie", func(t *testing.T) {
		repo, cleanup := newRepo()
		defer cleanup()

		_, err := repo.Get(ctx, "example.com", "/", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func runListTests(t *testing.T, newRepo func() (Repository, func())) {
	ctx := context.Background()

	seed := func(t *testing.T, repo Repository) {
		t.Helper()
		for _, c := range []*Cookie{
			{Name: "a", Value: "1", Domain: "one.com", Path: "/"},
			{Name: "b", Value: "2", Domain: "two.com", Path: "/"},
			{Name: "c", Value: "3", Domain: "one.com", Path: "/x"},
			{Name: "old", Value: "4", Domain: "one.com", Path: "/",
				Attributes: Attributes{Expires: time.Now().Add(-time.Hour)}},
		} {
			require.NoError(t, repo.Set(ctx, c))
		}
	}

	names := func(list []*Cookie) []string {
		out := make([]string, 0, len(list))
		for _, c := range list {
			out = append(out, c.Name)
		}
		return out
	}

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{"insertion order without expired", QueryOptions{}, []string{"a", "b", "c"}},
		{"include expired", QueryOptions{IncludeExpired: true}, []string{"a", "b", "c", "old"}},
		{"by domain", QueryOptions{Domain: "one.com"}, []string{"a", "c"}},
		{"by path", QueryOptions{Path: "/x"}, []string{"c"}},
		{"by name", QueryOptions{Name: "b"}, []string{"b"}},
		{"limit", QueryOptions{Limit: 2}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, cleanup := newRepo()
			defer cleanup()
			seed(t, repo)

			list, err := repo.List(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(list))
		})
	}
}

func runDeleteTests(t *testing.T, newRepo func() (Repository, func())) {
	ctx := context.Background()

	t.Run("delete, by domain, expired and clear", func(t *testing.T) {
		repo, cleanup := newRepo()
		defer cleanup()

		for _, c := range []*Cookie{
			{Name: "a", Value: "1", Domain: "one.com", Path: "/"},
			{Name: "b", Value: "2", Domain: "one.com", Path: "/"},
			{Name: "c", Value: "3", Domain: "two.com", Path: "/"},
			{Name: "d", Value: "4", Domain: "two.com", Path: "/"},
			{Name: "old", Value: "5", Domain: "two.com", Path: "/x",
				Attributes: Attributes{Expires: time.Now().Add(-time.Minute)}},
		} {
			require.NoError(t, repo.Set(ctx, c))
		}

		require.NoError(t, repo.Delete(ctx, "one.com", "/", "a"))
		_, err := repo.Get(ctx, "one.com", "/", "a")
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting a missing cookie is not an error.
		require.NoError(t, repo.Delete(ctx, "one.com", "/", "a"))

		require.NoError(t, repo.DeleteByDomain(ctx, "one.com"))
		removed, err := repo.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		require.NoError(t, repo.Clear(ctx))
		count, err = repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func runSyncTests(t *testing.T, newRepo func() (Repository, func())) {
	ctx := context.Background()

	t.Run("save and load round trip a jar", func(t *testing.T) {
		repo, cleanup := newRepo()
		defer cleanup()

		jar := New()
		jar.Set("a", "1")
		jar.Set("a", "2", WithDomain("example.com"))
		jar.Set("b", "3", WithDomain("example.com"), WithPath("/api"))
		require.NoError(t, Save(ctx, repo, jar))

		loaded, err := Load(ctx, repo, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "a", "b"}, loaded.Names())

		_, _, err = loaded.Get("a")
		assert.ErrorIs(t, err, ErrCookieConflict)

		loaded.Delete("a", WithDomain(""))
		require.NoError(t, Save(ctx, repo, loaded))

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func runCloseTests(t *testing.T, newRepo func() (Repository, func())) {
	t.Run("operations fail after close", func(t *testing.T) {
		repo, cleanup := newRepo()
		defer cleanup()

		require.NoError(t, repo.Close())

		_, err := repo.List(context.Background(), QueryOptions{})
		assert.ErrorIs(t, err, ErrStoreClosed)
		assert.ErrorIs(t, repo.Set(context.Background(), &Cookie{Name: "a", Path: "/"}), ErrStoreClosed)
	})
}
