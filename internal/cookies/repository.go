package cookies

import (
	"context"
	"fmt"
)

// Repository defines the interface for cookie persistence.
type Repository interface {
	// Set stores or updates a cookie.
	Set(ctx context.Context, cookie *Cookie) error

	// Get retrieves a cookie by domain, path, and name.
	Get(ctx context.Context, domain, path, name string) (*Cookie, error)

	// List returns cookies matching the query options, oldest first.
	List(ctx context.Context, opts QueryOptions) ([]*Cookie, error)

	// Delete removes a specific cookie.
	Delete(ctx context.Context, domain, path, name string) error

	// DeleteByDomain removes all cookies for a domain.
	DeleteByDomain(ctx context.Context, domain string) error

	// DeleteExpired removes all expired cookies and returns count.
	DeleteExpired(ctx context.Context) (int64, error)

	// Clear removes all cookies.
	Clear(ctx context.Context) error

	// Count returns total number of cookies.
	Count(ctx context.Context) (int64, error)

	// Close closes the repository.
	Close() error
}

// Load builds a jar from the cookies held by repo, in repository order.
// Expired cookies are skipped unless includeExpired is set.
func Load(ctx context.Context, repo Repository, includeExpired bool) (*Jar, error) {
	stored, err := repo.List(ctx, QueryOptions{IncludeExpired: includeExpired})
	if err != nil {
		return nil, fmt.Errorf("failed to list cookies: %w", err)
	}

	jar := New()
	for _, c := range stored {
		jar.SetCookie(*c)
	}
	return jar, nil
}

// Save makes repo hold exactly the cookies of jar. Cookies already in the
// repository keep their identity and creation time.
func Save(ctx context.Context, repo Repository, jar *Jar) error {
	existing, err := repo.List(ctx, QueryOptions{IncludeExpired: true})
	if err != nil {
		return fmt.Errorf("failed to list cookies: %w", err)
	}

	for _, c := range existing {
		if _, ok := jar.Store().Get(c.Key()); ok {
			continue
		}
		if err := repo.Delete(ctx, c.Domain, c.Path, c.Name); err != nil {
			return fmt.Errorf("failed to delete cookie %s: %w", c.Name, err)
		}
	}

	for _, c := range jar.Cookies() {
		if err := repo.Set(ctx, &c); err != nil {
			return fmt.Errorf("failed to save cookie %s: %w", c.Name, err)
		}
	}
	return nil
}
