package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/artpar/impit/internal/cookies"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const cookieFileVersion = 1

// cookieFile is the on-disk layout of a cookie store.
type cookieFile struct {
	Version int              `yaml:"version"`
	Cookies []cookies.Cookie `yaml:"cookies"`
}

// CookieStore persists cookies to a single YAML file. Every operation
// reads the file and mutations rewrite it through a temporary file.
type CookieStore struct {
	mu     sync.Mutex
	path   string
	closed bool
}

var _ cookies.Repository = (*CookieStore)(nil)

// NewCookieStore creates a YAML-backed cookie store at path. The file is
// created on first write.
func NewCookieStore(path string) (*CookieStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cookie directory: %w", err)
	}

	return &CookieStore{path: path}, nil
}

// Path returns the file backing the store.
func (s *CookieStore) Path() string {
	return s.path
}

// Set stores or updates a cookie.
func (s *CookieStore) Set(ctx context.Context, cookie *cookies.Cookie) error {
	return s.update(func(list []cookies.Cookie) ([]cookies.Cookie, error) {
		now := time.Now()
		cookie.UpdatedAt = now

		if i := indexOf(list, cookie.Key()); i >= 0 {
			cookie.ID = list[i].ID
			cookie.CreatedAt = list[i].CreatedAt
			list[i] = cookie.Clone()
			return list, nil
		}

		if cookie.ID == "" {
			cookie.ID = uuid.New().String()
		}
		if cookie.CreatedAt.IsZero() {
			cookie.CreatedAt = now
		}
		return append(list, cookie.Clone()), nil
	})
}

// Get retrieves a cookie by domain, path, and name.
func (s *CookieStore) Get(ctx context.Context, domain, path, name string) (*cookies.Cookie, error) {
	list, err := s.read()
	if err != nil {
		return nil, err
	}

	i := indexOf(list, cookies.Key{Domain: domain, Path: path, Name: name})
	if i < 0 {
		return nil, cookies.ErrNotFound
	}
	c := list[i]
	return &c, nil
}

// List returns cookies matching the query options in file order.
func (s *CookieStore) List(ctx context.Context, opts cookies.QueryOptions) ([]*cookies.Cookie, error) {
	list, err := s.read()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var result []*cookies.Cookie
	for i := range list {
		c := &list[i]
		if opts.Domain != "" && c.Domain != opts.Domain {
			continue
		}
		if opts.Path != "" && c.Path != opts.Path {
			continue
		}
		if opts.Name != "" && c.Name != opts.Name {
			continue
		}
		if !opts.IncludeExpired && c.ExpiredAt(now) {
			continue
		}
		result = append(result, c)
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result, nil
}

// Delete removes a specific cookie.
func (s *CookieStore) Delete(ctx context.Context, domain, path, name string) error {
	k := cookies.Key{Domain: domain, Path: path, Name: name}
	return s.update(func(list []cookies.Cookie) ([]cookies.Cookie, error) {
		return slices.DeleteFunc(list, func(c cookies.Cookie) bool { return c.Key() == k }), nil
	})
}

// DeleteByDomain removes all cookies for a domain.
func (s *CookieStore) DeleteByDomain(ctx context.Context, domain string) error {
	return s.update(func(list []cookies.Cookie) ([]cookies.Cookie, error) {
		return slices.DeleteFunc(list, func(c cookies.Cookie) bool { return c.Domain == domain }), nil
	})
}

// DeleteExpired removes all expired cookies and returns count.
func (s *CookieStore) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	err := s.update(func(list []cookies.Cookie) ([]cookies.Cookie, error) {
		now := time.Now()
		before := len(list)
		list = slices.DeleteFunc(list, func(c cookies.Cookie) bool { return c.ExpiredAt(now) })
		removed = int64(before - len(list))
		return list, nil
	})
	return removed, err
}

// Clear removes all cookies.
func (s *CookieStore) Clear(ctx context.Context) error {
	return s.update(func([]cookies.Cookie) ([]cookies.Cookie, error) {
		return nil, nil
	})
}

// Count returns total number of cookies.
func (s *CookieStore) Count(ctx context.Context) (int64, error) {
	list, err := s.read()
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

// Close marks the store closed. The file is left in place.
func (s *CookieStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *CookieStore) read() ([]cookies.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}
	return s.load()
}

func (s *CookieStore) update(fn func([]cookies.Cookie) ([]cookies.Cookie, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	list, err := s.load()
	if err != nil {
		return err
	}
	list, err = fn(list)
	if err != nil {
		return err
	}
	return s.write(list)
}

func (s *CookieStore) load() ([]cookies.Cookie, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	var data cookieFile
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("failed to parse cookie file: %w", err)
	}
	if data.Version > cookieFileVersion {
		return nil, fmt.Errorf("unsupported cookie file version %d", data.Version)
	}
	return data.Cookies, nil
}

func (s *CookieStore) write(list []cookies.Cookie) error {
	content, err := yaml.Marshal(cookieFile{Version: cookieFileVersion, Cookies: list})
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cookies-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace cookie file: %w", err)
	}
	return nil
}

func indexOf(list []cookies.Cookie, k cookies.Key) int {
	return slices.IndexFunc(list, func(c cookies.Cookie) bool { return c.Key() == k })
}
