package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/artpar/impit/internal/cookies"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store implements cookies.Repository using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

var _ cookies.Repository = (*Store)(nil)

// New creates a new SQLite-based cookie store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cookie database: %w", err)
	}

	return store, nil
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables and indexes.
func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS cookies (
			id TEXT PRIMARY KEY,
			domain TEXT NOT NULL,
			path TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			secure INTEGER NOT NULL DEFAULT 0,
			http_only INTEGER NOT NULL DEFAULT 0,
			host_only INTEGER NOT NULL DEFAULT 0,
			same_site TEXT,
			expires DATETIME,
			extra TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(domain, path, name)
		);

		CREATE INDEX IF NOT EXISTS idx_cookies_domain ON cookies(domain);
		CREATE INDEX IF NOT EXISTS idx_cookies_expires ON cookies(expires);
		CREATE INDEX IF NOT EXISTS idx_cookies_name ON cookies(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Set stores or updates a cookie. An update keeps the stored id, creation
// time and list position; cookie is refreshed with them.
func (s *Store) Set(ctx context.Context, cookie *cookies.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	if cookie.ID == "" {
		cookie.ID = uuid.New().String()
	}
	cookie.UpdatedAt = time.Now()
	if cookie.CreatedAt.IsZero() {
		cookie.CreatedAt = cookie.UpdatedAt
	}

	extra, err := encodeExtra(cookie.Attributes.Extra)
	if err != nil {
		return err
	}

	attrs := cookie.Attributes
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cookies
		(id, domain, path, name, value, secure, http_only, host_only, same_site, expires, extra, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain, path, name) DO UPDATE SET
			value = excluded.value,
			secure = excluded.secure,
			http_only = excluded.http_only,
			host_only = excluded.host_only,
			same_site = excluded.same_site,
			expires = excluded.expires,
			extra = excluded.extra,
			updated_at = excluded.updated_at
	`,
		cookie.ID, cookie.Domain, cookie.Path, cookie.Name, cookie.Value,
		boolToInt(attrs.Secure), boolToInt(attrs.HttpOnly), boolToInt(attrs.HostOnly),
		attrs.SameSite, nullTime(attrs.Expires), extra,
		cookie.CreatedAt, cookie.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return s.db.QueryRowContext(ctx, `
		SELECT id, created_at FROM cookies WHERE domain = ? AND path = ? AND name = ?
	`, cookie.Domain, cookie.Path, cookie.Name).Scan(&cookie.ID, &cookie.CreatedAt)
}

// Get retrieves a cookie by domain, path, and name.
func (s *Store) Get(ctx context.Context, domain, path, name string) (*cookies.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+columns+`
		FROM cookies
		WHERE domain = ? AND path = ? AND name = ?
	`, domain, path, name)

	return scanCookie(row)
}

// List returns cookies matching the query options in insertion order.
func (s *Store) List(ctx context.Context, opts cookies.QueryOptions) ([]*cookies.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	var conditions []string
	var args []any

	if opts.Domain != "" {
		conditions = append(conditions, "domain = ?")
		args = append(args, opts.Domain)
	}

	if opts.Path != "" {
		conditions = append(conditions, "path = ?")
		args = append(args, opts.Path)
	}

	if opts.Name != "" {
		conditions = append(conditions, "name = ?")
		args = append(args, opts.Name)
	}

	if !opts.IncludeExpired {
		conditions = append(conditions, "(expires IS NULL OR expires > ?)")
		args = append(args, time.Now().UTC())
	}

	query := "SELECT " + columns + " FROM cookies"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY rowid"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCookies(rows)
}

// Delete removes a specific cookie.
func (s *Store) Delete(ctx context.Context, domain, path, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cookies WHERE domain = ? AND path = ? AND name = ?
	`, domain, path, name)
	return err
}

// DeleteByDomain removes all cookies for a domain.
func (s *Store) DeleteByDomain(ctx context.Context, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM cookies WHERE domain = ?`, domain)
	return err
}

// DeleteExpired removes all expired cookies and returns count.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, cookies.ErrStoreClosed
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cookies WHERE expires IS NOT NULL AND expires <= ?
	`, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Clear removes all cookies.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM cookies`)
	return err
}

// Count returns total number of cookies.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, cookies.ErrStoreClosed
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cookies`).Scan(&count)
	return count, err
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

const columns = "id, domain, path, name, value, secure, http_only, host_only, same_site, expires, extra, created_at, updated_at"

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullTime binds t in UTC; expires is compared as text, so every stored
// value and every bound "now" must share a zone.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func encodeExtra(extra map[string]string) (any, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cookie attributes: %w", err)
	}
	return string(data), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCookie(row scannable) (*cookies.Cookie, error) {
	var c cookies.Cookie
	var secure, httpOnly, hostOnly int
	var sameSite, extra sql.NullString
	var expires sql.NullTime

	err := row.Scan(
		&c.ID, &c.Domain, &c.Path, &c.Name, &c.Value,
		&secure, &httpOnly, &hostOnly, &sameSite, &expires, &extra,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cookies.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	c.Attributes.Secure = secure != 0
	c.Attributes.HttpOnly = httpOnly != 0
	c.Attributes.HostOnly = hostOnly != 0
	if sameSite.Valid {
		c.Attributes.SameSite = sameSite.String
	}
	if expires.Valid {
		c.Attributes.Expires = expires.Time
	}
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &c.Attributes.Extra); err != nil {
			return nil, fmt.Errorf("failed to decode cookie attributes: %w", err)
		}
	}

	return &c, nil
}

func scanCookies(rows *sql.Rows) ([]*cookies.Cookie, error) {
	var result []*cookies.Cookie
	for rows.Next() {
		c, err := scanCookie(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
