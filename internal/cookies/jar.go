package cookies

import (
	"fmt"
	"strings"
)

// Mapping is the name-addressed view of a cookie collection.
type Mapping interface {
	Set(name, value string, opts ...ScopeOption)
	Lookup(name string) (string, error)
	Delete(name string, opts ...ScopeOption)
	Names() []string
	Len() int
}

var _ Mapping = (*Jar)(nil)

// Jar is a mutable, name-addressable collection of cookies.
//
// Lookups by name alone fail with a *ConflictError when more than one
// stored cookie carries that name; callers narrow the query with
// WithDomain and WithPath. The zero value is an empty jar. A Jar is not
// safe for concurrent use.
type Jar struct {
	store *Store
}

// New creates an empty jar.
func New() *Jar {
	return &Jar{store: NewStore()}
}

// NewFrom creates a jar from src. A nil src yields an empty jar.
func NewFrom(src Source) *Jar {
	if src == nil {
		return New()
	}
	return src.newJar()
}

// Store returns the store backing the jar. It is the same handle passed
// to AdoptStore when the jar was created that way. The zero Jar gets an
// empty store on first use.
func (j *Jar) Store() *Store {
	if j.store == nil {
		j.store = NewStore()
	}
	return j.store
}

// Set stores a cookie. The domain defaults to "" and the path to "/".
func (j *Jar) Set(name, value string, opts ...ScopeOption) {
	sc := newScope(opts)
	c := Cookie{Name: name, Value: value, Domain: sc.domain, Path: "/"}
	if sc.hasPath {
		c.Path = sc.path
	}
	j.Store().Put(c)
}

// SetCookie stores a full cookie as received from a transport.
func (j *Jar) SetCookie(c Cookie) {
	if c.Path == "" {
		c.Path = "/"
	}
	j.Store().Put(c)
}

// Get returns the value of the single cookie matching name and scope.
// ok is false when nothing matches.
func (j *Jar) Get(name string, opts ...ScopeOption) (value string, ok bool, err error) {
	sc := newScope(opts)
	var matches int
	j.Store().each(func(c *Cookie) {
		if sc.matches(name, c) {
			matches++
			value = c.Value
		}
	})

	switch matches {
	case 0:
		return "", false, nil
	case 1:
		return value, true, nil
	default:
		return "", false, &ConflictError{Name: name, Matches: matches}
	}
}

// GetDefault is Get returning def when nothing matches.
func (j *Jar) GetDefault(name, def string, opts ...ScopeOption) (string, error) {
	value, ok, err := j.Get(name, opts...)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return value, nil
}

// Lookup returns the value of the only cookie named name. Unlike Get it
// fails with ErrNotFound when there is none.
func (j *Jar) Lookup(name string) (string, error) {
	value, ok, err := j.Get(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return value, nil
}

// Delete removes cookies named name. With both WithDomain and WithPath it
// removes exactly that cookie; otherwise every cookie matching the given
// scope is removed. Deleting a missing cookie is a no-op.
func (j *Jar) Delete(name string, opts ...ScopeOption) {
	sc := newScope(opts)
	if sc.hasDomain && sc.hasPath {
		j.Store().Remove(Key{Domain: sc.domain, Path: sc.path, Name: name})
		return
	}
	j.Store().RemoveFunc(func(c *Cookie) bool {
		return sc.matches(name, c)
	})
}

// Clear removes cookies by scope: everything, everything under a domain,
// or one exact domain and path. A path without a domain is rejected with
// ErrPathWithoutDomain.
func (j *Jar) Clear(opts ...ScopeOption) error {
	sc := newScope(opts)
	switch {
	case sc.hasPath && !sc.hasDomain:
		return ErrPathWithoutDomain
	case sc.hasDomain:
		j.Store().RemoveFunc(func(c *Cookie) bool {
			return c.Domain == sc.domain && (!sc.hasPath || c.Path == sc.path)
		})
	default:
		j.Store().Clear()
	}
	return nil
}

// Update merges the cookies of src into the jar in src's order. A cookie
// with the same domain, path and name as an existing one replaces it.
// src itself is never modified.
func (j *Jar) Update(src Source) {
	for _, c := range NewFrom(src).Cookies() {
		j.Store().Put(c)
	}
}

// Names returns the name of every stored cookie in store order. A name
// appears once per cookie carrying it.
func (j *Jar) Names() []string {
	names := make([]string, 0, j.Store().Len())
	j.Store().each(func(c *Cookie) {
		names = append(names, c.Name)
	})
	return names
}

// Cookies returns copies of all stored cookies in store order.
func (j *Jar) Cookies() []Cookie {
	return j.Store().All()
}

// Len returns the number of stored cookies.
func (j *Jar) Len() int {
	return j.Store().Len()
}

// IsEmpty reports whether the jar holds no cookies.
func (j *Jar) IsEmpty() bool {
	return j.Store().Len() == 0
}

func (j *Jar) String() string {
	parts := make([]string, 0, j.Store().Len())
	j.Store().each(func(c *Cookie) {
		parts = append(parts, fmt.Sprintf("<Cookie %s=%s for %s />", c.Name, c.Value, c.Domain))
	})
	return "<Cookies[" + strings.Join(parts, ", ") + "]>"
}

// ScopeOption narrows a jar operation to a domain or path.
type ScopeOption func(*scope)

// WithDomain restricts an operation to cookies whose domain equals domain
// exactly. No suffix matching is done.
func WithDomain(domain string) ScopeOption {
	return func(s *scope) {
		s.domain = domain
		s.hasDomain = true
	}
}

// WithPath restricts an operation to cookies whose path equals path
// exactly. No prefix matching is done.
func WithPath(path string) ScopeOption {
	return func(s *scope) {
		s.path = path
		s.hasPath = true
	}
}

type scope struct {
	domain    string
	path      string
	hasDomain bool
	hasPath   bool
}

func newScope(opts []ScopeOption) scope {
	var s scope
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s scope) matches(name string, c *Cookie) bool {
	if c.Name != name {
		return false
	}
	if s.hasDomain && c.Domain != s.domain {
		return false
	}
	if s.hasPath && c.Path != s.path {
		return false
	}
	return true
}
