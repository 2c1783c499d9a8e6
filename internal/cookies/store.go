package cookies

// Store is the ordered cookie collection behind a Jar. Cookies are unique
// by Key; putting a cookie whose key is already present replaces it in
// place.
//
// A Store may be shared by several jars (see AdoptStore). It has no
// locking of its own: whoever shares it must serialize access.
type Store struct {
	cookies []Cookie
	index   map[Key]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{index: make(map[Key]int)}
}

// Put inserts c, replacing any cookie with the same key.
func (s *Store) Put(c Cookie) {
	if s.index == nil {
		s.reindex()
	}
	c = c.Clone()
	if i, ok := s.index[c.Key()]; ok {
		s.cookies[i] = c
		return
	}
	s.index[c.Key()] = len(s.cookies)
	s.cookies = append(s.cookies, c)
}

// Get returns a copy of the cookie stored under k.
func (s *Store) Get(k Key) (Cookie, bool) {
	if s.index == nil {
		s.reindex()
	}
	i, ok := s.index[k]
	if !ok {
		return Cookie{}, false
	}
	return s.cookies[i].Clone(), true
}

// Remove deletes the cookie stored under k and reports whether it existed.
func (s *Store) Remove(k Key) bool {
	removed := s.RemoveFunc(func(c *Cookie) bool {
		return c.Key() == k
	})
	return removed > 0
}

// RemoveFunc deletes every cookie for which match returns true and returns
// the number removed. Remaining cookies keep their relative order.
func (s *Store) RemoveFunc(match func(*Cookie) bool) int {
	kept := s.cookies[:0]
	for i := range s.cookies {
		if !match(&s.cookies[i]) {
			kept = append(kept, s.cookies[i])
		}
	}
	removed := len(s.cookies) - len(kept)
	clear(s.cookies[len(kept):])
	s.cookies = kept
	if removed > 0 {
		s.reindex()
	}
	return removed
}

// Clear removes every cookie.
func (s *Store) Clear() {
	s.cookies = nil
	s.index = make(map[Key]int)
}

// Len returns the number of stored cookies.
func (s *Store) Len() int {
	return len(s.cookies)
}

// All returns copies of the stored cookies in insertion order.
func (s *Store) All() []Cookie {
	out := make([]Cookie, len(s.cookies))
	for i := range s.cookies {
		out[i] = s.cookies[i].Clone()
	}
	return out
}

func (s *Store) each(fn func(*Cookie)) {
	for i := range s.cookies {
		fn(&s.cookies[i])
	}
}

func (s *Store) reindex() {
	s.index = make(map[Key]int, len(s.cookies))
	for i := range s.cookies {
		s.index[s.cookies[i].Key()] = i
	}
}
