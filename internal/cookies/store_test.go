package cookies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Put(t *testing.T) {
	s := NewStore()
	s.Put(Cookie{Name: "a", Value: "1", Domain: "x.com", Path: "/"})
	s.Put(Cookie{Name: "b", Value: "2", Domain: "x.com", Path: "/"})
	s.Put(Cookie{Name: "a", Value: "3", Domain: "x.com", Path: "/"})

	require.Equal(t, 2, s.Len())
	all := s.All()
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "3", all[0].Value)
	assert.Equal(t, "b", all[1].Name)
}

func TestStore_PutCopiesExtra(t *testing.T) {
	s := NewStore()
	extra := map[string]string{"k": "v"}
	s.Put(Cookie{Name: "a", Path: "/", Attributes: Attributes{Extra: extra}})
	extra["k"] = "changed"

	got, ok := s.Get(Key{Path: "/", Name: "a"})
	require.True(t, ok)
	assert.Equal(t, "v", got.Attributes.Extra["k"])
}

func TestStore_Remove(t *testing.T) {
	s := NewStore()
	s.Put(Cookie{Name: "a", Path: "/"})
	s.Put(Cookie{Name: "b", Path: "/"})
	s.Put(Cookie{Name: "c", Path: "/"})

	assert.True(t, s.Remove(Key{Path: "/", Name: "b"}))
	assert.False(t, s.Remove(Key{Path: "/", Name: "b"}))

	// index stays consistent after removal
	s.Put(Cookie{Name: "c", Value: "new", Path: "/"})
	require.Equal(t, 2, s.Len())
	got, ok := s.Get(Key{Path: "/", Name: "c"})
	require.True(t, ok)
	assert.Equal(t, "new", got.Value)
}

func TestStore_RemoveFunc(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"a", "b", "c", "d"} {
		s.Put(Cookie{Name: name, Path: "/"})
	}

	n := s.RemoveFunc(func(c *Cookie) bool { return c.Name == "a" || c.Name == "c" })

	assert.Equal(t, 2, n)
	names := []string{}
	for _, c := range s.All() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"b", "d"}, names)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Put(Cookie{Name: "a", Path: "/"})
	s.Clear()

	assert.Equal(t, 0, s.Len())
	_, ok := s.Get(Key{Path: "/", Name: "a"})
	assert.False(t, ok)
}
