package cookies

import (
	"maps"
	"slices"
)

// Source is one of the inputs a jar can be built from: FromMap, FromPairs,
// FromJar or AdoptStore.
type Source interface {
	newJar() *Jar
}

// Pair is a cookie name and value without scope.
type Pair struct {
	Name  string
	Value string
}

type mapSource map[string]string

// FromMap builds a jar holding one cookie per entry, with the default
// domain and path. Entries are applied in key order.
func FromMap(m map[string]string) Source {
	return mapSource(m)
}

func (m mapSource) newJar() *Jar {
	jar := New()
	for _, name := range slices.Sorted(maps.Keys(m)) {
		jar.Set(name, m[name])
	}
	return jar
}

type pairsSource []Pair

// FromPairs builds a jar by setting each pair in order, with the default
// domain and path.
func FromPairs(pairs []Pair) Source {
	return pairsSource(pairs)
}

func (p pairsSource) newJar() *Jar {
	jar := New()
	for _, pair := range p {
		jar.Set(pair.Name, pair.Value)
	}
	return jar
}

type jarSource struct {
	jar *Jar
}

// FromJar builds an independent deep copy of other.
func FromJar(other *Jar) Source {
	return jarSource{jar: other}
}

func (s jarSource) newJar() *Jar {
	jar := New()
	if s.jar == nil {
		return jar
	}
	for _, c := range s.jar.Store().All() {
		jar.Store().Put(c)
	}
	return jar
}

type storeSource struct {
	store *Store
}

// AdoptStore wraps store without copying it. Every jar built from the
// same store, and any other holder of it, observes the same mutations.
func AdoptStore(store *Store) Source {
	return storeSource{store: store}
}

func (s storeSource) newJar() *Jar {
	if s.store == nil {
		return New()
	}
	return &Jar{store: s.store}
}
