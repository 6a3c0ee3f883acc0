package catalog

import (
	"errors"
	"sync/atomic"
)

// Store holds the active catalog. Readers pin the pointer they get from
// Current for the whole run, so a Swap never affects runs already in flight.
type Store struct {
	current atomic.Pointer[Catalog]
}

func NewStore(initial *Catalog) (*Store, error) {
	if initial == nil {
		return nil, errors.New("catalog store requires an initial catalog")
	}
	s := &Store{}
	s.current.Store(initial)
	return s, nil
}

func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Swap installs next and returns the catalog it replaced.
func (s *Store) Swap(next *Catalog) (*Catalog, error) {
	if next == nil {
		return nil, errors.New("cannot install a nil catalog")
	}
	return s.current.Swap(next), nil
}
