// Package mockstore is an in-memory implementation of the pet store HTTP contract. It is
// what the "mock-service" command serves, and what this module's own tests run the
// scenario catalogue and load plans against. It stores nothing durably.
package mockstore

import (
	"sort"
	"strings"
	"sync"

	"github.com/petstore-harness/petstore-contract-tests/servicedef"
)

// Store holds the records. All methods are safe for concurrent use and return copies.
type Store struct {
	mu     sync.RWMutex
	pets   map[int64]servicedef.Pet
	orders map[int64]servicedef.Order
	users  map[string]servicedef.User
}

func NewStore() *Store {
	return &Store{
		pets:   make(map[int64]servicedef.Pet),
		orders: make(map[int64]servicedef.Order),
		users:  make(map[string]servicedef.User),
	}
}

func normalize(username string) string {
	return strings.ToLower(username)
}

func (s *Store) PutPet(p servicedef.Pet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pets[p.ID] = p
}

func (s *Store) GetPet(id int64) (servicedef.Pet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pets[id]
	return p, ok
}

// UpdatePet replaces an existing pet. It returns false if there is no pet with that id.
func (s *Store) UpdatePet(p servicedef.Pet) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pets[p.ID]; !ok {
		return false
	}
	s.pets[p.ID] = p
	return true
}

func (s *Store) DeletePet(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pets[id]; !ok {
		return false
	}
	delete(s.pets, id)
	return true
}

// AddPhoto records an uploaded image URL on a pet.
func (s *Store) AddPhoto(id int64, url string) (servicedef.Pet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pets[id]
	if !ok {
		return p, false
	}
	p.PhotoURLs = append(append([]string(nil), p.PhotoURLs...), url)
	s.pets[id] = p
	return p, true
}

// FindPetsByStatus returns the pets with any of the given statuses, ordered by id.
func (s *Store) FindPetsByStatus(statuses ...string) []servicedef.Pet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := []servicedef.Pet{}
	for _, p := range s.pets {
		for _, st := range statuses {
			if p.Status == st {
				ret = append(ret, p)
				break
			}
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret
}

// Inventory counts pets by status. Every valid status is present, even with a zero count.
func (s *Store) Inventory() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make(map[string]int)
	for _, st := range servicedef.PetStatuses {
		ret[st] = 0
	}
	for _, p := range s.pets {
		if p.Status != "" {
			ret[p.Status]++
		}
	}
	return ret
}

func (s *Store) PutOrder(o servicedef.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *Store) GetOrder(id int64) (servicedef.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *Store) DeleteOrder(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return false
	}
	delete(s.orders, id)
	return true
}

func (s *Store) PutUser(u servicedef.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[normalize(u.Username)] = u
}

func (s *Store) GetUser(username string) (servicedef.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[normalize(username)]
	return u, ok
}

// UpdateUser replaces the user stored under username, which may differ from u.Username.
func (s *Store) UpdateUser(username string, u servicedef.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[normalize(username)]; !ok {
		return false
	}
	delete(s.users, normalize(username))
	s.users[normalize(u.Username)] = u
	return true
}

func (s *Store) DeleteUser(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[normalize(username)]; !ok {
		return false
	}
	delete(s.users, normalize(username))
	return true
}
