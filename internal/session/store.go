package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swelljoe/citywthr/internal/view"
)

// CookieName identifies the page session in the browser
const CookieName = "wthr_session"

type entry struct {
	page    view.Page
	touched time.Time
}

// Store holds one page state per browser session, in memory only
type Store struct {
	pages map[string]*entry
	mutex sync.Mutex
	now   func() time.Time
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		pages: make(map[string]*entry),
		now:   time.Now,
	}
}

// Create registers a new session with a mounted page
func (s *Store) Create() (string, view.Page) {
	page := view.NewPage()
	page.Mount()

	id := uuid.NewString()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pages[id] = &entry{page: page, touched: s.now()}
	return id, page
}

// Get returns a snapshot of the session's page
func (s *Store) Get(id string) (view.Page, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.pages[id]
	if !ok {
		return view.Page{}, false
	}
	e.touched = s.now()
	return e.page, true
}

// Update applies a transition to the session's page under the store lock
// and returns the resulting snapshot. fn must not block.
func (s *Store) Update(id string, fn func(p *view.Page)) (view.Page, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.pages[id]
	if !ok {
		return view.Page{}, false
	}
	fn(&e.page)
	e.touched = s.now()
	return e.page, true
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.pages)
}

// Prune removes sessions idle for longer than maxAge
func (s *Store) Prune(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := s.now().Add(-maxAge)
	pruned := 0
	for id, e := range s.pages {
		if e.touched.Before(cutoff) {
			delete(s.pages, id)
			pruned++
		}
	}
	return pruned
}
