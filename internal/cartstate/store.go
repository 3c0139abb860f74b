package cartstate

import "sync"

// Listener observes state transitions. It receives the state produced by
// each dispatch, on the dispatching goroutine.
type Listener func(State)

// Store serializes reducer dispatches and fans the resulting state out to
// listeners. It is the only holder of mutable cart state in the process:
// everything else observes snapshots.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a store holding the empty initial state.
func NewStore() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// Dispatch applies an action and returns the resulting state. Dispatches
// are totally ordered: each action fully applies before the next is
// considered. Listeners run after the lock is released, so a listener may
// itself dispatch without deadlocking; such re-entrant dispatches order
// after the one that triggered them.
func (st *Store) Dispatch(a Action) State {
	st.mu.Lock()
	st.state = reduce(st.state, a)
	next := st.state
	ls := make([]Listener, 0, len(st.listeners))
	for _, l := range st.listeners {
		ls = append(ls, l)
	}
	st.mu.Unlock()

	for _, l := range ls {
		l(next)
	}
	return next
}

// State returns the current state snapshot.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Subscribe registers a listener and returns its unsubscribe function.
func (st *Store) Subscribe(l Listener) func() {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextID
	st.nextID++
	st.listeners[id] = l
	return func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		delete(st.listeners, id)
	}
}
