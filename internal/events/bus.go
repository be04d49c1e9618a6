// Package events is a small typed publish/subscribe bus owned by an editing
// session.
package events

import "sync"

type Kind string

const (
	CloseAllEditors    Kind = "close_all_editors"
	OpenBookManagerTab Kind = "open_book_manager_tab"
	BookLoaded         Kind = "book_loaded"
	BookSaved          Kind = "book_saved"
	Notification       Kind = "notification"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

type Event struct {
	Kind    Kind
	BookID  string
	Level   Level
	Message string
	// Tab names the book manager tab to open.
	Tab string
}

type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Kind][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: map[Kind][]subscription{}}
}

// Subscribe registers fn for events of kind and returns a function that
// removes it again.
func (b *Bus) Subscribe(kind Kind, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.subs[kind]
			for i, s := range subs {
				if s.id == id {
					b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers e synchronously to the handlers subscribed when Publish
// was called. Handlers may subscribe or unsubscribe while being called.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[e.Kind]...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(e)
	}
}
