package session

import "sync"

// ModalGuard allows at most one modal to be open per session.
type ModalGuard struct {
	mu   sync.Mutex
	open bool
}

// TryOpen claims the modal slot. It returns false if a modal is already open.
func (g *ModalGuard) TryOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open {
		return false
	}
	g.open = true
	return true
}

func (g *ModalGuard) Close() {
	g.mu.Lock()
	g.open = false
	g.mu.Unlock()
}

func (g *ModalGuard) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}
