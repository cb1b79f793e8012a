package camera

import (
	"fmt"
	"sync"
)

// Guard hands out exclusive in-process ownership of the camera.
type Guard struct {
	mu    sync.Mutex
	owner string
}

// Acquire takes ownership for owner. Re-acquiring by the current owner
// succeeds. The returned release func is idempotent.
func (g *Guard) Acquire(owner string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.owner != "" && g.owner != owner {
		return nil, fmt.Errorf("%w by %s", ErrDeviceBusy, g.owner)
	}
	g.owner = owner

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			if g.owner == owner {
				g.owner = ""
			}
			g.mu.Unlock()
		})
	}, nil
}

// Owner returns the current owner or "" when the camera is free.
func (g *Guard) Owner() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.owner
}
