// Package location provides the device location feed consumed by the
// tracking loop. A denied platform permission simply means no current fix;
// it is never an error the loop has to handle separately.
package location

import (
	"errors"
	"sync"
	"time"

	"backend-staysafe/internal/shared/geo"
)

var ErrNoFix = errors.New("no current location fix")

// Fix is one observed device coordinate.
type Fix struct {
	Point geo.Point
	Time  time.Time
}

// Source exposes the one-shot "current value" accessor of the device feed.
type Source interface {
	Current() (Fix, bool)
}

// Manager caches the most recent fix from an ongoing stream of updates.
type Manager struct {
	mu     sync.RWMutex
	latest *Fix
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Update(f Fix) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = &f
}

func (m *Manager) Current() (Fix, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latest == nil {
		return Fix{}, false
	}
	return *m.latest, true
}

// Clear drops the cached fix, e.g. when location permission is revoked.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = nil
}
