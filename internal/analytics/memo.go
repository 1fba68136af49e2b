package analytics

import (
	"sync"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
)

// Memo caches the derived view of the most recent dataset by identity
type Memo struct {
	mu      sync.Mutex
	dataset *contracts.Dataset
	view    *contracts.DerivedView
	err     error
}

// Derive returns the cached view when dataset is the same pointer as last time
func (m *Memo) Derive(dataset *contracts.Dataset) (*contracts.DerivedView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if dataset != nil && dataset == m.dataset {
		return m.view, m.err
	}

	m.view, m.err = Derive(dataset)
	m.dataset = dataset
	return m.view, m.err
}
