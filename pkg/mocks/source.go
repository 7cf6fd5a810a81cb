package mocks

import (
	"context"
	"sync"

	"github.com/user/episodeviz/pkg/ports"
	"github.com/user/episodeviz/pkg/tensor"
)

// TensorSource is a mock implementation of ports.TensorSource.
type TensorSource struct {
	FetchFunc func(ctx context.Context, url string) (*tensor.Payload, error)

	mu        sync.Mutex
	FetchURLs []string
}

func (m *TensorSource) Fetch(ctx context.Context, url string) (*tensor.Payload, error) {
	m.mu.Lock()
	m.FetchURLs = append(m.FetchURLs, url)
	m.mu.Unlock()
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url)
	}
	return &tensor.Payload{}, nil
}

var _ ports.TensorSource = (*TensorSource)(nil)
