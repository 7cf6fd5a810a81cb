package ports

import (
	"context"

	"github.com/user/episodeviz/pkg/tensor"
)

// TensorSource retrieves a tensor payload from a remote location.
type TensorSource interface {
	// Fetch downloads and decodes the payload at url. It does not validate it.
	Fetch(ctx context.Context, url string) (*tensor.Payload, error)
}
