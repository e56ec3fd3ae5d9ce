package headless

import (
	"context"
	"errors"

	"github.com/datalode/assetscout/internal/asset"
)

// Noop implements Fetcher but always returns an error to indicate that
// rendering is not available in the current build.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch returns an error since this is a stub implementation.
func (Noop) Fetch(_ context.Context, _ asset.FetchRequest) (asset.FetchResponse, error) {
	return asset.FetchResponse{}, errors.New("renderer not configured")
}
