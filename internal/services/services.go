// Adapter interfaces and error classification
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Provider identifies an adapter.
type Provider interface {
	// Kind is the provider tag stamped on every track the adapter produces.
	Kind() models.ProviderKind

	// Name returns the display name of the service (e.g., "YouTube", "Yandex Music").
	Name() string
}

// LinkResolver turns user input into a track without touching the network.
type LinkResolver interface {
	Provider

	// ResolveFromInput parses a pasted link. Unrecognized input fails with [shared.ErrInvalidLink].
	ResolveFromInput(input string) (models.Track, error)
}

// Searcher runs catalog queries against a remote provider.
//
// Each call issues exactly one request. Calls are not cancelled by later calls; callers that care about
// ordering must discard stale responses themselves.
type Searcher interface {
	Provider

	// Search returns the tracks matching query.
	Search(ctx context.Context, query string) ([]models.Track, error)

	// FetchDefault returns the provider's browse list, used when no query is given.
	FetchDefault(ctx context.Context) ([]models.Track, error)
}

// ResolutionKind classifies a provider failure for display.
type ResolutionKind int

const (
	ResolutionOK ResolutionKind = iota
	ResolutionInvalidLink
	ResolutionNetworkFailure
	ResolutionEmptyResult
	ResolutionUnknown
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionOK:
		return "ok"
	case ResolutionInvalidLink:
		return "invalid link"
	case ResolutionNetworkFailure:
		return "network failure"
	case ResolutionEmptyResult:
		return "empty result"
	default:
		return "unknown"
	}
}

// Classify maps an adapter error onto its [ResolutionKind].
func Classify(err error) ResolutionKind {
	switch {
	case err == nil:
		return ResolutionOK
	case errors.Is(err, shared.ErrInvalidLink):
		return ResolutionInvalidLink
	case errors.Is(err, shared.ErrEmptyResult):
		return ResolutionEmptyResult
	case errors.Is(err, shared.ErrNetworkFailure):
		return ResolutionNetworkFailure
	default:
		return ResolutionUnknown
	}
}

// normalizeAll converts raw provider items into tracks, dropping items without an id.
//
// Zero usable items is reported as [shared.ErrEmptyResult].
func normalizeAll(kind models.ProviderKind, items []models.RawItem) ([]models.Track, error) {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		t := models.Normalize(kind, item)
		if t.ID() == "" {
			continue
		}
		tracks = append(tracks, t)
	}

	if len(tracks) == 0 {
		return tracks, fmt.Errorf("%w: %s returned no tracks", shared.ErrEmptyResult, kind)
	}
	return tracks, nil
}
