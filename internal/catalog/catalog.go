// package catalog holds the search and browse state for one search-capable provider.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Status is the state of the catalog's result slot.
type Status int

const (
	StatusIdle Status = iota
	StatusSearching
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSearching:
		return "searching"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures a [Catalog].
type Options struct {
	Timeout time.Duration // wall-clock limit per request; zero waits indefinitely
}

// Snapshot is a point-in-time copy of the result slot.
type Snapshot struct {
	Status  Status
	Query   string // empty for the default listing
	Results []models.Track
	Err     error // set when Status is StatusFailed
}

// Empty reports a successful request that matched nothing.
func (s Snapshot) Empty() bool {
	return s.Status == StatusSucceeded && len(s.Results) == 0
}

// Catalog runs queries against a [services.Searcher] and keeps only the latest issued answer.
//
// Search and the default listing share one slot. Every request takes a token when issued; a response is
// applied only if no newer request was issued since, whatever the arrival order.
type Catalog struct {
	searcher services.Searcher
	opts     Options

	mu      sync.Mutex
	token   uint64
	status  Status
	query   string
	results []models.Track
	err     error
}

// New creates an idle [Catalog] for searcher.
func New(searcher services.Searcher, opts Options) *Catalog {
	return &Catalog{searcher: searcher, opts: opts}
}

// Kind is the provider kind of every result.
func (c *Catalog) Kind() models.ProviderKind {
	return c.searcher.Kind()
}

// Name is the provider display name.
func (c *Catalog) Name() string {
	return c.searcher.Name()
}

// SubmitQuery searches for text. Blank input is ignored and returns nil without touching the slot.
//
// It returns [shared.ErrSuperseded] when a newer request was issued before the response arrived.
func (c *Catalog) SubmitQuery(ctx context.Context, text string) error {
	q := strings.TrimSpace(text)
	if q == "" {
		return nil
	}
	return c.run(ctx, q, func(ctx context.Context) ([]models.Track, error) {
		return c.searcher.Search(ctx, q)
	})
}

// LoadDefault fetches the provider's default listing into the slot.
func (c *Catalog) LoadDefault(ctx context.Context) error {
	return c.run(ctx, "", c.searcher.FetchDefault)
}

func (c *Catalog) run(ctx context.Context, query string, fetch func(context.Context) ([]models.Track, error)) error {
	c.mu.Lock()
	c.token++
	token := c.token
	c.status = StatusSearching
	c.query = query
	c.err = nil
	c.mu.Unlock()

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	results, err := fetch(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, shared.ErrNetworkFailure) {
		err = fmt.Errorf("%w: %w", shared.ErrNetworkFailure, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token {
		return fmt.Errorf("%w: %q", shared.ErrSuperseded, query)
	}

	switch {
	case err == nil:
		c.status = StatusSucceeded
		c.results = results
	case errors.Is(err, shared.ErrEmptyResult):
		c.status = StatusSucceeded
		c.results = nil
		err = nil
	default:
		c.status = StatusFailed
		c.err = err
	}
	return err
}

// Snapshot returns the current slot. Results survive a failed request.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Status:  c.status,
		Query:   c.query,
		Results: slices.Clone(c.results),
		Err:     c.err,
	}
}

// Status returns the slot status.
func (c *Catalog) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Result returns the result at index i of the current slot.
func (c *Catalog) Result(i int) (models.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.results) {
		return models.Track{}, fmt.Errorf("%w: result index %d out of range (%d results)", shared.ErrInvalidArgument, i, len(c.results))
	}
	return c.results[i], nil
}

// Reset clears the slot and discards any in-flight response.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	c.status = StatusIdle
	c.query = ""
	c.results = nil
	c.err = nil
}
