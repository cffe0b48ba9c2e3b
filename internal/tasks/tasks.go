// package tasks implements bulk library operations.
//
// The core abstraction is ImportEngine, which resolves many inputs concurrently and adds them to a library.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 5.0
)

// Adder stores tracks in a library.
//
// Implemented by [controller.Music].
type Adder interface {
	// Add stores t and reports whether it was new.
	Add(t models.Track) (bool, error)
}

// Input is one non-blank line of an import file.
type Input struct {
	Line int
	Text string
}

// ImportOpts contains configuration for bulk imports.
type ImportOpts struct {
	Provider   models.ProviderKind // Catalog searched for inputs that are not links; zero disables search
	NumWorkers int                 // Concurrent resolvers (default: 4, max: 10)
	RateLimit  float64             // Searches per second (default: 5)
}

// ItemResult represents the outcome of importing a single input.
type ItemResult struct {
	Line  int
	Input string
	Track models.Track // Zero when resolution failed
	Added bool         // False for duplicates and failures
	Error error
}

// ImportResult contains all data from a bulk import.
type ImportResult struct {
	Items      []ItemResult // In input order
	Total      int
	Added      int
	Duplicates int
	Failed     int
}

// ImportEngine resolves inputs through provider adapters and adds the tracks to a library.
type ImportEngine struct {
	links     services.LinkResolver
	searchers map[models.ProviderKind]services.Searcher
}

// NewImportEngine creates an [ImportEngine]. links may be nil when only search is wanted.
func NewImportEngine(links services.LinkResolver, searchers ...services.Searcher) *ImportEngine {
	e := &ImportEngine{links: links, searchers: make(map[models.ProviderKind]services.Searcher)}
	for _, s := range searchers {
		if s != nil {
			e.searchers[s.Kind()] = s
		}
	}
	return e
}

// ParseInputs reads one input per line, skipping blank lines and lines starting with '#'.
func ParseInputs(r io.Reader) ([]Input, error) {
	var inputs []Input
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		inputs = append(inputs, Input{Line: line, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}
	return inputs, nil
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ImportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Import resolves every input and adds the resulting tracks to lib in input order.
//
// Resolution runs on a worker pool; adding is sequential so the library order matches the input order.
// Failed inputs are recorded in the result and never stop the import. A cancelled context marks the
// remaining inputs as failed and is returned alongside the partial result.
func (e *ImportEngine) Import(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	lib Adder,
	inputs []Input,
	opts ImportOpts,
) (*ImportResult, error) {
	if lib == nil {
		return nil, fmt.Errorf("%w: library", shared.ErrMissingArgument)
	}

	var searcher services.Searcher
	if opts.Provider != 0 {
		s, ok := e.searchers[opts.Provider]
		if !ok {
			return nil, fmt.Errorf("%w: no catalog for %s", shared.ErrInvalidArgument, opts.Provider)
		}
		searcher = s
	}
	if e.links == nil && searcher == nil {
		return nil, fmt.Errorf("%w: no link resolver or catalog to import with", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	total := len(inputs)
	result := &ImportResult{Total: total, Items: make([]ItemResult, total)}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	e.sendProgress(prog, resolvingUpdate(total))

	jobs := make(chan int, total)
	for i := range inputs {
		jobs <- i
	}
	close(jobs)

	var (
		wg       sync.WaitGroup
		resolved atomic.Int64
	)
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				item := ItemResult{Line: inputs[i].Line, Input: inputs[i].Text}
				item.Track, item.Error = e.resolve(ctx, limiter, searcher, inputs[i].Text)
				result.Items[i] = item

				step := int(resolved.Add(1))
				e.sendProgress(prog, resolvedUpdate(step, total, item))
			}
		}()
	}
	wg.Wait()

	for i := range result.Items {
		item := &result.Items[i]
		if item.Error != nil {
			result.Failed++
			continue
		}

		added, err := lib.Add(item.Track)
		if err != nil {
			item.Error = err
			result.Failed++
			continue
		}

		item.Added = added
		if added {
			result.Added++
		} else {
			result.Duplicates++
		}
		e.sendProgress(prog, addedUpdate(i+1, total, item.Track, added))
	}

	e.sendProgress(prog, completeUpdate(result))
	return result, ctx.Err()
}

// resolve turns one input into a track: links first, then the first search match.
func (e *ImportEngine) resolve(ctx context.Context, limiter *rate.Limiter, searcher services.Searcher, text string) (models.Track, error) {
	if err := ctx.Err(); err != nil {
		return models.Track{}, err
	}

	if e.links != nil {
		t, err := e.links.ResolveFromInput(text)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, shared.ErrInvalidLink) || searcher == nil {
			return models.Track{}, err
		}
	}
	if searcher == nil {
		return models.Track{}, fmt.Errorf("%w: %q", shared.ErrInvalidLink, text)
	}

	if err := limiter.Wait(ctx); err != nil {
		return models.Track{}, err
	}

	tracks, err := searcher.Search(ctx, text)
	if err != nil {
		return models.Track{}, err
	}
	if len(tracks) == 0 {
		return models.Track{}, fmt.Errorf("%w: %q", shared.ErrEmptyResult, text)
	}
	return tracks[0], nil
}
