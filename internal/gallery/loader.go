package gallery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/abelbrown/shutter/internal/catalog"
)

// Reference loader behavior.
const (
	DefaultLatency   = 800 * time.Millisecond
	DefaultFaultRate = 0.1
)

// ErrLoad is the cause carried by simulated transient failures.
var ErrLoad = errors.New("failed to load images")

// ErrOutOfRange is returned when start lies outside [0, len(working)].
var ErrOutOfRange = errors.New("batch start out of range")

// LoadError is a transient batch failure. The retry controller recovers from it.
type LoadError struct {
	Start int
	Count int
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load batch [%d:+%d]: %v", e.Start, e.Count, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader fetches one batch of the working set. An empty result with a nil
// error means the working set is exhausted.
type Loader interface {
	LoadBatch(ctx context.Context, working []catalog.Item, start, count int) ([]catalog.Item, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, working []catalog.Item, start, count int) ([]catalog.Item, error)

// LoadBatch calls f.
func (f LoaderFunc) LoadBatch(ctx context.Context, working []catalog.Item, start, count int) ([]catalog.Item, error) {
	return f(ctx, working, start, count)
}

// Slice returns working[start:min(start+count, len(working))] as a new slice.
func Slice(working []catalog.Item, start, count int) ([]catalog.Item, error) {
	if start < 0 || start > len(working) {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrOutOfRange, start, len(working))
	}
	if count < 0 {
		count = 0
	}
	end := min(start+count, len(working))
	out := make([]catalog.Item, end-start)
	copy(out, working[start:end])
	return out, nil
}

// SimulatedLoader stands in for a network fetch: it waits a fixed latency and
// fails with a fixed independent probability per call.
// Safe for concurrent use.
type SimulatedLoader struct {
	Latency   time.Duration
	FaultRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedLoader creates a loader. A nil rng uses a time-seeded source.
func NewSimulatedLoader(latency time.Duration, faultRate float64, rng *rand.Rand) *SimulatedLoader {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SimulatedLoader{Latency: latency, FaultRate: faultRate, rng: rng}
}

// LoadBatch waits out the latency (or ctx), then returns the batch or a *LoadError.
// Failed calls return no items.
func (l *SimulatedLoader) LoadBatch(ctx context.Context, working []catalog.Item, start, count int) ([]catalog.Item, error) {
	if l.Latency > 0 {
		timer := time.NewTimer(l.Latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.fault() {
		return nil, &LoadError{Start: start, Count: count, Err: ErrLoad}
	}
	return Slice(working, start, count)
}

func (l *SimulatedLoader) fault() bool {
	if l.FaultRate <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rng == nil {
		l.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return l.rng.Float64() < l.FaultRate
}
