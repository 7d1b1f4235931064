package gallery

import (
	"time"

	"github.com/abelbrown/shutter/internal/catalog"
)

// Reference controller settings.
const (
	DefaultInitialBatch = 12
	DefaultBatchSize    = 8
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 3 * time.Second
)

// State is the retry controller state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateError
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Outcome describes what Resolve did with a batch result.
type Outcome int

const (
	OutcomeStale          Outcome = iota // result ignored
	OutcomeAppended                      // items appended, back to Idle
	OutcomeExhausted                     // empty batch, no more loads
	OutcomeRetryScheduled                // failure within budget, caller schedules RetryDue
	OutcomeFailed                        // failure past budget, manual retry required
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStale:
		return "stale"
	case OutcomeAppended:
		return "appended"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeRetryScheduled:
		return "retry_scheduled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config sizes batches and bounds retries.
type Config struct {
	InitialBatch int // first batch of a working set
	BatchSize    int // every later batch
	MaxRetries   int // automatic retries after the first failure
}

// DefaultConfig returns the reference settings (12, 8, 3).
func DefaultConfig() Config {
	return Config{
		InitialBatch: DefaultInitialBatch,
		BatchSize:    DefaultBatchSize,
		MaxRetries:   DefaultMaxRetries,
	}
}

// Request is one batch load handed to a Loader. Epoch ties the result back to
// the working set it was issued for.
type Request struct {
	Epoch   uint64
	Start   int
	Count   int
	Attempt int // 0 for the first try, n for the n-th retry
}

// Controller is the loading state machine for one gallery instance.
//
// Invariants:
//   - the load cursor is len(displayed), never stored separately
//   - at most one request is in flight (state Loading)
//   - results are applied only if their epoch and start match the current ones
//
// Not safe for concurrent use; drive it from a single event loop.
type Controller struct {
	cfg       Config
	working   []catalog.Item
	displayed []catalog.Item
	state     State
	retries   int
	epoch     uint64
	pending   bool    // automatic retry scheduled, waiting for RetryDue
	inflight  Request // valid while state == StateLoading
}

// NewController creates an idle controller with an empty working set.
func NewController(cfg Config) *Controller {
	if cfg.InitialBatch <= 0 {
		cfg.InitialBatch = DefaultInitialBatch
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Controller{cfg: cfg}
}

// Reset installs a new working set. It bumps the epoch, empties the displayed
// list and returns to Idle, so results of earlier requests become stale.
func (c *Controller) Reset(working []catalog.Item) uint64 {
	c.epoch++
	c.working = working
	c.displayed = nil
	c.state = StateIdle
	c.retries = 0
	c.pending = false
	c.inflight = Request{}
	return c.epoch
}

// Next moves Idle to Loading and returns the request for the batch at the
// cursor. In any other state it returns false.
func (c *Controller) Next() (Request, bool) {
	if c.state != StateIdle {
		return Request{}, false
	}
	return c.begin(0), true
}

func (c *Controller) begin(attempt int) Request {
	count := c.cfg.BatchSize
	if c.Cursor() == 0 {
		count = c.cfg.InitialBatch
	}
	c.state = StateLoading
	c.pending = false
	c.inflight = Request{Epoch: c.epoch, Start: c.Cursor(), Count: count, Attempt: attempt}
	return c.inflight
}

// Resolve applies the result of req. A non-nil err counts as a transient
// failure. Results for anything but the in-flight request are dropped.
func (c *Controller) Resolve(req Request, items []catalog.Item, err error) Outcome {
	if c.state != StateLoading || req != c.inflight {
		return OutcomeStale
	}
	c.inflight = Request{}

	if err != nil {
		c.retries++
		c.state = StateError
		if c.retries <= c.cfg.MaxRetries {
			c.pending = true
			return OutcomeRetryScheduled
		}
		return OutcomeFailed
	}

	if len(items) == 0 {
		c.state = StateExhausted
		return OutcomeExhausted
	}

	c.displayed = append(c.displayed, items...)
	c.retries = 0
	c.state = StateIdle
	return OutcomeAppended
}

// RetryDue fires a scheduled automatic retry. It returns false if the retry
// belongs to an older epoch or none is pending.
func (c *Controller) RetryDue(epoch uint64) (Request, bool) {
	if epoch != c.epoch || c.state != StateError || !c.pending {
		return Request{}, false
	}
	return c.begin(c.retries), true
}

// ManualRetry restarts loading from terminal Error with a fresh retry budget.
func (c *Controller) ManualRetry() (Request, bool) {
	if !c.Terminal() {
		return Request{}, false
	}
	c.retries = 0
	return c.begin(0), true
}

// Terminal reports whether the controller gave up and waits for ManualRetry.
func (c *Controller) Terminal() bool {
	return c.state == StateError && !c.pending
}

// RetryPending reports whether an automatic retry is scheduled.
func (c *Controller) RetryPending() bool {
	return c.state == StateError && c.pending
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// RetryCount returns the failures since the last success.
func (c *Controller) RetryCount() int { return c.retries }

// MaxRetries returns the automatic retry budget.
func (c *Controller) MaxRetries() int { return c.cfg.MaxRetries }

// Epoch returns the current working-set generation.
func (c *Controller) Epoch() uint64 { return c.epoch }

// Cursor is the offset of the next unfetched item.
func (c *Controller) Cursor() int { return len(c.displayed) }

// Displayed returns the displayed list. Callers must not modify it.
func (c *Controller) Displayed() []catalog.Item { return c.displayed }

// Working returns the current working set. Callers must not modify it.
func (c *Controller) Working() []catalog.Item { return c.working }

// WorkingSize returns len(working set).
func (c *Controller) WorkingSize() int { return len(c.working) }

// InFlight returns the request being loaded, if any.
func (c *Controller) InFlight() (Request, bool) {
	return c.inflight, c.state == StateLoading
}
