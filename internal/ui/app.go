package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/shutter/internal/catalog"
	"github.com/abelbrown/shutter/internal/gallery"
	"github.com/abelbrown/shutter/internal/logging"
	"github.com/abelbrown/shutter/internal/metrics"
	"github.com/abelbrown/shutter/internal/otel"
)

// Rows taken by the tab bar, the footer and the status bar.
const chromeRows = 3

// flashDuration is how long a status message stays up.
var flashDuration = 4 * time.Second

// Downloader saves an image and returns the written path.
type Downloader interface {
	Download(ctx context.Context, item catalog.Item) (string, error)
}

// Config wires the App to its collaborators. Only Items and Loader are needed
// to browse; a nil Downloader disables downloads.
type Config struct {
	Items      []catalog.Item // full collection, in display order
	Loader     gallery.Loader
	Downloader Downloader
	Gallery    gallery.Config
	RetryDelay time.Duration
	Trigger    gallery.Trigger
	Category   catalog.Category // initial filter; empty means all
	Events     *otel.Logger
	Ring       *otel.RingBuffer
}

// App is the root Bubble Tea model.
// IMPORTANT: App does not touch the store. It receives the collection once
// and all loading goes through the controller.
type App struct {
	items      []catalog.Item
	loader     gallery.Loader
	downloader Downloader
	ctl        *gallery.Controller
	trigger    gallery.Trigger
	retryDelay time.Duration
	category   catalog.Category

	events *otel.Logger
	ring   *otel.RingBuffer

	// ctx is cancelled on quit; loadCtx belongs to the current epoch.
	ctx        context.Context
	cancel     context.CancelFunc
	loadCtx    context.Context
	loadCancel context.CancelFunc

	cursor int
	width  int
	height int
	ready  bool

	preview   bool
	transform Transform
	showDebug bool
	flash     string
	flashSeq  int
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
}

// NewApp creates an App showing cfg.Category. The first batch is requested
// by Init.
func NewApp(cfg Config) App {
	if cfg.Category == "" {
		cfg.Category = catalog.CategoryAll
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = gallery.DefaultRetryDelay
	}
	if cfg.Loader == nil {
		cfg.Loader = gallery.LoaderFunc(func(_ context.Context, working []catalog.Item, start, count int) ([]catalog.Item, error) {
			return gallery.Slice(working, start, count)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := App{
		items:      cfg.Items,
		loader:     cfg.Loader,
		downloader: cfg.Downloader,
		ctl:        gallery.NewController(cfg.Gallery),
		trigger:    cfg.Trigger,
		retryDelay: cfg.RetryDelay,
		category:   cfg.Category,
		events:     cfg.Events,
		ring:       cfg.Ring,
		ctx:        ctx,
		cancel:     cancel,
		transform:  NewTransform(),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		help:       help.New(),
		keys:       defaultKeyMap(),
	}
	a.resetWorkingSet()
	return a
}

// resetWorkingSet cancels loads of the previous epoch and installs the
// working set for the current category.
func (a *App) resetWorkingSet() {
	if a.loadCancel != nil {
		a.loadCancel()
	}
	working := gallery.WorkingSet(a.items, a.category)
	epoch := a.ctl.Reset(working)
	a.loadCtx, a.loadCancel = context.WithCancel(a.ctx)
	a.cursor = 0
	a.emit(otel.Event{
		Kind:     otel.KindFilterChange,
		Comp:     "ui",
		Epoch:    epoch,
		Category: string(a.category),
		Count:    len(working),
	})
}

// Init requests the initial batch.
func (a App) Init() tea.Cmd {
	req, ok := a.ctl.Next()
	if !ok {
		return a.spinner.Tick
	}
	return tea.Batch(a.spinner.Tick, a.loadCmd(req))
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		return a, a.maybeLoad()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case BatchLoaded:
		return a.handleBatch(msg)

	case RetryDue:
		req, ok := a.ctl.RetryDue(msg.Epoch)
		if !ok {
			return a, nil
		}
		metrics.RetriesTotal.WithLabelValues("auto").Inc()
		a.emit(otel.Event{
			Kind:     otel.KindBatchRetry,
			Comp:     "ui",
			Epoch:    req.Epoch,
			Category: string(a.category),
			Start:    req.Start,
			Count:    req.Count,
			Attempt:  req.Attempt,
		})
		return a, a.loadCmd(req)

	case DownloadDone:
		return a.handleDownload(msg)

	case clearStatus:
		if msg.Seq == a.flashSeq {
			a.flash = ""
		}
		return a, nil
	}

	return a, nil
}

// handleBatch feeds a loader result to the controller and reacts to the
// outcome.
func (a App) handleBatch(msg BatchLoaded) (tea.Model, tea.Cmd) {
	outcome := a.ctl.Resolve(msg.Req, msg.Items, msg.Err)
	cat := string(a.category)

	ev := otel.Event{
		Comp:     "ui",
		Epoch:    msg.Req.Epoch,
		Category: cat,
		Start:    msg.Req.Start,
		Count:    msg.Req.Count,
		Attempt:  msg.Req.Attempt,
		Dur:      msg.Dur,
	}

	if outcome == gallery.OutcomeStale {
		metrics.StaleTotal.WithLabelValues(cat).Inc()
		ev.Kind = otel.KindBatchStale
		ev.Level = otel.LevelDebug
		a.emit(ev)
		return a, nil
	}

	metrics.BatchesTotal.WithLabelValues(cat, outcome.String()).Inc()
	metrics.BatchLatency.WithLabelValues(cat).Observe(msg.Dur.Seconds())

	switch outcome {
	case gallery.OutcomeAppended:
		metrics.ItemsLoaded.WithLabelValues(cat).Add(float64(len(msg.Items)))
		ev.Kind = otel.KindBatchComplete
		ev.Count = len(msg.Items)
		a.emit(ev)
		return a, a.maybeLoad()

	case gallery.OutcomeExhausted:
		ev.Kind = otel.KindExhausted
		ev.Msg = fmt.Sprintf("%d images", a.ctl.Cursor())
		a.emit(ev)
		return a, nil

	case gallery.OutcomeRetryScheduled:
		ev.Kind = otel.KindBatchError
		ev.Level = otel.LevelWarn
		ev.Err = msg.Err.Error()
		a.emit(ev)
		logging.Debug("batch failed, retry scheduled", "start", msg.Req.Start, "retries", a.ctl.RetryCount(), "err", msg.Err)
		epoch := a.ctl.Epoch()
		return a, tea.Tick(a.retryDelay, func(time.Time) tea.Msg {
			return RetryDue{Epoch: epoch}
		})

	case gallery.OutcomeFailed:
		ev.Kind = otel.KindFailed
		ev.Level = otel.LevelError
		ev.Err = msg.Err.Error()
		a.emit(ev)
		logging.Warn("batch failed, giving up", "category", cat, "start", msg.Req.Start, "retries", a.ctl.RetryCount(), "err", msg.Err)
	}
	return a, nil
}

func (a App) handleDownload(msg DownloadDone) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		metrics.DownloadsTotal.WithLabelValues("error").Inc()
		logging.Error("download failed", "url", msg.Item.URL, "err", msg.Err)
		a.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindDownloadError, Comp: "download", URL: msg.Item.URL, Err: msg.Err.Error()})
		return a, a.setFlash(ErrorStyle.Render("Download failed"))
	}
	metrics.DownloadsTotal.WithLabelValues("ok").Inc()
	logging.Info("downloaded", "url", msg.Item.URL, "path", msg.Path)
	a.emit(otel.Event{Kind: otel.KindDownloadComplete, Comp: "download", URL: msg.Item.URL, Msg: msg.Path})
	return a, a.setFlash(SuccessStyle.Render("Saved " + msg.Path))
}

// setFlash shows text in the status bar for a few seconds.
func (a *App) setFlash(text string) tea.Cmd {
	a.flashSeq++
	a.flash = text
	seq := a.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return clearStatus{Seq: seq}
	})
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a.quit()
	}
	if a.preview {
		return a.handlePreviewKey(msg)
	}

	displayed := a.ctl.Cursor()

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.quit()

	case key.Matches(msg, a.keys.Debug):
		a.showDebug = !a.showDebug
		return a, nil

	case key.Matches(msg, a.keys.Down):
		if a.cursor < displayed-1 {
			a.cursor++
		}
		return a, a.maybeLoad()

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, a.keys.PageDown):
		a.cursor = min(a.cursor+a.listHeight(), max(displayed-1, 0))
		return a, a.maybeLoad()

	case key.Matches(msg, a.keys.PageUp):
		a.cursor = max(a.cursor-a.listHeight(), 0)
		return a, nil

	case key.Matches(msg, a.keys.Top):
		a.cursor = 0
		return a, nil

	case key.Matches(msg, a.keys.Bottom):
		if displayed > 0 {
			a.cursor = displayed - 1
		}
		return a, a.maybeLoad()

	case key.Matches(msg, a.keys.NextTab):
		return a.switchCategory(1)

	case key.Matches(msg, a.keys.PrevTab):
		return a.switchCategory(-1)

	case key.Matches(msg, a.keys.Preview):
		if displayed == 0 {
			return a, nil
		}
		a.preview = true
		a.transform = NewTransform()
		return a, nil

	case key.Matches(msg, a.keys.Download):
		return a, a.downloadSelected()

	case key.Matches(msg, a.keys.Retry):
		req, ok := a.ctl.ManualRetry()
		if !ok {
			return a, nil
		}
		metrics.RetriesTotal.WithLabelValues("manual").Inc()
		a.emit(otel.Event{Kind: otel.KindManualRetry, Comp: "ui", Epoch: req.Epoch, Category: string(a.category), Start: req.Start, Count: req.Count})
		return a, a.loadCmd(req)
	}

	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		cats := catalog.Categories()
		if i := int(s[0] - '1'); i < len(cats) {
			return a.setCategory(cats[i])
		}
	}
	return a, nil
}

func (a App) handlePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Close):
		a.preview = false
	case key.Matches(msg, a.keys.Rotate):
		a.transform = a.transform.Rotated()
	case key.Matches(msg, a.keys.FlipX):
		a.transform = a.transform.FlippedX()
	case key.Matches(msg, a.keys.FlipY):
		a.transform = a.transform.FlippedY()
	case key.Matches(msg, a.keys.MoreContrast):
		a.transform = a.transform.WithContrast(filterStep)
	case key.Matches(msg, a.keys.LessContrast):
		a.transform = a.transform.WithContrast(-filterStep)
	case key.Matches(msg, a.keys.Brighter):
		a.transform = a.transform.WithBrightness(filterStep)
	case key.Matches(msg, a.keys.Dimmer):
		a.transform = a.transform.WithBrightness(-filterStep)
	case key.Matches(msg, a.keys.Reset):
		a.transform = NewTransform()
	case key.Matches(msg, a.keys.Download):
		return a, a.downloadSelected()
	}
	return a, nil
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.cancel()
	return a, tea.Quit
}

func (a App) switchCategory(step int) (tea.Model, tea.Cmd) {
	cats := catalog.Categories()
	idx := 0
	for i, c := range cats {
		if c == a.category {
			idx = i
			break
		}
	}
	idx = (idx + step + len(cats)) % len(cats)
	return a.setCategory(cats[idx])
}

// setCategory changes the filter. Selecting the current category is a no-op.
func (a App) setCategory(c catalog.Category) (tea.Model, tea.Cmd) {
	if c == a.category {
		return a, nil
	}
	a.category = c
	a.resetWorkingSet()
	req, ok := a.ctl.Next()
	if !ok {
		return a, nil
	}
	return a, a.loadCmd(req)
}

// maybeLoad requests the next batch when the sentinel row after the last
// displayed image is within the trigger margin of the viewport.
func (a App) maybeLoad() tea.Cmd {
	if !a.ready {
		return nil
	}
	displayed := a.ctl.Cursor()
	last := lastVisibleRow(a.cursor, displayed, a.listHeight())
	if !a.trigger.ShouldFire(a.ctl.State(), last, displayed) {
		return nil
	}
	req, ok := a.ctl.Next()
	if !ok {
		return nil
	}
	return a.loadCmd(req)
}

// loadCmd runs the loader for req off the UI goroutine.
func (a App) loadCmd(req gallery.Request) tea.Cmd {
	a.emit(otel.Event{
		Level:    otel.LevelDebug,
		Kind:     otel.KindBatchStart,
		Comp:     "ui",
		Epoch:    req.Epoch,
		Category: string(a.category),
		Start:    req.Start,
		Count:    req.Count,
		Attempt:  req.Attempt,
	})

	ctx := a.loadCtx
	loader := a.loader
	working := a.ctl.Working()
	return func() tea.Msg {
		start := time.Now()
		items, err := loader.LoadBatch(ctx, working, req.Start, req.Count)
		return BatchLoaded{Req: req, Items: items, Dur: time.Since(start), Err: err}
	}
}

func (a App) downloadSelected() tea.Cmd {
	displayed := a.ctl.Displayed()
	if a.downloader == nil || a.cursor >= len(displayed) {
		return nil
	}
	item := displayed[a.cursor]
	ctx := a.ctx
	dl := a.downloader
	return func() tea.Msg {
		path, err := dl.Download(ctx, item)
		return DownloadDone{Item: item, Path: path, Err: err}
	}
}

func (a App) emit(e otel.Event) {
	if a.events != nil {
		a.events.Emit(e)
	}
}

func (a App) listHeight() int {
	h := a.height - chromeRows
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showDebug {
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	displayed := a.ctl.Displayed()
	if a.preview && a.cursor < len(displayed) {
		return renderPreview(displayed[a.cursor], a.transform, a.keys, a.help, a.width, a.height)
	}

	tabs := RenderTabs(a.category, a.width)
	list := RenderGallery(displayed, a.cursor, a.width, a.listHeight())
	footer := renderFooter(footerState{
		loading:    a.ctl.State() == gallery.StateLoading,
		pending:    a.ctl.RetryPending(),
		terminal:   a.ctl.Terminal(),
		exhausted:  a.ctl.State() == gallery.StateExhausted,
		retries:    a.ctl.RetryCount(),
		maxRetries: a.ctl.MaxRetries(),
		displayed:  len(displayed),
		spinner:    a.spinner.View(),
	}, a.width)
	status := RenderStatusBar(a.cursor, len(displayed), a.ctl.WorkingSize(), a.width, a.help.View(a.keys), a.flash)

	return tabs + "\n" + list + footer + "\n" + status
}

// Cursor returns the selected row (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Displayed returns the displayed list (for testing).
func (a App) Displayed() []catalog.Item {
	return a.ctl.Displayed()
}

// Category returns the active filter.
func (a App) Category() catalog.Category {
	return a.category
}

// Controller exposes the loading state machine (for testing).
func (a App) Controller() *gallery.Controller {
	return a.ctl
}
