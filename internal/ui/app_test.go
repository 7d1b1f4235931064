package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/abelbrown/shutter/internal/catalog"
	"github.com/abelbrown/shutter/internal/gallery"
	"github.com/abelbrown/shutter/internal/metrics"
)

// fakeLoader slices the working set synchronously and fails the first
// failures calls.
type fakeLoader struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (f *fakeLoader) LoadBatch(_ context.Context, working []catalog.Item, start, count int) ([]catalog.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return nil, &gallery.LoadError{Start: start, Count: count, Err: gallery.ErrLoad}
	}
	return gallery.Slice(working, start, count)
}

func (f *fakeLoader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDownloader struct {
	got  []catalog.Item
	path string
	err  error
}

func (d *fakeDownloader) Download(_ context.Context, item catalog.Item) (string, error) {
	d.got = append(d.got, item)
	return d.path, d.err
}

func newTestApp(items []catalog.Item, loader gallery.Loader) App {
	return NewApp(Config{
		Items:      items,
		Loader:     loader,
		Gallery:    gallery.DefaultConfig(),
		RetryDelay: time.Millisecond,
		Trigger:    gallery.Trigger{Margin: gallery.DefaultTriggerMargin},
	})
}

// runCmd executes cmd and returns the messages it produced, flattening
// batches. Spinner ticks are dropped so animation never loops.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, runCmd(c)...)
		}
		return out
	case spinner.TickMsg:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

// pump feeds every message produced by cmd back into the app until no
// commands remain.
func pump(t *testing.T, app App, cmd tea.Cmd) App {
	t.Helper()
	queue := runCmd(cmd)
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("pump: too many messages")
		}
		msg := queue[0]
		queue = queue[1:]
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		model, next := app.Update(msg)
		app = model.(App)
		queue = append(queue, runCmd(next)...)
	}
	return app
}

func press(t *testing.T, app App, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		model, cmd := app.Update(msg)
		app = pump(t, model.(App), cmd)
	}
	return app
}

func resize(t *testing.T, app App, w, h int) App {
	t.Helper()
	model, cmd := app.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return pump(t, model.(App), cmd)
}

func TestAppInitLoadsInitialBatch(t *testing.T) {
	loader := &fakeLoader{}
	app := newTestApp(catalog.Default(), loader)

	app = pump(t, app, app.Init())

	if got := len(app.Displayed()); got != gallery.DefaultInitialBatch {
		t.Errorf("displayed = %d, want %d", got, gallery.DefaultInitialBatch)
	}
	if loader.Calls() != 1 {
		t.Errorf("loader calls = %d, want 1 before the view has a size", loader.Calls())
	}
	if app.Controller().State() != gallery.StateIdle {
		t.Errorf("state = %v, want idle", app.Controller().State())
	}
}

func TestAppTriggerFillsViewport(t *testing.T) {
	loader := &fakeLoader{}
	app := newTestApp(catalog.Default(), loader)
	app = pump(t, app, app.Init())

	// 30 rows leave 27 for images; the sentinel fires while it is within
	// 2 rows of row 26, so loading stops once 28 < displayed.
	app = resize(t, app, 100, 30)
	if got := len(app.Displayed()); got != 36 {
		t.Fatalf("displayed after resize = %d, want 36", got)
	}

	// Jumping to the bottom scrolls the sentinel back into view.
	app = press(t, app, "G")
	if got := len(app.Displayed()); got != 44 {
		t.Fatalf("displayed after G = %d, want 44", got)
	}

	app = press(t, app, "G")
	if got := len(app.Displayed()); got != 50 {
		t.Fatalf("displayed after second G = %d, want 50", got)
	}
	app = press(t, app, "G")
	if app.Controller().State() != gallery.StateExhausted {
		t.Errorf("state = %v, want exhausted", app.Controller().State())
	}
	if !strings.Contains(app.View(), "No more images to load") {
		t.Error("exhausted view should show the end message")
	}

	calls := loader.Calls()
	app = press(t, app, "G", "k", "j")
	if loader.Calls() != calls {
		t.Error("exhausted gallery should not call the loader again")
	}
}

func TestAppDisplayedMatchesWorkingSetPrefix(t *testing.T) {
	items := catalog.Default()
	app := newTestApp(items, &fakeLoader{})
	app = pump(t, app, app.Init())
	app = press(t, app, "2") // landscape
	app = resize(t, app, 100, 60)

	working := gallery.WorkingSet(items, catalog.CategoryLandscape)
	displayed := app.Displayed()
	if len(displayed) != len(working) {
		t.Fatalf("displayed = %d, want %d", len(displayed), len(working))
	}
	for i := range displayed {
		if displayed[i] != working[i] {
			t.Fatalf("displayed[%d] = %v, want %v", i, displayed[i], working[i])
		}
		if displayed[i].Category != catalog.CategoryLandscape {
			t.Fatalf("displayed[%d] has category %s", i, displayed[i].Category)
		}
	}
}

func TestAppRetriesThenFails(t *testing.T) {
	loader := &fakeLoader{failures: -1}
	app := newTestApp(catalog.Default(), loader)
	app = resize(t, app, 100, 30)

	app = pump(t, app, app.Init())

	if loader.Calls() != 4 {
		t.Errorf("loader calls = %d, want 4", loader.Calls())
	}
	if !app.Controller().Terminal() {
		t.Fatalf("state = %v, want terminal error", app.Controller().State())
	}
	if len(app.Displayed()) != 0 {
		t.Errorf("displayed = %d, want 0", len(app.Displayed()))
	}
	view := app.View()
	if !strings.Contains(view, "Failed to load images") || !strings.Contains(view, "R") {
		t.Errorf("terminal view should offer a retry, got:\n%s", view)
	}

	// Scrolling does not restart loading from terminal error.
	app = press(t, app, "j", "G")
	if loader.Calls() != 4 {
		t.Errorf("loader calls after scrolling = %d, want 4", loader.Calls())
	}

	loader.mu.Lock()
	loader.failures = 0
	loader.mu.Unlock()

	app = press(t, app, "R")
	if len(app.Displayed()) == 0 {
		t.Fatal("manual retry should load the batch")
	}
	if app.Controller().State() == gallery.StateError {
		t.Error("manual retry should leave the error state")
	}
}

func TestAppRecoversWithinRetryBudget(t *testing.T) {
	loader := &fakeLoader{failures: 2}
	app := newTestApp(catalog.Default(), loader)

	app = pump(t, app, app.Init())

	if got := len(app.Displayed()); got != 12 {
		t.Errorf("displayed = %d, want 12", got)
	}
	if loader.Calls() != 3 {
		t.Errorf("loader calls = %d, want 3", loader.Calls())
	}
	if app.Controller().RetryCount() != 0 {
		t.Errorf("retry count = %d, want 0 after success", app.Controller().RetryCount())
	}
}

func TestAppStaleCompletionAfterFilterChange(t *testing.T) {
	app := newTestApp(catalog.Default(), &fakeLoader{})

	// Hold the initial "all" load while the user switches to nature.
	stale := app.Init()
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("4")})
	app = pump(t, model.(App), cmd)

	if app.Category() != catalog.CategoryNature {
		t.Fatalf("category = %s, want nature", app.Category())
	}
	before := append([]catalog.Item(nil), app.Displayed()...)
	staleBefore := testutil.ToFloat64(metrics.StaleTotal.WithLabelValues("nature"))

	app = pump(t, app, stale)

	if got := testutil.ToFloat64(metrics.StaleTotal.WithLabelValues("nature")) - staleBefore; got != 1 {
		t.Errorf("stale completions counted = %v, want 1", got)
	}

	after := app.Displayed()
	if len(after) != len(before) {
		t.Fatalf("stale completion changed displayed: %d -> %d", len(before), len(after))
	}
	for _, it := range after {
		if it.Category != catalog.CategoryNature {
			t.Fatalf("non-nature item %q displayed after stale completion", it.Title)
		}
	}
}

func TestAppStaleRetryAfterFilterChange(t *testing.T) {
	loader := &fakeLoader{failures: 1}
	app := newTestApp(catalog.Default(), loader)

	// Resolve the first failure by hand so the retry tick is not run yet.
	msgs := runCmd(app.Init())
	if len(msgs) != 1 {
		t.Fatalf("Init produced %d messages, want 1", len(msgs))
	}
	model, retry := app.Update(msgs[0])
	app = model.(App)
	if !app.Controller().RetryPending() {
		t.Fatal("expected a pending retry")
	}

	app = press(t, app, "tab")
	calls := loader.Calls()
	app = pump(t, app, retry)

	if loader.Calls() != calls {
		t.Error("retry scheduled for the old working set should not load")
	}
	if app.Category() != catalog.CategoryLandscape {
		t.Errorf("category = %s, want landscape", app.Category())
	}
}

func TestAppFilterChangeResets(t *testing.T) {
	app := newTestApp(catalog.Default(), &fakeLoader{})
	app = pump(t, app, app.Init())
	app = press(t, app, "j", "j")
	epoch := app.Controller().Epoch()

	app = press(t, app, "shift+tab")
	if app.Category() != catalog.CategoryAbstract {
		t.Errorf("shift+tab from all = %s, want abstract", app.Category())
	}
	if app.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0 after filter change", app.Cursor())
	}
	if app.Controller().Epoch() != epoch+1 {
		t.Errorf("epoch = %d, want %d", app.Controller().Epoch(), epoch+1)
	}

	// Selecting the active category again is a no-op.
	app = press(t, app, "6")
	if app.Controller().Epoch() != epoch+1 {
		t.Error("re-selecting the active category should not reset")
	}
}

func TestAppEmptyWorkingSet(t *testing.T) {
	items := []catalog.Item{{URL: "https://x/1.png", Category: catalog.CategoryNature, Title: "one"}}
	app := NewApp(Config{Items: items, Loader: &fakeLoader{}, Category: catalog.CategoryPortrait})
	app = resize(t, app, 80, 20)
	app = pump(t, app, app.Init())

	if app.Controller().State() != gallery.StateExhausted {
		t.Errorf("state = %v, want exhausted", app.Controller().State())
	}
	if !strings.Contains(app.View(), "No images in this category") {
		t.Errorf("empty category view:\n%s", app.View())
	}
}

func TestAppNavigation(t *testing.T) {
	app := newTestApp(catalog.Default(), &fakeLoader{})
	app = pump(t, app, app.Init())

	tests := []struct {
		key  string
		want int
	}{
		{"j", 1},
		{"j", 2},
		{"k", 1},
		{"k", 0},
		{"k", 0},
		{"G", 11},
		{"j", 11},
		{"g", 0},
	}
	for _, tt := range tests {
		app = press(t, app, tt.key)
		if app.Cursor() != tt.want {
			t.Errorf("after %q cursor = %d, want %d", tt.key, app.Cursor(), tt.want)
		}
	}
}

func TestAppPreviewTransforms(t *testing.T) {
	app := newTestApp(catalog.Default(), &fakeLoader{})
	app = resize(t, app, 100, 30)
	app = pump(t, app, app.Init())

	app = press(t, app, "enter", "r", "r", "x", "+", "]", "]")
	if !app.preview {
		t.Fatal("enter should open the preview")
	}
	transform, filter := app.transform.CSS()
	if transform != "rotate(180deg) scaleX(-1) scaleY(1)" {
		t.Errorf("transform = %q", transform)
	}
	if filter != "contrast(110%) brightness(120%)" {
		t.Errorf("filter = %q", filter)
	}
	if !strings.Contains(app.View(), "Mountain Vista") {
		t.Error("preview should show the selected title")
	}

	// Navigation keys are not applied while the modal is open.
	if app.Cursor() != 0 {
		t.Errorf("cursor moved under the modal: %d", app.Cursor())
	}

	app = press(t, app, "esc", "j", "enter")
	if app.transform != NewTransform() {
		t.Errorf("transform should reset when opening a new image, got %+v", app.transform)
	}
	app = press(t, app, "q")
	if app.preview {
		t.Error("q should close the preview")
	}
}

func TestAppPreviewEmpty(t *testing.T) {
	app := NewApp(Config{})
	app = press(t, app, "enter")
	if app.preview {
		t.Error("preview should not open without images")
	}
}

func TestAppDownload(t *testing.T) {
	old := flashDuration
	flashDuration = time.Millisecond
	defer func() { flashDuration = old }()

	dl := &fakeDownloader{path: "/tmp/Mountain Vista-1.png"}
	app := NewApp(Config{Items: catalog.Default(), Loader: &fakeLoader{}, Downloader: dl})
	app = pump(t, app, app.Init())

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	app = model.(App)
	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("download produced %d messages, want 1", len(msgs))
	}
	model, _ = app.Update(msgs[0])
	app = model.(App)

	if len(dl.got) != 1 || dl.got[0].Title != "Mountain Vista" {
		t.Fatalf("downloaded %v", dl.got)
	}
	if !strings.Contains(app.flash, "Saved") {
		t.Errorf("flash = %q, want saved message", app.flash)
	}
}

func TestAppDownloadErrorAbsorbed(t *testing.T) {
	dl := &fakeDownloader{err: errors.New("boom")}
	app := NewApp(Config{Items: catalog.Default(), Loader: &fakeLoader{}, Downloader: dl})
	app = pump(t, app, app.Init())
	state := app.Controller().State()
	n := len(app.Displayed())

	model, _ := app.Update(DownloadDone{Item: app.Displayed()[0], Err: errors.New("boom")})
	app = model.(App)

	if !strings.Contains(app.flash, "Download failed") {
		t.Errorf("flash = %q", app.flash)
	}
	if app.Controller().State() != state || len(app.Displayed()) != n {
		t.Error("download failure should not touch gallery state")
	}
}

func TestAppFlashExpires(t *testing.T) {
	app := NewApp(Config{})
	cmd := app.setFlash("hello")
	if app.flash != "hello" {
		t.Fatal("flash not set")
	}
	model, _ := app.Update(clearStatus{Seq: app.flashSeq - 1})
	if model.(App).flash != "hello" {
		t.Error("an older clear should not remove a newer message")
	}
	_ = cmd
	model, _ = app.Update(clearStatus{Seq: app.flashSeq})
	if model.(App).flash != "" {
		t.Error("flash should clear")
	}
}

func TestAppQuitCancelsLoads(t *testing.T) {
	app := newTestApp(catalog.Default(), &fakeLoader{})
	loadCtx := app.loadCtx

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if loadCtx.Err() == nil {
		t.Error("quit should cancel in-flight loads")
	}
	_ = model
}

func TestAppViewNotReady(t *testing.T) {
	app := NewApp(Config{})
	if app.View() != "Loading..." {
		t.Errorf("View before size = %q", app.View())
	}
}

func TestAppLoadingFooter(t *testing.T) {
	app := newTestApp(catalog.Default(), &fakeLoader{})
	app = resize(t, app, 100, 30)
	_ = app.Init() // leaves the controller loading

	if !strings.Contains(app.View(), "Loading images") {
		t.Errorf("loading view should show the spinner line, got:\n%s", app.View())
	}
}
