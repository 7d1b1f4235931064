package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/creack/pty"
)

// buildShutter builds the shutter binary for testing.
func buildShutter(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("e2e: skipped in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("e2e: go toolchain not in PATH")
	}
	binPath := filepath.Join(t.TempDir(), "shutter")

	rootDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// Assume we are in test/e2e, go up 2 levels
	rootDir = filepath.Join(rootDir, "..", "..")

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/shutter")
	cmd.Dir = rootDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	return binPath
}

func TestE2E_BrowseAndFilter(t *testing.T) {
	binPath := buildShutter(t)

	homeDir := t.TempDir()
	dbPath, err := seedFixtureDB(homeDir)
	if err != nil {
		t.Fatalf("failed to seed fixture db: %v", err)
	}

	var outputBuf bytes.Buffer
	console, err := expect.NewConsole(
		expect.WithStdout(&outputBuf),
		expect.WithDefaultTimeout(10*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to create console: %v", err)
	}
	defer console.Close()

	if err := pty.Setsize(console.Tty(), &pty.Winsize{Cols: 120, Rows: 40}); err != nil {
		t.Fatalf("failed to set pty size: %v", err)
	}

	// The program talks to the console's tty, so keys sent to the console
	// reach it. TERM=dumb keeps the renderer from querying the terminal for
	// its colors, which nothing here would answer.
	cmd := exec.Command(binPath)
	cmd.Stdin = console.Tty()
	cmd.Stdout = console.Tty()
	cmd.Stderr = console.Tty()
	cmd.Env = append(os.Environ(),
		"HOME="+homeDir,
		"TERM=dumb",
		"SHUTTER_DATA_DIR="+filepath.Join(homeDir, ".shutter"),
		"SHUTTER_CATALOG_DB="+dbPath,
		"SHUTTER_FAULT_RATE=0",
		"SHUTTER_LATENCY=10ms",
	)
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start shutter: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
	}()

	screenFail := func(step string, err error) {
		t.Helper()
		if logs, rerr := os.ReadFile(filepath.Join(homeDir, ".shutter", "shutter.events.jsonl")); rerr == nil {
			t.Logf("events:\n%s", logs)
		}
		t.Fatalf("%s: %v\nScreen:\n%s", step, err, outputBuf.String())
	}

	// 1. Tab bar, then the first batch of the "all" tab. The status bar only
	// reads "of 51" once that batch is displayed.
	t.Log("Waiting for the first batch...")
	if _, err := console.ExpectString("6 Abstract"); err != nil {
		screenFail("tab bar not rendered", err)
	}
	if _, err := console.ExpectString("Mountain Vista"); err != nil {
		screenFail("first batch not rendered", err)
	}
	if _, err := console.ExpectString("of 51"); err != nil {
		screenFail("status bar not updated", err)
	}

	// 2. Switch to nature; the fixture is the ninth nature image.
	if _, err := console.Send("4"); err != nil {
		t.Fatalf("failed to send 4: %v", err)
	}
	if _, err := console.ExpectString("Fixture Falls"); err != nil {
		screenFail("fixture not shown under nature", err)
	}
	if _, err := console.ExpectString("No more images to load"); err != nil {
		screenFail("nature tab not exhausted", err)
	}

	// 3. Quit.
	if _, err := console.Send("q"); err != nil {
		t.Fatalf("failed to send q: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("process did not exit after 'q'")
	}
}
