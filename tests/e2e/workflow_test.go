package e2e

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func cliBinary(t *testing.T) string {
	t.Helper()
	binDir := os.Getenv("TRACKLY_BIN_DIR")
	if binDir == "" {
		binDir = filepath.Join("..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)

	cliPath := filepath.Join(binDir, "trackly")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s; build it with 'go build -o bin/trackly ./cmd/trackly'", cliPath)
	}
	return cliPath
}

// isolatedEnv points HOME and the store at a temp dir and drops any
// inherited trackly settings.
func isolatedEnv(tempDir, store string) []string {
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "TRACKLY_") {
			continue
		}
		env = append(env, e)
	}
	return append(env,
		fmt.Sprintf("HOME=%s", tempDir),
		fmt.Sprintf("TRACKLY_CONFIG=%s", store),
	)
}

func TestEndToEndWorkflow(t *testing.T) {
	cliPath := cliBinary(t)
	tempDir := t.TempDir()
	store := filepath.Join(tempDir, "trackly", "trackly.db")
	env := isolatedEnv(tempDir, store)
	today := time.Now().Format("2006-01-02")

	t.Log("Initializing store...")
	runCmd(t, cliPath, env, "init")

	runCmd(t, cliPath, env, "category", "add", "Health")
	runCmd(t, cliPath, env, "tracker", "add", "Run", "--emoji", "🏃", "--category", "Health")
	// the last category is remembered
	runCmd(t, cliPath, env, "tracker", "add", "Stretch", "--emoji", "🧘")

	out := runCmd(t, cliPath, env, "mark", "Run")
	assertContains(t, out, "✓ 🏃 Run completed on "+today)

	out = runCmd(t, cliPath, env, "board")
	assertContains(t, out, "(today)")
	assertContains(t, out, "[x] 🏃 Run  (1)")
	assertContains(t, out, "[ ] 🧘 Stretch  (0)")

	out = runCmd(t, cliPath, env, "board", "--filter", "incomplete")
	if strings.Contains(out, "Run") {
		t.Errorf("incomplete filter should hide Run:\n%s", out)
	}

	t.Log("Exporting to JSON and importing into a second store...")
	exportPath := filepath.Join(tempDir, "state.json")
	runCmd(t, cliPath, env, "export", "-o", exportPath)

	raw, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	var state struct {
		Trackers []json.RawMessage `json:"trackers"`
		Records  []json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if len(state.Trackers) != 2 || len(state.Records) != 1 {
		t.Errorf("export has %d trackers and %d records, want 2 and 1", len(state.Trackers), len(state.Records))
	}

	jsonEnv := isolatedEnv(tempDir, filepath.Join(tempDir, "copy", "trackly.json"))
	runCmd(t, cliPath, jsonEnv, "init")
	out = runCmd(t, cliPath, jsonEnv, "import", exportPath)
	assertContains(t, out, "Imported 1 categories, 2 trackers and 1 records")
	out = runCmd(t, cliPath, jsonEnv, "stats")
	assertContains(t, out, "Completions:      1")

	t.Log("Checking exit codes...")
	if code := exitCode(t, cliPath, env, "mark", "Swim"); code != 2 {
		t.Errorf("unknown tracker should exit 2, got %d", code)
	}

	runCmd(t, cliPath, env, "backup", "create")
	out = runCmd(t, cliPath, env, "backup", "list")
	assertContains(t, out, "Available backups")

	out = runCmd(t, cliPath, env, "doctor")
	assertContains(t, out, "All diagnostics passed!")
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return string(out)
}

func exitCode(t *testing.T, path string, env []string, args ...string) int {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if err != nil {
		t.Fatalf("Command %s %v could not run: %v", path, args, err)
	}
	return 0
}

func assertContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Errorf("output does not contain %q:\n%s", want, out)
	}
}
