package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/readerprint/internal/models"
	"github.com/desertthunder/readerprint/internal/repositories"
	"github.com/desertthunder/readerprint/internal/shared"
	tu "github.com/desertthunder/readerprint/internal/testing"
	"github.com/desertthunder/readerprint/internal/ui"
)

const lpstatOne = `printer Office is idle.  enabled since Mon 03 Mar 2025 09:12:44 AM
	Description: Office Laser
`

const lpstatTwo = lpstatOne + `printer Label disabled since Sun 02 Mar 2025 08:00:00 PM -
	Description: Label Printer
`

func noEnv(string) string { return "" }

// cupsHandler fakes lpstat, lp and percollate. percollate writes a small PDF to its --output path.
func cupsHandler(lpstat string) tu.CommandFunc {
	jobs := 0
	return func(name string, args []string) ([]byte, error) {
		switch name {
		case "lpstat":
			return []byte(lpstat), nil
		case "lp":
			jobs++
			return fmt.Appendf(nil, "request id is Office-%d (1 file(s))\n", jobs), nil
		case "percollate":
			out := tu.ArgValue(args, "--output")
			return nil, os.WriteFile(out, []byte("%PDF-1.4 rendered"), 0600)
		}
		return nil, &tu.ExitCodeError{Code: 127, Stderr: name + ": not found"}
	}
}

// readerServer serves a Reader list with one PDF and one webpage, both hosted by the same server.
func readerServer(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/list/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"count":2,"nextPageCursor":null,"results":[
			{"id":"1","title":"A Paper","source_url":"%[1]s/paper.pdf","updated_at":"2025-03-01T10:00:00Z"},
			{"id":"2","title":"A Post","source_url":"%[1]s/post","updated_at":"2025-03-01T10:05:00Z"}
		]}`, srv.URL)
	})
	mux.HandleFunc("/paper.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7 paper"))
	})
	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>post</body></html>"))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *shared.Config {
	t.Helper()
	dir := t.TempDir()

	config := shared.DefaultConfig()
	config.Reader.Token = "test-token"
	config.Reader.BaseURL = baseURL
	config.Reader.RequestsPerMinute = 0
	config.Printer.Name = "Office"
	config.Printer.SettleDelay = shared.Duration{}
	config.State.Path = filepath.Join(dir, "db.json")
	config.State.TempDir = dir
	config.Database.Path = filepath.Join(dir, "history.db")
	return config
}

type fixture struct {
	runner *Runner
	out    *bytes.Buffer
	cmd    *tu.FakeCommander
	config *shared.Config
}

func newFixture(t *testing.T, config *shared.Config, lpstat string) *fixture {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := tu.NewFakeCommander(cupsHandler(lpstat))
	runner := NewRunner(RunnerOpts{
		Config:     config,
		Logger:     shared.NewLogger(&bytes.Buffer{}),
		Output:     out,
		Commander:  cmd,
		Getenv:     noEnv,
		IsTerminal: func() bool { return false },
	})
	return &fixture{runner: runner, out: out, cmd: cmd, config: config}
}

func (f *fixture) run(args ...string) error {
	return f.runner.App().Run(context.Background(), append([]string{"readerprint"}, args...))
}

func (f *fixture) calls(name string) int {
	n := 0
	for _, c := range f.cmd.Calls() {
		if c.Name == name {
			n++
		}
	}
	return n
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			commander := tu.NewFakeCommander(nil)

			runner := NewRunner(RunnerOpts{
				Config:    config,
				Logger:    logger,
				Output:    output,
				Commander: commander,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if !runner.preloaded {
				t.Error("expected a provided config to be kept")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.commander != commander {
				t.Error("expected commander to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil || runner.preloaded {
				t.Error("expected default config that is replaced on load")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if _, ok := runner.commander.(shared.ExecCommander); !ok {
				t.Errorf("expected ExecCommander, got %T", runner.commander)
			}
			if runner.transport != http.DefaultTransport {
				t.Error("expected transport to default to http.DefaultTransport")
			}
			if runner.getenv == nil || runner.isTerminal == nil || runner.pick == nil {
				t.Error("expected environment hooks to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"sync", "printers", "state", "history", "setup"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestRunnerConfig(t *testing.T) {
	t.Run("missing default config falls back to defaults", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, t.TempDir())
		t.Cleanup(func() { os.Chdir(wd) })
		out := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Logger:    shared.NewLogger(&bytes.Buffer{}),
			Output:    out,
			Commander: tu.NewFakeCommander(cupsHandler(lpstatOne)),
			Getenv:    noEnv,
		})

		if err := runner.App().Run(context.Background(), []string{"readerprint", "printers"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if runner.config.Reader.BaseURL != shared.DefaultConfig().Reader.BaseURL {
			t.Error("expected default config")
		}
	})

	t.Run("explicit missing config is an error", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{}), Output: &bytes.Buffer{}, Getenv: noEnv})
		path := filepath.Join(t.TempDir(), "nope.toml")

		err := runner.App().Run(context.Background(), []string{"readerprint", "--config", path, "printers"})
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("loads file and applies environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := "[reader]\ntoken = \"from-file\"\n\n[printer]\nname = \"FromFile\"\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		runner := NewRunner(RunnerOpts{
			Logger:    shared.NewLogger(&bytes.Buffer{}),
			Output:    &bytes.Buffer{},
			Commander: tu.NewFakeCommander(cupsHandler(lpstatOne)),
			Getenv: func(key string) string {
				if key == shared.EnvPrinter {
					return "FromEnv"
				}
				return ""
			},
		})

		if err := runner.App().Run(context.Background(), []string{"readerprint", "-c", path, "printers"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if runner.config.Reader.Token != "from-file" {
			t.Errorf("expected token from file, got %q", runner.config.Reader.Token)
		}
		if runner.config.Printer.Name != "FromEnv" {
			t.Errorf("expected env printer override, got %q", runner.config.Printer.Name)
		}
		if runner.config.Converter.Renderer != "percollate" {
			t.Error("expected defaults for keys missing from the file")
		}
	})

	t.Run("invalid config is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[printer]\nsettle_delay = \"soon\"\n"), 0600); err != nil {
			t.Fatal(err)
		}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{}), Output: &bytes.Buffer{}, Getenv: noEnv})

		err := runner.App().Run(context.Background(), []string{"readerprint", "-c", path, "printers"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSync(t *testing.T) {
	t.Run("prints new articles once and checkpoints", func(t *testing.T) {
		srv := readerServer(t)
		f := newFixture(t, testConfig(t, srv.URL), lpstatOne)

		if err := f.run("sync"); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}
		if got := f.calls("lp"); got != 2 {
			t.Fatalf("expected 2 print jobs, got %d", got)
		}
		if got := f.calls("percollate"); got != 1 {
			t.Errorf("expected only the webpage to be rendered, got %d renders", got)
		}
		if !strings.Contains(f.out.String(), "Printed: 2, failed: 0, skipped: 0") {
			t.Errorf("unexpected summary:\n%s", f.out.String())
		}

		var state models.SyncState
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, f.config.State.Path)), &state); err != nil {
			t.Fatalf("invalid state file: %v", err)
		}
		if len(state.ProcessedIdentifiers) != 2 {
			t.Errorf("expected 2 processed identifiers, got %v", state.ProcessedIdentifiers)
		}

		temps, _ := filepath.Glob(filepath.Join(f.config.State.TempDir, "readerprint-*.pdf"))
		if len(temps) != 0 {
			t.Errorf("expected temp PDFs to be removed, found %v", temps)
		}

		f.out.Reset()
		if err := f.run("sync"); err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if got := f.calls("lp"); got != 2 {
			t.Errorf("second run must not print again, total jobs %d", got)
		}
		if !strings.Contains(f.out.String(), "Found 0 new articles") {
			t.Errorf("expected nothing new on second run:\n%s", f.out.String())
		}

		f.out.Reset()
		if err := f.run("history", "--format", "csv"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if got := strings.Count(f.out.String(), ",printed,"); got != 2 {
			t.Errorf("expected 2 printed history rows, got %d:\n%s", got, f.out.String())
		}
	})

	t.Run("dry run prints nothing and saves nothing", func(t *testing.T) {
		srv := readerServer(t)
		f := newFixture(t, testConfig(t, srv.URL), lpstatOne)

		if err := f.run("sync", "--dry-run"); err != nil {
			t.Fatalf("dry run failed: %v", err)
		}
		if f.calls("lp") != 0 || f.calls("percollate") != 0 {
			t.Errorf("dry run must not convert or print: %v", f.cmd.Calls())
		}
		tu.AssertNoFile(t, f.config.State.Path)
		tu.AssertNoFile(t, f.config.Database.Path)
		for _, want := range []string{"Dry Run Complete", "Would print:", "1. A Paper", "2. A Post"} {
			if !strings.Contains(f.out.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, f.out.String())
			}
		}
	})

	t.Run("missing token fails before side effects", func(t *testing.T) {
		config := testConfig(t, "http://127.0.0.1:1")
		config.Reader.Token = ""
		f := newFixture(t, config, lpstatOne)

		err := f.run("sync")
		if !errors.Is(err, shared.ErrMissingConfig) || !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if len(f.cmd.Calls()) != 0 {
			t.Errorf("expected no commands, got %v", f.cmd.Calls())
		}
	})

	t.Run("unknown printer fails before fetching", func(t *testing.T) {
		srv := readerServer(t)
		f := newFixture(t, testConfig(t, srv.URL), lpstatOne)

		err := f.run("sync", "--printer", "Basement")
		if !errors.Is(err, shared.ErrPrinterNotFound) {
			t.Errorf("expected ErrPrinterNotFound, got %v", err)
		}
		if f.calls("lp") != 0 {
			t.Error("nothing should be printed")
		}
		tu.AssertNoFile(t, f.config.State.Path)
		tu.AssertNoFile(t, f.config.Database.Path)
	})

	t.Run("no printer without a terminal", func(t *testing.T) {
		config := testConfig(t, "http://127.0.0.1:1")
		config.Printer.Name = ""
		f := newFixture(t, config, lpstatTwo)

		if err := f.run("sync"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("yes with several printers still needs a choice", func(t *testing.T) {
		config := testConfig(t, "http://127.0.0.1:1")
		config.Printer.Name = ""
		f := newFixture(t, config, lpstatTwo)

		if err := f.run("sync", "--yes"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("yes uses the only printer", func(t *testing.T) {
		srv := readerServer(t)
		config := testConfig(t, srv.URL)
		config.Printer.Name = ""
		f := newFixture(t, config, lpstatOne)

		if err := f.run("sync", "--yes", "--dry-run"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.out.String(), "Printer: Office") {
			t.Errorf("expected Office to be used:\n%s", f.out.String())
		}
	})

	t.Run("picker runs on a terminal", func(t *testing.T) {
		srv := readerServer(t)
		config := testConfig(t, srv.URL)
		config.Printer.Name = ""
		f := newFixture(t, config, lpstatTwo)
		f.runner.isTerminal = func() bool { return true }

		picked := false
		f.runner.pick = func(ctx context.Context, lister ui.PrinterLister) (string, error) {
			picked = true
			printers, err := lister.List(ctx)
			if err != nil || len(printers) != 2 {
				t.Errorf("picker got printers=%v err=%v", printers, err)
			}
			return "Office", nil
		}

		if err := f.run("sync", "--dry-run"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !picked {
			t.Error("expected the picker to run")
		}
	})

	t.Run("picker cancelled", func(t *testing.T) {
		config := testConfig(t, "http://127.0.0.1:1")
		config.Printer.Name = ""
		f := newFixture(t, config, lpstatTwo)
		f.runner.isTerminal = func() bool { return true }
		f.runner.pick = func(context.Context, ui.PrinterLister) (string, error) {
			return "", shared.ErrNoSelection
		}

		if err := f.run("sync"); !errors.Is(err, shared.ErrNoSelection) {
			t.Errorf("expected ErrNoSelection, got %v", err)
		}
	})

	t.Run("source failure is fatal", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		f := newFixture(t, testConfig(t, srv.URL), lpstatOne)

		if err := f.run("sync"); !errors.Is(err, shared.ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
		if f.calls("lp") != 0 {
			t.Error("nothing should be printed")
		}
	})
}

func TestPrinters(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		f := newFixture(t, shared.DefaultConfig(), lpstatTwo)
		if err := f.run("printers"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := "1. Office Laser (Office) - idle\n2. Label Printer (Label) - disabled\n"
		if f.out.String() != want {
			t.Errorf("expected %q, got %q", want, f.out.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		f := newFixture(t, shared.DefaultConfig(), lpstatOne)
		if err := f.run("printers", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var printers []models.Printer
		if err := json.Unmarshal(f.out.Bytes(), &printers); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(printers) != 1 || printers[0].ID != "Office" {
			t.Errorf("unexpected printers %+v", printers)
		}
	})

	t.Run("none", func(t *testing.T) {
		f := newFixture(t, shared.DefaultConfig(), "")
		f.runner.commander = tu.NewFakeCommander(func(string, []string) ([]byte, error) {
			return nil, &tu.ExitCodeError{Code: 1, Stderr: "lpstat: No destinations added."}
		})
		if err := f.run("printers"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.out.String() != "No printers found.\n" {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})
}

func TestState(t *testing.T) {
	config := testConfig(t, "http://127.0.0.1:1")
	f := newFixture(t, config, lpstatOne)

	t.Run("show missing state", func(t *testing.T) {
		if err := f.run("state", "show"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.out.String(), "Processed:  0") {
			t.Errorf("unexpected output:\n%s", f.out.String())
		}
	})

	t.Run("reset with forget", func(t *testing.T) {
		f.out.Reset()
		before := time.Now().Add(-25 * time.Hour)
		if err := f.run("state", "reset", "--since", "24h", "--forget"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.out.String(), "forgotten") {
			t.Errorf("unexpected output %q", f.out.String())
		}

		f.out.Reset()
		if err := f.run("state", "show", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var state models.SyncState
		if err := json.Unmarshal(f.out.Bytes(), &state); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if !state.LastSyncTimestamp.After(before) || !state.LastSyncTimestamp.Before(time.Now().Add(-23*time.Hour)) {
			t.Errorf("unexpected last sync %v", state.LastSyncTimestamp)
		}
		if !strings.Contains(f.out.String(), `"processedIdentifiers"`) {
			t.Errorf("expected contract keys, got %s", f.out.String())
		}
	})

	t.Run("reset rejects negative since", func(t *testing.T) {
		if err := f.run("state", "reset", "--since=-1h"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

// seedHistory records jobs directly into the configured history database.
func seedHistory(t *testing.T, config *shared.Config, jobs ...*models.PrintJob) {
	t.Helper()
	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	repo := repositories.NewPrintJobRepository(db)
	for _, job := range jobs {
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create print job: %v", err)
		}
	}
}

func TestHistory(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		f := newFixture(t, testConfig(t, "http://127.0.0.1:1"), lpstatOne)
		if err := f.run("history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.out.String() != "No print jobs recorded.\n" {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		f := newFixture(t, testConfig(t, "http://127.0.0.1:1"), lpstatOne)
		if err := f.run("history", "--status", "lost"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("negative limit", func(t *testing.T) {
		f := newFixture(t, testConfig(t, "http://127.0.0.1:1"), lpstatOne)
		if err := f.run("history", "--limit=-5"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("latest job for identifier", func(t *testing.T) {
		config := testConfig(t, "http://127.0.0.1:1")
		f := newFixture(t, config, lpstatOne)

		post := models.Document{ID: "2", SourceURL: "https://example.com/post", Title: "A Post"}
		failed := models.NewPrintJob(0, post, "Office", models.JobStatusFailed)
		failed.SetErrorMessage("lp exited with code 1")
		printed := models.NewPrintJob(0, post, "Office", models.JobStatusPrinted)
		printed.SetJobID("Office-9")
		other := models.NewPrintJob(0, models.Document{ID: "3", SourceURL: "https://example.com/other", Title: "Other"}, "Office", models.JobStatusPrinted)
		seedHistory(t, config, failed, printed, other)

		if err := f.run("history", "--identifier", "https://example.com/post"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := f.out.String()
		if strings.Count(out, "\n") != 1 || !strings.Contains(out, "A Post (Office-9)") {
			t.Errorf("expected only the latest job for the post, got %q", out)
		}

		f.out.Reset()
		if err := f.run("history", "--identifier", "https://example.com/never"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.out.String() != "No print jobs recorded.\n" {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		f := newFixture(t, testConfig(t, "http://127.0.0.1:1"), lpstatOne)
		if err := f.run("history", "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("export to file", func(t *testing.T) {
		config := testConfig(t, "http://127.0.0.1:1")
		f := newFixture(t, config, lpstatOne)
		path := filepath.Join(t.TempDir(), "history.md")

		if err := f.run("history", "--format", "markdown", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(tu.MustReadFile(t, path), "# Print History") {
			t.Error("expected markdown export")
		}
		if !strings.Contains(f.out.String(), "Exported 0 jobs") {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		f := newFixture(t, shared.DefaultConfig(), lpstatOne)

		if err := f.run("--config", path, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := f.run("--config", path, "setup", "config"); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		config := testConfig(t, "http://127.0.0.1:1")
		f := newFixture(t, config, lpstatOne)

		if err := f.run("setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
	})

	t.Run("database rollback", func(t *testing.T) {
		config := testConfig(t, "http://127.0.0.1:1")
		f := newFixture(t, config, lpstatOne)

		if err := f.run("setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := f.run("setup", "database", "--rollback"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.out.String(), "Rolled back last migration") {
			t.Errorf("unexpected output %q", f.out.String())
		}

		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		if _, err := db.Exec("SELECT 1 FROM print_jobs LIMIT 1"); err == nil {
			t.Error("print_jobs table should not exist after rollback")
		}

		if err := f.run("setup", "database", "--rollback"); err == nil {
			t.Error("expected error when nothing is left to roll back")
		}
	})
}
