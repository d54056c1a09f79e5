package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"accentscan/internal/api"
	"accentscan/internal/config"
	"accentscan/internal/history"
	"accentscan/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	home := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	configPath := filepath.Join(home, ".config", "accentscan", "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Transcription provider: whisperx")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsErrors(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Classifier.Mode = "vibes"
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "classifier.mode") {
		t.Fatalf("expected classifier.mode validation error, got %v", err)
	}
}

func TestHistoryCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenHistory(t, env.cfg)
	ctx := context.Background()
	base := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	first, err := store.Record(ctx, history.Entry{
		RunID: "run-alpha", Source: "https://youtu.be/alpha", Title: "Alpha talk",
		Status: history.StatusCompleted, Accent: "British", Confidence: 75,
		Explanation: "Detected keywords suggest British accent with confidence 75%.",
		Method:      "keyword", Transcriber: "whisperx", Transcript: "my favourite colour",
		CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := store.Record(ctx, history.Entry{
		RunID: "run-beta", Source: "https://youtu.be/beta", Status: history.StatusFailed,
		ErrorMessage: "Error: download: yt-dlp: exit status 1", CreatedAt: base.Add(time.Hour),
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "Alpha talk")
	requireContains(t, out, "Completed")
	requireContains(t, out, "Failed")
	requireContains(t, out, "75%")

	out, _, err = runCLI(t, []string{"history", "list", "--status", "failed", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list --json: %v", err)
	}
	var resp api.HistoryResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(resp.Items) != 1 || resp.Items[0].RunID != "run-beta" || resp.Summary.Total != 2 {
		t.Fatalf("unexpected json listing: %+v", resp)
	}

	if _, _, err := runCLI(t, []string{"history", "list", "--status", "pending"}, env.configPath); err == nil {
		t.Fatal("expected unknown status to fail")
	}

	out, _, err = runCLI(t, []string{"history", "show", "run-alpha"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Confidence:    75%")
	requireContains(t, out, "my favourite colour")

	if _, _, err := runCLI(t, []string{"history", "show", "404"}, env.configPath); err == nil {
		t.Fatal("expected missing entry to fail")
	}

	out, _, err = runCLI(t, []string{"history", "rm", formatID(first.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("history rm: %v", err)
	}
	requireContains(t, out, "Removed 1 of 1 entries")

	if _, _, err := runCLI(t, []string{"history", "clear"}, env.configPath); err == nil {
		t.Fatal("expected clear without --yes to fail")
	}
	out, _, err = runCLI(t, []string{"history", "clear", "--yes"}, env.configPath)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 entries")

	out, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No analyses recorded")
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.History.Enabled = false
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "history is disabled") {
		t.Fatalf("expected disabled history error, got %v", err)
	}
}

func TestAnalyzeBlankURLIsRecordedAsInvalid(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, []string{"analyze", "   "}, env.configPath)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	requireContains(t, stderr, "Error: download: validate: video URL required")

	out, _, err := runCLI(t, []string{"analyze", "--json", " "}, env.configPath)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	var resp api.ErrorResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if resp.Level != "warning" || resp.RunID == "" {
		t.Fatalf("unexpected error payload: %+v", resp)
	}

	out, _, err = runCLI(t, []string{"history", "list", "--status", "invalid", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var listing api.HistoryResponse
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(listing.Items) != 2 {
		t.Fatalf("expected both failed runs recorded as invalid, got %+v", listing.Items)
	}

	if _, _, err := runCLI(t, []string{"analyze", "--no-history", " "}, env.configPath); !errors.Is(err, errReported) {
		t.Fatalf("expected reported error, got %v", err)
	}
	out, _, _ = runCLI(t, []string{"history", "list", "--json"}, env.configPath)
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if listing.Summary.Total != 2 {
		t.Fatalf("expected --no-history run to be skipped, got %d entries", listing.Summary.Total)
	}
}

func TestAnalyzeRequiresArgument(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"analyze"}, env.configPath); err == nil {
		t.Fatal("expected missing URL argument to fail")
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"== Configuration ==", "== Dependencies ==", "yt-dlp", "FFprobe", "Work directory", "keyword"} {
		requireContains(t, out, want)
	}
	requireContains(t, out, "[OK] 4/4 available")
}
