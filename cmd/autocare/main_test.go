package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/autocare/assistant"
	"github.com/aschepis/backscratcher/autocare/config"
	"github.com/aschepis/backscratcher/autocare/migrations"
	"github.com/aschepis/backscratcher/autocare/screens"
	"github.com/aschepis/backscratcher/autocare/speech"
	"github.com/aschepis/backscratcher/autocare/storage"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.RunMigrations(db, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return storage.NewRepository(storage.NewStore(db, zerolog.Nop()), zerolog.Nop())
}

type recordingSpeaker struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSpeaker) Say(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func TestRepl_AnswersUntilQuit(t *testing.T) {
	repo := setupTestRepo(t)
	session := assistant.NewSession(repo, zerolog.Nop())
	in := strings.NewReader("ayuda\n\nsalir\nhola\n")
	var out bytes.Buffer
	speaker := &recordingSpeaker{}

	if err := repl(context.Background(), session, in, &out, speaker, zerolog.Nop()); err != nil {
		t.Fatalf("repl: %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, assistant.WelcomeMessage) {
		t.Fatalf("output should start with the welcome message: %q", got)
	}
	if !strings.Contains(got, "Puedo:") {
		t.Fatalf("help reply missing: %q", got)
	}
	if strings.Contains(got, "Estoy conectado") {
		t.Fatalf("input after the quit word was answered: %q", got)
	}
	// welcome plus one reply
	if len(speaker.texts) != 2 {
		t.Fatalf("expected 2 spoken texts, got %d", len(speaker.texts))
	}
}

func TestRepl_EndsAtEOF(t *testing.T) {
	session := assistant.NewSession(setupTestRepo(t), zerolog.Nop())
	var out bytes.Buffer
	if err := repl(context.Background(), session, strings.NewReader("resumen"), &out, &recordingSpeaker{}, zerolog.Nop()); err != nil {
		t.Fatalf("repl: %v", err)
	}
	if !strings.Contains(out.String(), "Resumen de tu aplicación:") {
		t.Fatalf("summary missing: %q", out.String())
	}
}

func TestImportSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	path := filepath.Join(t.TempDir(), "snapshot.json")
	snapshot := `{
  "screenStates": {"Profile": {"name": "Ana", "documents": ["SOAT"]}},
  "profileExtras": {"soat": "2025-12-01", "picoyplaca": "Lunes"}
}`
	if err := os.WriteFile(path, []byte(snapshot), 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	if err := importSnapshot(ctx, repo, path); err != nil {
		t.Fatalf("importSnapshot: %v", err)
	}

	st, err := repo.ReadScreenStates(ctx)
	if err != nil || st.Profile == nil || st.Profile.Name != "Ana" {
		t.Fatalf("ReadScreenStates = %+v, %v", st.Profile, err)
	}
	extras, err := repo.ReadLegacyProfileExtras(ctx)
	if err != nil || extras == nil || extras.PicoYPlaca != "Lunes" {
		t.Fatalf("ReadLegacyProfileExtras = %+v, %v", extras, err)
	}
}

func TestImportSnapshot_Errors(t *testing.T) {
	repo := setupTestRepo(t)
	if err := importSnapshot(context.Background(), repo, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := importSnapshot(context.Background(), repo, path); err == nil {
		t.Fatal("expected error for malformed snapshot")
	}
}

func TestIsQuit(t *testing.T) {
	for _, w := range []string{"salir", "SALIR", "exit", "Quit"} {
		if !isQuit(w) {
			t.Fatalf("%q should quit", w)
		}
	}
	if isQuit("salir de la ruta") {
		t.Fatal("sentences containing a quit word should not quit")
	}
}

// failingWriter accepts ok writes and fails every one after that.
type failingWriter struct {
	ok     int
	writes int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > w.ok {
		return 0, errors.New("broken pipe")
	}
	return len(p), nil
}

func TestRepl_PromptWriteErrorEndsLoop(t *testing.T) {
	session := assistant.NewSession(setupTestRepo(t), zerolog.Nop())
	out := &failingWriter{ok: 1}
	err := repl(context.Background(), session, strings.NewReader("\n\nayuda\n"), out, &recordingSpeaker{}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected the failed prompt write to be returned")
	}
	if out.writes != 2 {
		t.Fatalf("loop kept writing after a failure: %d writes", out.writes)
	}
}

func TestAnswerOnce_WaitsForSpeech(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ctx := context.Background()
	session := assistant.NewSession(setupTestRepo(t), zerolog.Nop())
	spoken := filepath.Join(t.TempDir(), "spoken.txt")
	cs := speech.NewCommandSpeaker("sh", []string{"-c", `sleep 0.2; echo "$0" > '` + spoken + `'`}, zerolog.Nop())
	defer cs.Stop()

	var out bytes.Buffer
	if err := answerOnce(ctx, session, "ayuda", &out, cs, zerolog.Nop()); err != nil {
		t.Fatalf("answerOnce: %v", err)
	}
	if !strings.Contains(out.String(), "Puedo:") {
		t.Fatalf("help reply missing: %q", out.String())
	}
	got, err := os.ReadFile(spoken)
	if err != nil {
		t.Fatalf("speech was cut short: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(got)), "Puedo:") {
		t.Fatalf("spoken text = %q", got)
	}
}

func TestDescribeScreen(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	st := screens.State{Route: &screens.RouteState{Routes: []string{"Casa - Trabajo"}, Favorite: "Casa - Trabajo"}}
	if err := repo.WriteScreenStates(ctx, st); err != nil {
		t.Fatalf("WriteScreenStates: %v", err)
	}
	session := assistant.NewSession(repo, zerolog.Nop())

	got, err := describeScreen(ctx, session, "Route")
	if err != nil {
		t.Fatalf("describeScreen: %v", err)
	}
	if !strings.HasPrefix(got, "Route: ") || !strings.Contains(got, "Casa - Trabajo") {
		t.Fatalf("unexpected route description %q", got)
	}

	for _, bad := range []string{"", "Settings", "route"} {
		if _, err := describeScreen(ctx, session, bad); err == nil {
			t.Fatalf("describeScreen(%q) should fail", bad)
		}
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := config.Defaults(); cfg.DBPath != want.DBPath || cfg.Reminders.Schedule != want.Reminders.Schedule {
		t.Fatalf("written config differs from defaults: %+v", cfg)
	}
	if err := writeDefaultConfig(path); err == nil {
		t.Fatal("expected an existing config file to be kept")
	}
}
