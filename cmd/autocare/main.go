package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/autocare/assistant"
	"github.com/aschepis/backscratcher/autocare/config"
	autocarelogger "github.com/aschepis/backscratcher/autocare/logger"
	"github.com/aschepis/backscratcher/autocare/migrations"
	"github.com/aschepis/backscratcher/autocare/reminders"
	"github.com/aschepis/backscratcher/autocare/screens"
	"github.com/aschepis/backscratcher/autocare/speech"
	"github.com/aschepis/backscratcher/autocare/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dbPath        = flag.String("db", "", "Path to SQLite database file (overrides db_path in config)")
		logFile       = flag.String("logfile", autocarelogger.DefaultFile, "Path to log file. Empty logs to stdout")
		pretty        = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is empty)")
		ask           = flag.String("ask", "", "Answer a single question and exit")
		importPath    = flag.String("import", "", "Import a JSON snapshot into the store and exit")
		speak         = flag.Bool("speak", false, "Read replies aloud")
		remindersOnly = flag.Bool("reminders", false, "Run only the document reminder daemon")
		screen        = flag.String("screen", "", "Print the analysis of one screen (Daily, Agenda, General, Preventive, Emergency, Profile, Route) and exit")
		reset         = flag.Bool("reset", false, "Delete every stored screen record and exit")
		initConfig    = flag.Bool("init-config", false, "Write the default configuration file and exit")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	envErr := godotenv.Load()

	logger, err := autocarelogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if envErr != nil {
		logger.Debug().Msg("No .env file found, using environment variables")
	}

	if *initConfig {
		return writeDefaultConfig(config.GetConfigPath())
	}

	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *speak {
		cfg.Speech.Enabled = true
	}

	logger.Info().Str("db", cfg.DBPath).Msg("autocare starting")

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck // No remedy for db close errors

	if err := migrations.RunMigrations(db, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := storage.NewRepository(storage.NewStore(db, logger), logger, storage.WithHistoryLimit(cfg.HistoryLimit))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *importPath != "":
		return importSnapshot(ctx, repo, *importPath)
	case *remindersOnly:
		return runReminders(ctx, db, repo, cfg, logger)
	case *reset:
		n, err := repo.Reset(ctx)
		if err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}
		fmt.Printf("Se borraron %d registros.\n", n)
		return nil
	}

	session := assistant.NewSession(repo, logger,
		assistant.WithWarningDays(cfg.Agent.WarningDays),
		assistant.WithResponseHistory(cfg.Agent.ResponseHistory),
	)
	defer session.Close()

	if *screen != "" {
		out, err := describeScreen(ctx, session, *screen)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	var speaker speech.Speaker = speech.Nop{}
	if cfg.Speech.Enabled {
		cs := speech.NewCommandSpeaker(cfg.Speech.Command, cfg.Speech.Args, logger)
		defer cs.Stop()
		speaker = cs
	}

	if *ask != "" {
		return answerOnce(ctx, session, *ask, os.Stdout, speaker, logger)
	}

	if cfg.Reminders.Enabled {
		go func() {
			if err := runReminders(ctx, db, repo, cfg, logger); err != nil {
				logger.Error().Err(err).Msg("Reminder daemon failed")
			}
		}()
	}

	return repl(ctx, session, os.Stdin, os.Stdout, speaker, logger)
}

func importSnapshot(ctx context.Context, repo *storage.Repository, path string) error {
	data, err := os.ReadFile(path) //#nosec 304 -- user-selected snapshot file
	if err != nil {
		return fmt.Errorf("failed to read snapshot %q: %w", path, err)
	}
	var snap storage.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot %q: %w", path, err)
	}
	if err := repo.Import(ctx, snap); err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}
	return nil
}

// answerOnce prints the reply to question and, when the speaker plays audio
// in the background, waits for playback to end before returning.
func answerOnce(ctx context.Context, session *assistant.Session, question string, out io.Writer, speaker speech.Speaker, logger zerolog.Logger) error {
	reply := session.Answer(ctx, question)
	if _, err := fmt.Fprintln(out, reply); err != nil {
		return err
	}
	speech.Speak(ctx, speaker, reply, logger)
	if w, ok := speaker.(interface{ Wait() }); ok {
		w.Wait()
	}
	return nil
}

// describeScreen renders the analysis of the named screen from the stored
// snapshot.
func describeScreen(ctx context.Context, session *assistant.Session, name string) (string, error) {
	id := screens.ID(name)
	if !id.Valid() {
		return "", fmt.Errorf("unknown screen %q", name)
	}
	// unreadable records are logged by Refresh and analyzed as empty
	_ = session.Refresh(ctx)

	a := session.Analyze(id)
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n%s", id, a.Status, a.Details)
	for _, line := range a.Bullets {
		fmt.Fprintf(&b, "\n• %s", line)
	}
	return b.String(), nil
}

func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %q already exists", path)
	}
	cfg := config.Defaults()
	if err := config.Save(&cfg, path); err != nil {
		return err
	}
	fmt.Printf("Configuración escrita en %s\n", path)
	return nil
}

func runReminders(ctx context.Context, db *sql.DB, repo *storage.Repository, cfg *config.Config, logger zerolog.Logger) error {
	sched, err := reminders.ParseSchedule(cfg.Reminders.Schedule)
	if err != nil {
		return fmt.Errorf("invalid reminders.schedule: %w", err)
	}
	scheduler, err := reminders.NewScheduler(db, repo, reminders.DesktopNotifier{}, sched, logger,
		reminders.WithHour(cfg.ReminderHour()),
		reminders.WithTitle(cfg.Notifications.Title),
	)
	if err != nil {
		return fmt.Errorf("failed to create reminder scheduler: %w", err)
	}
	scheduler.Start(ctx)
	return nil
}
