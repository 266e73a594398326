package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/parole-app/parole/internal/handler"
	appI18n "github.com/parole-app/parole/internal/i18n"
	"github.com/parole-app/parole/internal/model"
	"github.com/parole-app/parole/internal/stats"
	"github.com/parole-app/parole/internal/store"
	"github.com/parole-app/parole/internal/tracker"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "parole",
		Short: "Vocabulary trainer with learning analytics",
	}

	serve := serveCmd()
	root.AddCommand(serve, statsCmd(), exportCmd(), importCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `parole --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func commonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "parole.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func analyticsFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("streak-threshold", stats.DefaultConfig().StreakThreshold, "Minimum test percentage that counts toward the streak")
	f.Float64("mastery-threshold", stats.DefaultConfig().MasteryThreshold, "Accuracy required for a word to count as mastered")
	f.Int("consistency-window", stats.DefaultConfig().ConsistencyWindow, "Trailing attempts used for the consistency score")
	f.Int64("slow-time-ms", stats.DefaultConfig().SlowTimeMs, "Average response time considered slow (ms)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP analytics server",
		RunE:  runServe,
	}
	commonFlags(cmd)
	analyticsFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringSliceP("words", "w", nil, "Paths to word list JSON files to seed (repeatable)")
	f.StringP("lang", "l", "en", "Language for rationale and recommendations (en, it)")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a statistics report",
		RunE:  runStats,
	}
	commonFlags(cmd)
	analyticsFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export words, tests, and word history as JSON",
		RunE:  runExport,
	}
	commonFlags(cmd)
	cmd.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a previously exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	commonFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PAROLE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("parole")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/parole")
	v.AddConfigPath("/etc/parole")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func engineFromConfig(v *viper.Viper) *stats.Engine {
	cfg := stats.DefaultConfig()
	cfg.StreakThreshold = v.GetFloat64("streak-threshold")
	cfg.MasteryThreshold = v.GetFloat64("mastery-threshold")
	cfg.ConsistencyWindow = v.GetInt("consistency-window")
	cfg.SlowTimeMs = v.GetInt64("slow-time-ms")
	return stats.New(cfg)
}

func openTracker(v *viper.Viper) (*store.Store, *tracker.Tracker, error) {
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	t, err := tracker.New(engineFromConfig(v), db, db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load ledger: %w", err)
	}
	return db, t, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedWords(db, v.GetStringSlice("words")); err != nil {
		return fmt.Errorf("seed words: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	t, err := tracker.New(engineFromConfig(v), db, db)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	h := handler.New(db, t)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runStats(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, t, err := openTracker(v)
	if err != nil {
		return err
	}
	defer db.Close()

	return stats.RenderReport(os.Stdout, t.GlobalStats(), t.ChapterStats())
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAll()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	var export model.Export
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.ImportAll(export); err != nil {
		return err
	}
	slog.Info("imported data",
		"path", args[0],
		"words", len(export.Words),
		"tests", len(export.Tests),
	)
	return nil
}

// seedWords loads word list files into an empty catalogue. A non-empty
// catalogue is left alone so restarts don't duplicate words.
func seedWords(db *store.Store, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	count, err := db.WordCount()
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Info("catalogue already seeded, skipping word files", "words", count)
		return nil
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var words []model.Word
		if err := json.Unmarshal(data, &words); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for i, w := range words {
			if w.ID == "" {
				return fmt.Errorf("word %d in %s has no id", i, path)
			}
			if err := db.InsertWord(w); err != nil {
				return fmt.Errorf("insert word %s from %s: %w", w.ID, path, err)
			}
		}
		slog.Info("seeded words", "path", path, "count", len(words))
	}
	return nil
}
