package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/quizbank/internal/grading"
	"github.com/pavelanni/quizbank/internal/handler"
	appI18n "github.com/pavelanni/quizbank/internal/i18n"
	"github.com/pavelanni/quizbank/internal/llm"
	"github.com/pavelanni/quizbank/internal/llm/prompts"
	"github.com/pavelanni/quizbank/internal/model"
	"github.com/pavelanni/quizbank/internal/quizgen"
	"github.com/pavelanni/quizbank/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizbank",
		Short: "Question bank, quiz builder and auto-grader",
	}

	serve := serveCmd()
	root.AddCommand(serve, subjectsCmd(), importCmd(), exportCmd(), draftCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizbank --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addStorageFlags(f *pflag.FlagSet) {
	f.String("data-dir", "data", "Directory holding subject folders (json backend)")
	f.String("backend", "json", "Storage backend (json, sqlite)")
	f.String("db", "quizbank.db", "SQLite database path (sqlite backend)")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty disables drafting)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	addStorageFlags(f)
	f.StringP("lang", "l", "en", "Default language (en, ru)")
	f.String("missing-questions", string(grading.SkipMissing), "How grading treats deleted questions (skip, fail)")
	f.StringSlice("cors-origins", nil, "Allowed CORS origins (repeatable; empty disables CORS)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /quiz)")
	f.Bool("secure-cookies", true, "Set Secure flag on the subject cookie")
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func subjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "List subjects",
		RunE:  runSubjects,
	}
	f := cmd.Flags()
	addStorageFlags(f)
	addLogFlags(f)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [flags] FILE...",
		Short: "Import questions from JSON files into a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.StringP("subject", "s", "", "Subject to import into (empty for the default namespace)")
	f.Bool("force", false, "Import even if the file was imported before unchanged")
	addStorageFlags(f)
	addLogFlags(f)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a subject's questions, quizzes and attempts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("subject", "s", "", "Subject to export (empty for the default namespace)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addStorageFlags(f)
	addLogFlags(f)
	return cmd
}

func draftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft single-choice questions with an LLM and save them",
		RunE:  runDraft,
	}
	f := cmd.Flags()
	f.StringP("subject", "s", "", "Subject to save into (empty for the default namespace)")
	f.StringP("topic", "t", "", "Topic to write questions about (required)")
	f.IntP("num-questions", "n", 5, "Number of questions to draft")
	f.StringP("difficulty", "d", string(prompts.DifficultyStandard), "Difficulty (easy, standard, hard)")
	f.String("category", "", "Category ID for the drafted questions")
	f.StringP("lang", "l", "en", "Language of the drafted questions")
	addStorageFlags(f)
	addLLMFlags(f)
	addLogFlags(f)

	_ = cmd.MarkFlagRequired("topic")

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

	v.SetEnvPrefix("QUIZBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizbank")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizbank")
	v.AddConfigPath("/etc/quizbank")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openBackend opens the storage backend selected by --backend.
func openBackend(v *viper.Viper) (store.Backend, error) {
	switch strings.ToLower(v.GetString("backend")) {
	case "", "json":
		b := store.NewFileBackend(v.GetString("data-dir"))
		slog.Debug("using file backend", "root", b.Root())
		return b, nil
	case "sqlite":
		b, err := store.NewSQLiteBackend(v.GetString("db"))
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		slog.Debug("using sqlite backend", "db", v.GetString("db"))
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want json or sqlite)", v.GetString("backend"))
	}
}

// newLLMClient returns nil when no LLM URL is configured.
func newLLMClient(ctx context.Context, v *viper.Viper) (*llm.Client, error) {
	url := v.GetString("llm-url")
	if url == "" {
		return nil, nil
	}
	c := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
	return c, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	backend, err := openBackend(v)
	if err != nil {
		return err
	}
	defer backend.Close()

	// The default namespace always exists.
	if _, err := store.Open(backend, ""); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	policy, err := grading.ParseMissingPolicy(v.GetString("missing-questions"))
	if err != nil {
		return err
	}

	llmClient, err := newLLMClient(cmd.Context(), v)
	if err != nil {
		return err
	}
	// A nil *llm.Client must not become a non-nil Drafter.
	var drafter handler.Drafter
	if llmClient != nil {
		drafter = llmClient
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.Config{
		DataDir:          v.GetString("data-dir"),
		Backend:          v.GetString("backend"),
		DBPath:           v.GetString("db"),
		Lang:             lang,
		MissingQuestions: string(policy),
		SecureCookies:    v.GetBool("secure-cookies"),
		BasePath:         basePath,
	}

	h := handler.New(backend, grading.New(grading.WithMissingPolicy(policy)), quizgen.New(), drafter, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if origins := v.GetStringSlice("cors-origins"); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Accept-Language"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(appI18n.Middleware())

	if basePath != "" {
		r.Route(basePath, h.Routes)
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"backend", cfg.Backend,
		"data_dir", cfg.DataDir,
		"lang", lang,
		"missing_questions", cfg.MissingQuestions,
		"drafting", drafter != nil,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

func runSubjects(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	backend, err := openBackend(v)
	if err != nil {
		return err
	}
	defer backend.Close()

	subjects, err := store.Subjects(backend)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}
	for _, s := range subjects {
		fmt.Fprintln(cmd.OutOrStdout(), s)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	backend, err := openBackend(v)
	if err != nil {
		return err
	}
	defer backend.Close()

	s, err := store.Open(backend, v.GetString("subject"))
	if err != nil {
		return fmt.Errorf("open subject: %w", err)
	}

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if v.GetBool("force") {
			n, err := s.ImportQuestions(data)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			slog.Info("imported questions", "path", path, "count", n)
			continue
		}
		n, skipped, err := s.ImportFile(filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		if !skipped {
			slog.Info("imported questions", "path", path, "count", n)
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	backend, err := openBackend(v)
	if err != nil {
		return err
	}
	defer backend.Close()

	subject := v.GetString("subject")
	if subject != "" {
		ok, err := store.SubjectExists(backend, subject)
		if err != nil {
			return fmt.Errorf("check subject: %w", err)
		}
		if !ok {
			return fmt.Errorf("subject %q does not exist", subject)
		}
	}
	s, err := store.Open(backend, subject)
	if err != nil {
		return fmt.Errorf("open subject: %w", err)
	}

	data, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func runDraft(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	client, err := newLLMClient(cmd.Context(), v)
	if err != nil {
		return err
	}
	if client == nil {
		return fmt.Errorf("no LLM configured: set --llm-url or QUIZBANK_LLM_URL")
	}

	backend, err := openBackend(v)
	if err != nil {
		return err
	}
	defer backend.Close()

	s, err := store.Open(backend, v.GetString("subject"))
	if err != nil {
		return fmt.Errorf("open subject: %w", err)
	}

	difficulty := strings.ToLower(v.GetString("difficulty"))
	if !prompts.IsValidDifficulty(difficulty) {
		slog.Warn("invalid difficulty, using standard", "difficulty", difficulty)
		difficulty = string(prompts.DifficultyStandard)
	}

	questions, err := client.DraftQuestions(cmd.Context(), llm.DraftRequest{
		Topic:      v.GetString("topic"),
		Subject:    s.Subject(),
		Count:      v.GetInt("num-questions"),
		Difficulty: prompts.Difficulty(difficulty),
		Lang:       v.GetString("lang"),
		CategoryID: v.GetString("category"),
	})
	if err != nil {
		return fmt.Errorf("draft questions: %w", err)
	}
	n, err := s.SaveQuestions(questions)
	if err != nil {
		return fmt.Errorf("save questions: %w", err)
	}
	for _, q := range questions {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", q.ID, q.QuestionText)
	}
	slog.Info("saved drafted questions", "subject", s.Subject(), "count", n)
	return nil
}
