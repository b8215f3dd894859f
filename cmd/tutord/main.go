package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tutord/internal/common/fsutil"
	"tutord/internal/config"
	"tutord/internal/evaluator"
	"tutord/internal/history"
	"tutord/internal/httpapi"
	"tutord/internal/lessons"
	"tutord/internal/manager"
	"tutord/internal/progress"
	"tutord/internal/registry"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type serveFlags struct {
	configPath  string
	addr        string
	modelsDir   string
	serverBin   string
	chatModel   string
	evalModel   string
	lessonsDir  string
	progressDir string
	logLevel    string
	corsOrigins string
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tutord",
		Short:         "Local model orchestration daemon for the Xilo tutor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var sf serveFlags
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(sf)
		},
	}
	serveCmd.Flags().StringVar(&sf.configPath, "config", "", "Path to config file (.yaml/.json/.toml)")
	serveCmd.Flags().StringVar(&sf.addr, "addr", "", "HTTP listen address, e.g. :8080")
	serveCmd.Flags().StringVar(&sf.modelsDir, "models-dir", "", "Directory holding *.gguf model files")
	serveCmd.Flags().StringVar(&sf.serverBin, "server-bin", "", "Path to the llama-server binary")
	serveCmd.Flags().StringVar(&sf.chatModel, "chat-model", "", "Model to activate for the chat role at startup")
	serveCmd.Flags().StringVar(&sf.evalModel, "eval-model", "", "Model to activate for the evaluation role at startup")
	serveCmd.Flags().StringVar(&sf.lessonsDir, "lessons-dir", "", "Directory holding lesson content")
	serveCmd.Flags().StringVar(&sf.progressDir, "progress-dir", "", "Directory for per-user progress files")
	serveCmd.Flags().StringVar(&sf.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	serveCmd.Flags().StringVar(&sf.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	root.AddCommand(serveCmd)

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List known models and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtimeVersion, _ := cmd.Flags().GetString("runtime-version")
			reg := registry.New(registry.Builtin(), registry.RuntimeInfo{LibraryVersion: runtimeVersion})
			for _, m := range reg.Snapshot() {
				compat := "ok"
				if !m.Compatible {
					compat = "incompatible"
				}
				fmt.Printf("%-18s %-28s %6d MB  %-18s exclusive=%-5v roles=%s  %s\n",
					m.Key, m.DisplayName, m.VRAMEstimateMB, m.Backend, m.Exclusive,
					strings.Join(m.Roles, ","), compat)
			}
			return nil
		},
	}
	modelsCmd.Flags().String("runtime-version", "", "In-process runtime library version, e.g. 4.49.0")
	root.AddCommand(modelsCmd)

	return root
}

func runServe(sf serveFlags) error {
	cfg, err := loadConfig(sf)
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)
	log.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Msg("tutord starting")

	reg := registry.New(registry.Builtin(), registry.RuntimeInfo{LibraryVersion: cfg.RuntimeVersion})
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Registry:           reg,
		ServerBin:          cfg.ServerBin,
		ModelsDir:          cfg.ModelsDir,
		HealthPollInterval: msDuration(cfg.HealthPollIntervalMS),
		StartTimeout:       msDuration(cfg.StartTimeoutMS),
		GenerateTimeout:    msDuration(cfg.GenerateTimeoutMS),
		DrainTimeout:       msDuration(cfg.DrainTimeoutMS),
		Threads:            cfg.Threads,
		Logger:             log,
	})
	defer mgr.Close()

	hist := history.NewStore(log)
	eval := evaluator.New(mgr, log)

	deps := httpapi.Deps{
		Service:   mgr,
		History:   hist,
		Evaluator: eval,
		Log:       log,
	}
	if cfg.LessonsDir != "" {
		lm, err := lessons.New(cfg.LessonsDir, log)
		if err != nil {
			// Lesson content is optional; chat works without it.
			log.Warn().Err(err).Msg("lesson content unavailable")
		} else {
			deps.Lessons = lm
		}
	}
	if cfg.ProgressDir != "" {
		tracker, err := progress.New(cfg.ProgressDir, log)
		if err != nil {
			return fmt.Errorf("progress tracker: %w", err)
		}
		deps.Progress = tracker
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetChatTimeoutSeconds(int64(msDuration(cfg.GenerateTimeoutMS) / time.Second))
	if cfg.CORSEnable || len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{"GET", "POST", "DELETE", "OPTIONS"},
			[]string{"Accept", "Content-Type", "X-Log-Level"})
	}

	activateStartupModels(ctx, mgr, reg, cfg, log)

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(deps)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// activateStartupModels binds the configured models to their roles. An
// exclusive chat model that also serves evaluation claims both roles,
// matching the single-big-model deployment shape. Failures are logged,
// not fatal: clients can activate models later.
func activateStartupModels(ctx context.Context, mgr *manager.Manager, reg *registry.Registry, cfg config.Config, log zerolog.Logger) {
	if cfg.ChatModel != "" {
		if _, err := mgr.Activate(ctx, cfg.ChatModel, registry.RoleChat); err != nil {
			log.Error().Err(err).Str("model", cfg.ChatModel).Msg("startup chat activation failed")
		} else if desc, ok := reg.Describe(cfg.ChatModel); ok &&
			desc.Exclusive && desc.SupportsRole(registry.RoleEvaluation) && cfg.EvaluationModel == "" {
			if _, err := mgr.Activate(ctx, cfg.ChatModel, registry.RoleEvaluation); err != nil {
				log.Error().Err(err).Str("model", cfg.ChatModel).Msg("startup evaluation rebind failed")
			}
		}
	}
	if cfg.EvaluationModel != "" {
		if _, err := mgr.Activate(ctx, cfg.EvaluationModel, registry.RoleEvaluation); err != nil {
			log.Error().Err(err).Str("model", cfg.EvaluationModel).Msg("startup evaluation activation failed")
		}
	}
}

// loadConfig merges the optional config file with flag and env
// overrides. Flags beat the file; the file beats env; env beats
// defaults.
func loadConfig(sf serveFlags) (config.Config, error) {
	var cfg config.Config
	if sf.configPath != "" {
		loaded, err := config.Load(sf.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if cfg.Addr == "" {
		cfg.Addr = os.Getenv("TUTORD_ADDR")
	}
	if sf.addr != "" {
		cfg.Addr = sf.addr
	}
	if sf.modelsDir != "" {
		cfg.ModelsDir = sf.modelsDir
	}
	if sf.serverBin != "" {
		cfg.ServerBin = sf.serverBin
	}
	if sf.chatModel != "" {
		cfg.ChatModel = sf.chatModel
	}
	if sf.evalModel != "" {
		cfg.EvaluationModel = sf.evalModel
	}
	if sf.lessonsDir != "" {
		cfg.LessonsDir = sf.lessonsDir
	}
	if sf.progressDir != "" {
		cfg.ProgressDir = sf.progressDir
	}
	if sf.logLevel != "" {
		cfg.LogLevel = sf.logLevel
	}
	if sf.corsOrigins != "" {
		cfg.CORSEnable = true
		cfg.CORSOrigins = splitCSV(sf.corsOrigins)
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = "~/models/llm"
	}

	// The default models dir and any user-supplied path may be
	// ~-prefixed; the manager stats these verbatim, so expand here.
	modelsDir, err := fsutil.ExpandHome(cfg.ModelsDir)
	if err != nil {
		return cfg, fmt.Errorf("models dir: %w", err)
	}
	cfg.ModelsDir = modelsDir
	serverBin, err := fsutil.ExpandHome(cfg.ServerBin)
	if err != nil {
		return cfg, fmt.Errorf("server binary: %w", err)
	}
	cfg.ServerBin = serverBin
	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

func msDuration(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

// splitCSV splits a comma-separated list, trimming whitespace and
// dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
