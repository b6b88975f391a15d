package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/bu-online/assistant/internal/assistant/dialogue"
	"github.com/bu-online/assistant/internal/assistant/documents"
	"github.com/bu-online/assistant/internal/assistant/knowledge"
	"github.com/bu-online/assistant/internal/assistant/metrics"
	"github.com/bu-online/assistant/internal/assistant/model"
	"github.com/bu-online/assistant/internal/assistant/reasoning"
	"github.com/bu-online/assistant/internal/assistant/repo"
	"github.com/bu-online/assistant/internal/assistant/tax"
	"github.com/bu-online/assistant/internal/core"
	logx "github.com/bu-online/assistant/pkg/logger"
	pkgredis "github.com/bu-online/assistant/pkg/redis"
)

// AppConfig defines all configurable parameters of the assistant,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	// Infrastructure
	Redis pkgredis.Config
	State model.StateConfig

	// Components
	Reasoning model.ReasoningConfig
	Dialogue  model.DialogueConfig
	Documents model.DocumentConfig
}

const consoleConversationID = "console"

func main() {
	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to process environment config: %v\n", err)
		os.Exit(1)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment), Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		logx.Fatal().Err(err).Msg("assistant stopped with error")
	}
	logx.Info().Msg("assistant stopped")
}

func run(ctx context.Context, cfg AppConfig, in io.Reader, out io.Writer) error {
	recorder := metrics.NewRecorder()

	store, closeStore, err := newStateStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := reasoning.NewClient(ctx, cfg.Reasoning, knowledge.LocalKnowledge(), reasoning.WithRecorder(recorder))
	if err != nil {
		return fmt.Errorf("build reasoning client: %w", err)
	}
	defer client.Shutdown()

	if client.CheckHealth(ctx) {
		logx.Info().Str("base_url", cfg.Reasoning.BaseURL).Msg("reasoning service reachable")
	} else {
		logx.Warn().Str("base_url", cfg.Reasoning.BaseURL).Msg("reasoning service unreachable, answers will fall back to local knowledge")
	}

	machine := dialogue.NewMachine(cfg.Dialogue, dialogue.Deps{
		Quick:     knowledge.QuickResponses(),
		Asker:     client,
		Taxes:     tax.NewCalculator(knowledge.DefaultRegimes()),
		Documents: documents.NewGenerator(cfg.Documents),
	})
	assistant := dialogue.NewAssistant(machine, store, dialogue.WithObserver(recorder))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(recorder), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logx.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		err := consoleLoop(gctx, assistant, in, out)
		if cfg.MetricsAddr == "" || err != nil {
			return err
		}
		// keep serving metrics until a signal arrives
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

func newStateStore(ctx context.Context, cfg AppConfig) (model.StateStore, func(), error) {
	if !cfg.Redis.Enabled() {
		logx.Info().Msg("using in-memory conversation state")
		return repo.NewMemoryStateStore(), func() {}, nil
	}
	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("initialise redis client: %w", err)
	}
	logx.Info().Dur("ttl", cfg.State.TTL).Msg("connected to redis for conversation state")
	return repo.NewRedisStateStore(rdb, cfg.State.TTL), func() { _ = rdb.Close() }, nil
}

func metricsMux(recorder *metrics.Recorder) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	return mux
}

// consoleLoop reads one event per line until EOF or cancellation.
func consoleLoop(ctx context.Context, assistant *dialogue.Assistant, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	printReply(out, assistant.OnCommand(ctx, consoleConversationID, "/start"))
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if reply, handled := dispatchLine(ctx, assistant, line); handled {
				printReply(out, reply)
			}
		}
	}
}

func dispatchLine(ctx context.Context, assistant *dialogue.Assistant, line string) (dialogue.Reply, bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return dialogue.Reply{}, false
	case strings.HasPrefix(line, "/cb "):
		return assistant.OnCallback(ctx, consoleConversationID, strings.TrimSpace(strings.TrimPrefix(line, "/cb "))), true
	case strings.HasPrefix(line, "/file "):
		src := strings.TrimSpace(strings.TrimPrefix(line, "/file "))
		tmp, err := copyToTemp(src)
		if err != nil {
			logx.Error().Err(err).Str("path", src).Msg("failed to stage upload")
			return dialogue.Reply{Text: "❌ Не удалось прочитать файл: " + src}, true
		}
		return assistant.OnDocument(ctx, consoleConversationID, tmp), true
	case strings.HasPrefix(line, "/"):
		return assistant.OnCommand(ctx, consoleConversationID, line), true
	default:
		return assistant.OnText(ctx, consoleConversationID, line), true
	}
}

// copyToTemp mimics a transport download. The extension is kept for format detection.
func copyToTemp(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(src))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func printReply(out io.Writer, reply dialogue.Reply) {
	if reply.Empty() {
		return
	}
	if reply.Text != "" {
		fmt.Fprintln(out, reply.Text)
	}
	if a := reply.Attachment; a != nil {
		fmt.Fprintf(out, "📎 %s\n%s\n", a.Path, a.Caption)
	}
	switch reply.Keyboard {
	case dialogue.KeyboardMainMenu:
		for _, label := range dialogue.MainMenu {
			fmt.Fprintf(out, "  [%s]\n", label)
		}
	case dialogue.KeyboardTaxRegimes:
		for _, b := range dialogue.TaxRegimeButtons {
			fmt.Fprintf(out, "  [%s] /cb %s\n", b.Label, b.Data)
		}
	}
	fmt.Fprintln(out, strings.Repeat("─", 40))
}
