package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	cronlib "github.com/robfig/cron/v3"

	"github.com/vocabtrainer/server/internal/config"
	"github.com/vocabtrainer/server/internal/domain/buffer"
	"github.com/vocabtrainer/server/internal/domain/builder"
	"github.com/vocabtrainer/server/internal/domain/session"
	"github.com/vocabtrainer/server/internal/generation"
	"github.com/vocabtrainer/server/internal/generation/local"
	"github.com/vocabtrainer/server/internal/generation/mock"
	"github.com/vocabtrainer/server/internal/importer"
	"github.com/vocabtrainer/server/internal/importer/fswatch"
	"github.com/vocabtrainer/server/internal/mcp"
	"github.com/vocabtrainer/server/internal/sqlite"
	"github.com/vocabtrainer/server/internal/transport"
	"github.com/vocabtrainer/server/internal/tts"
	"github.com/vocabtrainer/server/internal/tts/noop"
	"github.com/vocabtrainer/server/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("VOCABTRAINER_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runEmbeddedMigrations(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	words := sqlite.NewWordRepository(db)
	clusters := sqlite.NewClusterRepository(db)
	questions := sqlite.NewQuestionRepository(db)
	progress := sqlite.NewProgressRepository(db)
	sessions := sqlite.NewSessionRepository(db)
	fileMtimes := sqlite.NewFileMtimeRepository(db)
	audioCache := sqlite.NewAudioCacheRepository(db)

	provider := newGenerationProvider(cfg.Generation)
	speaker := newTTSProvider(cfg.TTS)

	b := builder.New(words, clusters, questions, cfg.Generation.Backend)
	scheduler := buffer.NewScheduler()
	controller := buffer.NewController(questions, b, provider, scheduler, cfg.Session.MinReadyQuestions, logger)

	composer := session.NewComposer(questions, progress, sessions, clusters, controller, speaker, audioCache, cfg.Session.SessionSize, cfg.Session.ArchiveIntervalDays, logger)
	dispatcher := transport.NewDispatcher(composer, scheduler, controller, provider)

	sweep := startSweep(cfg.Session.SweepSchedule, controller, cfg.Session.SessionSize, logger)
	defer sweep.Stop()

	if cfg.Import.Enabled {
		go runImportWatcher(context.Background(), cfg.Import.Dir, fileMtimes, logger)
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	// Branch based on transport mode
	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
	} else {
		runHTTPMode(logger, mcpServer, cfg.Server.Host, cfg.Server.Port)
	}

	scheduler.Shutdown()
}

// newGenerationProvider selects the generation backend named by cfg. The
// mock backend is for local development and tests without a reachable
// model endpoint; it is never the default.
func newGenerationProvider(cfg config.GenerationConfig) generation.Provider {
	if cfg.Backend == "mock" {
		return &mock.Provider{Responses: []string{`{"stem":"placeholder","choices":["a","b","c","d"],"correct_index":0,"explanation":"placeholder","context_sentence":"placeholder"}`}}
	}
	return local.New(cfg.Endpoint, cfg.APIKey, cfg.Model)
}

// newTTSProvider selects the speech-synthesis backend named by cfg.
// Real synthesis backends are out of scope; noop is the only
// implementation today and is wired unconditionally, so the contract
// (content-hash attachment to every delivered question) is still
// exercised end to end.
func newTTSProvider(cfg config.TTSConfig) tts.Provider {
	return noop.Provider{}
}

// startSweep registers the periodic archival sweep: an opportunistic
// buffer re-check independent of any live session's in-flight demand,
// so word/cluster pairs needing new questions get a chance to fill even
// when nobody is actively answering.
func startSweep(schedule string, controller *buffer.Controller, sessionSize int, logger *slog.Logger) *cronlib.Cron {
	c := cronlib.New()
	_, err := c.AddFunc(schedule, func() {
		if err := controller.Check(context.Background(), sessionSize); err != nil {
			logger.Warn("sweep check failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("invalid sweep schedule, sweep disabled", "schedule", schedule, "error", err)
		return cronlib.New()
	}
	c.Start()
	return c
}

// runImportWatcher watches the configured vocabulary source directory
// for changes. It does not parse markdown; for each settled change it
// records the time the change was observed so a future import pass can
// diff against it, and logs the rest.
func runImportWatcher(ctx context.Context, dir string, fileMtimes *sqlite.FileMtimeRepository, logger *slog.Logger) {
	var w importer.Watcher = fswatch.New(logger)
	err := w.Watch(ctx, dir, func(path string) {
		if err := fileMtimes.Set(ctx, path, time.Now().UTC()); err != nil {
			logger.Warn("recording changed source file failed", "path", path, "error", err)
			return
		}
		logger.Info("vocabulary source file changed", "path", path)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("import watcher stopped", "error", err)
	}
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Create stdio transport
	transport := &sdkmcp.StdioTransport{}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, transport); err != nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func runHTTPMode(logger *slog.Logger, mcpServer *sdkmcp.Server, host string, port int) {
	// Create HTTP handler using SDK
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	// Create router with MCP and health endpoints
	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func runEmbeddedMigrations(db *sqlite.DB) error {
	data, err := migrations.FS.ReadFile("001_initial_schema.up.sql")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	if _, err := db.Exec(string(data)); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}
	if size <= keepLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
