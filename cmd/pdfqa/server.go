package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/pdfqa/internal/config"
	"github.com/hyperjump/pdfqa/internal/embedding"
	"github.com/hyperjump/pdfqa/internal/extract"
	"github.com/hyperjump/pdfqa/internal/indexer"
	"github.com/hyperjump/pdfqa/internal/search"
	"github.com/hyperjump/pdfqa/internal/server"
	"github.com/hyperjump/pdfqa/internal/storage"
	"github.com/hyperjump/pdfqa/internal/synth"
	"github.com/hyperjump/pdfqa/internal/watcher"
	"github.com/hyperjump/pdfqa/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")
			return runServer(configPath, debug)
		},
	}
	cmd.Flags().String("config", defaultConfigPath, "config file path")
	cmd.Flags().Bool("debug", false, "enable debug logging")
	return cmd
}

func runServer(configPath string, debug bool) error {
	cfg, resolvedConfigPath, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize components", zap.Error(err))
		return err
	}
	defer components.Close()

	go components.Janitor.Run(ctx)

	inbox := watcher.NewInbox(components.Indexer, &cfg.Watch, logger)
	if err := inbox.Start(ctx); err != nil {
		logger.Error("failed to start inbox watcher", zap.Error(err))
		return err
	}
	defer inbox.Stop()

	srv := server.NewServer(
		components.Indexer,
		components.Engine,
		components.Synthesizer,
		components.Storage,
		cfg,
		logger,
		server.WithWatchService(inbox),
	)
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case err := <-serveErr:
		logger.Error("server failed", zap.Error(err))
		cancel()
		return err
	}

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

// Components holds the long-lived services behind the HTTP server.
type Components struct {
	Storage     storage.Storage
	Embedder    embedding.Embedder
	Synthesizer synth.Synthesizer
	Janitor     *storage.Janitor
	Indexer     *indexer.Indexer
	Engine      *search.Engine
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if closer, ok := c.Synthesizer.(io.Closer); ok {
		_ = closer.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.New(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	embedder, err := embedding.New(ctx, &cfg.Embedding)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Embedder = embedder

	synthesizer, err := synth.New(ctx, &cfg.Synthesis)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize synthesizer: %w", err)
	}
	c.Synthesizer = synthesizer

	logger.Info("components initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("embedding_model", embedder.Model()),
		zap.Int("dimensions", embedder.Dimensions()),
		zap.String("synthesizer", synthesizer.Name()),
	)

	c.Janitor = storage.NewJanitor(store, &cfg.Storage, storage.WithJanitorLogger(logger))
	extractor := extract.NewExtractor(extract.WithMaxPages(cfg.Extraction.MaxPages))
	c.Indexer = indexer.NewIndexer(store, embedder, extractor, cfg,
		indexer.WithLogger(logger),
		indexer.WithJanitor(c.Janitor),
	)
	c.Engine = search.NewEngine(c.Indexer, embedder, &cfg.Search, search.WithLogger(logger))
	return c, nil
}
