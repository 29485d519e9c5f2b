package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/joseph-ayodele/docintel/internal/auth"
	"github.com/joseph-ayodele/docintel/internal/diagnostics"
	"github.com/joseph-ayodele/docintel/internal/export"
	"github.com/joseph-ayodele/docintel/internal/ingest"
	"github.com/joseph-ayodele/docintel/internal/metrics"
	"github.com/joseph-ayodele/docintel/internal/scan"
	"github.com/joseph-ayodele/docintel/internal/server"
	"github.com/joseph-ayodele/docintel/internal/storage"
)

const uploadPrefix = "users/"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP callable, the gRPC health service and the upload pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("starting docintel", "http_addr", cfg.Server.HTTPAddr, "grpc_addr", cfg.Server.GRPCAddr)

		laborers, err := openLaborers(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer laborers.Close()
		if err := laborers.Migrate(ctx); err != nil {
			return err
		}

		prov, err := buildProviders(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer prov.Close()

		rec := metrics.New()
		authenticator, err := auth.NewAuthenticator(cfg.Auth, logger)
		if err != nil {
			return err
		}

		// upload pipeline
		pipeline := ingest.NewPipeline(prov.store, prov.uploadOCR, laborers, logger,
			ingest.WithMetrics(rec),
			ingest.WithMaxBytes(cfg.OCR.MaxFileBytes),
		)
		queue := ingest.NewQueue(pipeline, logger,
			ingest.WithWorkers(cfg.Ingest.Workers),
			ingest.WithQueueSize(cfg.Ingest.QueueSize),
			ingest.WithProcessTimeout(cfg.Ingest.Timeout),
		)
		go runUploadSource(ctx, prov.store, queue)

		// on-demand scan
		var translator scan.Translator
		translationProvider := ""
		if prov.translator != nil {
			translator = prov.translator
			translationProvider = prov.translator.Provider().Name()
		}
		scanner := scan.NewPipeline(scan.Config{
			SourceLang: cfg.Translate.SourceLang,
			TargetLang: cfg.Translate.TargetLang,
			ChunkSize:  cfg.Translate.ChunkSize,
			MaxBytes:   cfg.OCR.MaxFileBytes,
			Debug:      cfg.Server.Debug,
		}, storage.NewResolver(prov.store, &http.Client{}, cfg.OCR.Timeout, logger,
			storage.WithDefaultBucket(cfg.Storage.Bucket),
			storage.WithAllowedHosts(cfg.Storage.AllowedDownloadHosts()...),
		), prov.scanOCR, translator, rec, logger)

		checker := diagnostics.NewChecker(diagnostics.Deps{
			VisionProvider:      prov.uploadOCR.Name(),
			TranslationProvider: translationProvider,
			Storage:             prov.store,
			RecordStore:         laborers,
			ProjectID:           cfg.Server.ProjectID,
		}, 3*time.Second, logger)

		accessLog := newAccessLogger(cfg.Server)
		defer func() { _ = accessLog.Sync() }()

		httpServer := &http.Server{
			Addr: cfg.Server.HTTPAddr,
			Handler: server.NewRouter(server.RouterDeps{
				Scanner:       scanner,
				Diagnostics:   checker,
				Exporter:      export.NewService(laborers, logger),
				Authenticator: authenticator,
				Metrics:       rec,
				AccessLog:     accessLog,
				Logger:        logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		grpcServer := grpc.NewServer()
		health := server.NewHealthServer(checker, 30*time.Second, logger)
		health.Register(grpcServer)
		go health.Run(ctx)

		errCh := make(chan error, 2)
		go func() {
			logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		if cfg.Server.GRPCAddr != "" {
			lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
			if err != nil {
				return err
			}
			go func() {
				logger.Info("grpc listening", "addr", cfg.Server.GRPCAddr)
				if err := grpcServer.Serve(lis); err != nil {
					errCh <- err
				}
			}()
		}

		select {
		case <-ctx.Done():
		case err = <-errCh:
			logger.Error("server error", "error", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		queue.Shutdown(shutdownCtx)
		logger.Info("docintel stopped")
		return err
	},
}

// runUploadSource feeds the queue from bucket notifications, or from the local upload directory.
func runUploadSource(ctx context.Context, store storage.Store, queue *ingest.Queue) {
	var err error
	switch s := store.(type) {
	case *storage.MinioStore:
		err = ingest.NewBucketSource(s, uploadPrefix, logger).Run(ctx, queue)
	case *storage.LocalStore:
		var src *ingest.WatchSource
		src, err = ingest.NewWatchSource(ingest.WatchConfig{
			Root:        s.Root(),
			InitialScan: false,
			Debounce:    500 * time.Millisecond,
		}, logger)
		if err == nil {
			err = src.Run(ctx, queue)
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("upload source stopped", "error", err)
	}
}
