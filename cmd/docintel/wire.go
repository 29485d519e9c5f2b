package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/ocr"
	"github.com/joseph-ayodele/docintel/internal/repository"
	"github.com/joseph-ayodele/docintel/internal/storage"
	"github.com/joseph-ayodele/docintel/internal/translate"
)

// providers are the long-lived client handles shared by every pipeline run.
type providers struct {
	uploadOCR  ocr.Client
	scanOCR    ocr.Client
	translator *translate.Client
	store      storage.Store
	closers    []func() error
}

func (p *providers) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			logger.Warn("closing provider", "error", err)
		}
	}
}

func buildProviders(ctx context.Context, c *common.Config, log *slog.Logger) (*providers, error) {
	p := &providers{}

	local := ocr.NewLocalClient(ocr.LocalConfig{
		TesseractLang: c.OCR.Language,
		TessdataDir:   c.OCR.TessdataDir,
		MaxPages:      5,
	}, ocr.ExecRunner{Logger: log}, log)

	space, err := ocr.NewSpaceClient(ocr.SpaceConfig{
		APIKey:       c.OCR.SpaceAPIKey,
		Endpoint:     c.OCR.SpaceURL,
		Language:     c.OCR.Language,
		Timeout:      c.OCR.Timeout,
		MaxFileBytes: c.OCR.MaxFileBytes,
	}, &http.Client{}, log)
	if err != nil {
		return nil, fmt.Errorf("ocr.space client: %w", err)
	}

	p.uploadOCR, p.scanOCR = local, local
	if space.Configured() {
		p.uploadOCR, p.scanOCR = space, space
	}
	if c.OCR.VisionEnabled {
		vision, err := ocr.NewVisionClient(ctx, c.OCR.Timeout, log)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("vision client: %w", err)
		}
		p.closers = append(p.closers, vision.Close)
		p.uploadOCR = vision
		if !space.Configured() {
			p.scanOCR = vision
		}
	}

	if c.Translate.Enabled {
		gp, err := translate.NewGoogleProvider(ctx, c.Server.ProjectID, c.Translate.Timeout)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("translation client: %w", err)
		}
		p.closers = append(p.closers, gp.Close)
		p.translator = translate.NewClient(gp, log)
	}

	store, err := buildStore(c.Storage, log)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.store = store

	log.Info("providers ready",
		"upload_ocr", p.uploadOCR.Name(),
		"scan_ocr", p.scanOCR.Name(),
		"translate", c.Translate.Enabled,
		"storage", store.Name())
	return p, nil
}

func buildStore(c common.StorageConfig, log *slog.Logger) (storage.Store, error) {
	if c.UsesMinio() {
		s, err := storage.NewMinioStore(
			storage.WithEndpoint(c.MinioEndpoint),
			storage.WithBucket(c.Bucket),
			storage.WithAccessKey(c.MinioAccessKey),
			storage.WithSecretKey(c.MinioSecretKey),
			storage.WithSSL(c.MinioUseSSL),
			storage.WithLogger(log),
		)
		if err != nil {
			return nil, fmt.Errorf("minio store: %w", err)
		}
		return s, nil
	}
	s, err := storage.NewLocalStore(c.LocalRoot)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	return s, nil
}

func openLaborers(ctx context.Context, c *common.Config, log *slog.Logger) (repository.Laborers, error) {
	laborers, err := repository.Open(ctx, repository.ConfigFrom(c.Store), log)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	return laborers, nil
}
