package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintel/internal/auth"
	"github.com/joseph-ayodele/docintel/internal/scan"
	"github.com/joseph-ayodele/docintel/internal/storage"
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "OCR and translate a local PDF or image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return err
		}

		prov, err := buildProviders(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer prov.Close()

		// stage the file under the local user's prefix so it resolves like an upload
		tmp, err := os.MkdirTemp("", "docintel-scan-")
		if err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		staging, err := storage.NewLocalStore(tmp)
		if err != nil {
			return err
		}
		name := filepath.Base(abs)
		key := path.Join("users", auth.LocalUserID, "scans", name)
		if info.Size() <= cfg.OCR.MaxFileBytes {
			f, err := os.Open(abs)
			if err != nil {
				return err
			}
			err = staging.Upload(ctx, "", key, f, info.Size(), "")
			_ = f.Close()
			if err != nil {
				return err
			}
		}

		var translator scan.Translator
		if prov.translator != nil {
			translator = prov.translator
		}
		p := scan.NewPipeline(scan.Config{
			SourceLang: cfg.Translate.SourceLang,
			TargetLang: cfg.Translate.TargetLang,
			ChunkSize:  cfg.Translate.ChunkSize,
			MaxBytes:   cfg.OCR.MaxFileBytes,
			Debug:      cfg.Server.Debug,
		}, storage.NewResolver(staging, &http.Client{}, cfg.OCR.Timeout, logger), prov.scanOCR, translator, nil, logger)

		res, err := p.Scan(ctx, auth.LocalUserID, scan.Request{FileRef: key, FileName: name, FileSize: info.Size()})
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err != nil {
			_ = enc.Encode(scan.NewErrorPayload(err))
			return fmt.Errorf("scan failed: %w", err)
		}
		return enc.Encode(res)
	},
}
