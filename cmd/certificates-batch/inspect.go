package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/certificates-processor/internal/llm"
	"github.com/joseph-ayodele/certificates-processor/internal/llm/provider"
	"github.com/joseph-ayodele/certificates-processor/internal/ocr"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the text extracted from one certificate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := ocr.NewExtractor(cfg.OCR, logger).Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		logger.Info("extract.done", "file", args[0], "method", res.Method, "pages", res.Pages, "elapsed_ms", res.Duration.Milliseconds())
		fmt.Println(res.Text)
		return nil
	},
}

var inferCmd = &cobra.Command{
	Use:   "infer <file>",
	Short: "Extract one certificate and print the inferred record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		res, err := ocr.NewExtractor(cfg.OCR, logger).Extract(ctx, path)
		if err != nil {
			return err
		}
		stack, err := provider.Build(cfg.LLM, logger)
		if err != nil {
			return err
		}
		defer func() { _ = stack.Close() }()

		rec, raw, err := stack.Infer(ctx, llm.ExtractRequest{
			Text:           res.Text,
			FilenameHint:   filepath.Base(path),
			FolderHint:     filepath.Base(filepath.Dir(path)),
			FilePath:       path,
			AttachDocument: cfg.LLM.AttachDocuments,
		})
		if err != nil {
			return err
		}
		logger.Debug("infer.raw", "file", path, "raw", string(raw))

		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
