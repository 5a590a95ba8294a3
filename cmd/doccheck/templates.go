package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/erpsystem/doccheck/internal/config"
	"github.com/erpsystem/doccheck/internal/storage"
	"github.com/erpsystem/doccheck/internal/templates"
	"github.com/erpsystem/doccheck/pkg/logger"
)

// keysFlag is a comma separated list of template keys.
type keysFlag []string

func (k *keysFlag) String() string { return fmt.Sprint([]string(*k)) }

func (k *keysFlag) Set(s string) error {
	*k = nil
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*k = append(*k, p)
		}
	}
	if len(*k) == 0 {
		return errors.New("at least one key is required")
	}
	return nil
}

func runSync(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(stdout)
	base := fs.String("base", cfg.Templates.BaseURL, "templates service base URL")
	dir := fs.String("dir", cfg.Templates.Dir, "directory holding <key>.adoc sources")
	by := fs.String("modified-by", cfg.Templates.ModifiedBy, "lastModifiedBy recorded on updates")
	keys := keysFlag(cfg.Templates.Keys)
	fs.Var(&keys, "keys", "comma separated template keys")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	rep, err := templates.Sync(ctx, templates.NewClient(*base, nil), *dir, keys, *by)
	if err != nil {
		logger.Errorf("ERROR: %v", err)
		return exitUsage
	}
	for _, kr := range rep.Results {
		switch kr.Outcome {
		case templates.OutcomeDone:
			fmt.Fprintf(stdout, "UPDATED %s (%s) %d bytes\n", kr.Key, kr.TemplateID, kr.Bytes)
		case templates.OutcomeSkipped:
			fmt.Fprintf(stdout, "SKIP %s: %s\n", kr.Key, kr.Reason)
		default:
			fmt.Fprintf(stdout, "ERROR %s: %s\n", kr.Key, kr.Reason)
		}
	}
	fmt.Fprintf(stdout, "\nUPDATED=%d SKIPPED=%d FAILED=%d\n",
		rep.Count(templates.OutcomeDone), rep.Count(templates.OutcomeSkipped), rep.Count(templates.OutcomeFailed))
	if rep.Count(templates.OutcomeFailed) > 0 {
		return exitFailed
	}
	return exitOK
}

func runGenerate(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) int {
	now := time.Now()
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stdout)
	base := fs.String("base", cfg.Templates.BaseURL, "templates service base URL")
	outDir := fs.String("out", cfg.Templates.OutDir, "output directory (default: a timestamped temp dir)")
	upload := fs.Bool("upload", false, "also upload PDFs to MinIO (MINIO_ENDPOINT)")
	keys := keysFlag(cfg.Templates.Keys)
	fs.Var(&keys, "keys", "comma separated template keys")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *outDir == "" {
		*outDir = templates.DefaultOutDir(now)
	}
	fmt.Fprintf(stdout, "OUTDIR=%s\n", *outDir)

	opts := templates.GenerateOptions{OutDir: *outDir, Keys: keys}
	if *upload {
		st, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Errorf("ERROR: minio: %v", err)
			return exitUsage
		}
		opts.Uploader = st
		opts.Prefix = "samples/" + now.UTC().Format("20060102T150405Z")
	}

	rep, err := templates.Generate(ctx, templates.NewClient(*base, nil), opts)
	if err != nil {
		logger.Errorf("ERROR: %v", err)
		return exitUsage
	}

	fmt.Fprintf(stdout, "\nRESULT_DIR=%s\n", *outDir)
	fmt.Fprintf(stdout, "SUCCESS_COUNT=%d\n", rep.Count(templates.OutcomeDone))
	for _, kr := range rep.Results {
		if kr.Outcome != templates.OutcomeDone {
			continue
		}
		fmt.Fprintf(stdout, "%s.pdf %d\n", kr.Key, kr.Bytes)
		if kr.URL != "" {
			fmt.Fprintf(stdout, "  %s\n", kr.URL)
		}
	}
	if n := rep.Count(templates.OutcomeFailed); n > 0 {
		fmt.Fprintln(stdout, "\nFAILED TEMPLATES:")
		for _, kr := range rep.Results {
			if kr.Outcome == templates.OutcomeFailed {
				fmt.Fprintf(stdout, "- %s %s\n", kr.Key, kr.Reason)
			}
		}
		return exitFailed
	}
	return exitOK
}
