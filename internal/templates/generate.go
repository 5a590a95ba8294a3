package templates

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/erpsystem/doccheck/internal/models"
	"github.com/erpsystem/doccheck/internal/storage"
	"github.com/erpsystem/doccheck/pkg/logger"
)

// Renderer is the subset of Client used by Generate.
type Renderer interface {
	Lister
	RenderPDF(ctx context.Context, id string, renderCtx interface{}) ([]byte, error)
}

// Uploader stores generated PDFs, e.g. storage.MinIOStorage.
type Uploader interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) error
	Stat(ctx context.Context, key string) (storage.ObjectInfo, error)
	GetPresignedURL(ctx context.Context, key string) (string, error)
}

// GenerateOptions controls a generate pass.
type GenerateOptions struct {
	OutDir    string
	Keys      []string
	RenderCtx interface{}
	// Uploader is optional. When set, each PDF is also uploaded under
	// <Prefix>/<key>.pdf, its stored size checked and the presigned URL recorded.
	Uploader Uploader
	Prefix   string
}

// DefaultOutDir returns the timestamped output directory used when none is configured.
func DefaultOutDir(now time.Time) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("template-tests-%d", now.Unix()))
}

// Generate renders a sample PDF for each key into OutDir.
func Generate(ctx context.Context, api Renderer, opts GenerateOptions) (Report, error) {
	var rep Report
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return rep, fmt.Errorf("failed to create output dir: %w", err)
	}
	list, err := api.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("failed to fetch templates: %w", err)
	}
	byKey := models.IndexByKey(list)
	renderCtx := opts.RenderCtx
	if renderCtx == nil {
		renderCtx = SampleContext()
	}

	for _, key := range opts.Keys {
		t, ok := byKey[key]
		if !ok {
			logger.Warnf("MISSING TEMPLATE: %s", key)
			rep.add(KeyResult{Key: key, Outcome: OutcomeFailed, Reason: "missing"})
			continue
		}
		pdf, err := api.RenderPDF(ctx, t.ID, renderCtx)
		if err != nil {
			logger.Errorf("FAILED %s: %v", key, err)
			rep.add(KeyResult{Key: key, TemplateID: t.ID, Outcome: OutcomeFailed, Reason: err.Error()})
			continue
		}
		out := filepath.Join(opts.OutDir, key+".pdf")
		if err := os.WriteFile(out, pdf, 0o644); err != nil {
			rep.add(KeyResult{Key: key, TemplateID: t.ID, Outcome: OutcomeFailed, Reason: err.Error()})
			continue
		}
		kr := KeyResult{Key: key, TemplateID: t.ID, Outcome: OutcomeDone, Bytes: int64(len(pdf)), Path: out}
		logger.Infof("WROTE %s (%d bytes)", out, len(pdf))
		if !hasPDFMagic(pdf) {
			kr.Reason = "output does not look like a pdf"
			logger.Warnf("%s: %s", out, kr.Reason)
		}

		if opts.Uploader != nil {
			upload(ctx, opts.Uploader, path.Join(opts.Prefix, key+".pdf"), pdf, &kr)
		}
		rep.add(kr)
	}
	return rep, nil
}

// upload stores pdf under objectKey and records the outcome on kr. Upload
// problems are reported but never fail the key.
func upload(ctx context.Context, up Uploader, objectKey string, pdf []byte, kr *KeyResult) {
	if err := up.UploadFile(ctx, objectKey, pdf, "application/pdf"); err != nil {
		kr.Reason = "upload failed: " + err.Error()
		logger.Warnf("upload %s: %v", objectKey, err)
		return
	}
	info, err := up.Stat(ctx, objectKey)
	switch {
	case err != nil:
		kr.Reason = "stat failed: " + err.Error()
		logger.Warnf("stat %s: %v", objectKey, err)
		return
	case info.Size != int64(len(pdf)):
		kr.Reason = fmt.Sprintf("stored size %d, expected %d", info.Size, len(pdf))
		logger.Warnf("%s: %s", objectKey, kr.Reason)
		return
	}
	u, err := up.GetPresignedURL(ctx, objectKey)
	if err != nil {
		kr.Reason = "presign failed: " + err.Error()
		return
	}
	kr.URL = u
}

// hasPDFMagic reports whether data starts like a PDF file.
func hasPDFMagic(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
