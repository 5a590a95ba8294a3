package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/erpsystem/doccheck/internal/models"
	"github.com/erpsystem/doccheck/pkg/logger"
)

// SourceExt is the file extension of template sources on disk.
const SourceExt = ".adoc"

// Outcome of one template in a sync or generate pass.
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// KeyResult records what happened to one template key.
type KeyResult struct {
	Key        string  `json:"key"`
	TemplateID string  `json:"templateId,omitempty"`
	Outcome    Outcome `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
	Bytes      int64   `json:"bytes,omitempty"`
	Path       string  `json:"path,omitempty"`
	URL        string  `json:"url,omitempty"`
}

// Report is the per-key outcome of a pass, in key order.
type Report struct {
	Results []KeyResult `json:"results"`
}

func (r *Report) add(kr KeyResult) { r.Results = append(r.Results, kr) }

// Count returns how many keys ended with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, kr := range r.Results {
		if kr.Outcome == o {
			n++
		}
	}
	return n
}

// Lister is implemented by Client.
type Lister interface {
	List(ctx context.Context) ([]models.Template, error)
}

// Updater is the subset of Client used by Sync.
type Updater interface {
	Lister
	UpdateContent(ctx context.Context, id, content, modifiedBy string) error
}

// Sync pushes <dir>/<key>.adoc to the templates service for each key.
// Keys unknown to the service or without a source file are skipped; a
// failed update is recorded and the remaining keys are still processed.
// Only a failure to list templates aborts the pass.
func Sync(ctx context.Context, api Updater, dir string, keys []string, modifiedBy string) (Report, error) {
	var rep Report
	list, err := api.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("failed to fetch templates: %w", err)
	}
	byKey := models.IndexByKey(list)

	for _, key := range keys {
		t, ok := byKey[key]
		if !ok {
			logger.Warnf("SKIP %s: not found in API", key)
			rep.add(KeyResult{Key: key, Outcome: OutcomeSkipped, Reason: "not found in API"})
			continue
		}
		path := filepath.Join(dir, key+SourceExt)
		content, err := os.ReadFile(path)
		if err != nil {
			reason := err.Error()
			if errors.Is(err, fs.ErrNotExist) {
				reason = "file " + path + " missing"
			}
			logger.Warnf("SKIP %s: %s", key, reason)
			rep.add(KeyResult{Key: key, TemplateID: t.ID, Outcome: OutcomeSkipped, Reason: reason, Path: path})
			continue
		}

		logger.Infof("updating %s (%s) from %s", key, t.ID, path)
		if err := api.UpdateContent(ctx, t.ID, string(content), modifiedBy); err != nil {
			logger.Errorf("ERROR %s: %v", key, err)
			rep.add(KeyResult{Key: key, TemplateID: t.ID, Outcome: OutcomeFailed, Reason: err.Error(), Path: path})
			continue
		}
		rep.add(KeyResult{Key: key, TemplateID: t.ID, Outcome: OutcomeDone, Bytes: int64(len(content)), Path: path})
	}
	return rep, nil
}
