package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"jobfeed-engine/internal/domain"
)

// JSONFile writes the whole set to one indented JSON file. Writers in any
// process serialize on a sibling .lock file; readers never see a partial file.
type JSONFile struct {
	path string
	lock *flock.Flock
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path, lock: flock.New(path + ".lock")}
}

func (j *JSONFile) Name() string { return "json:" + j.path }

func (j *JSONFile) Export(ctx context.Context, jobs []domain.JobPosting) error {
	if jobs == nil {
		jobs = []domain.JobPosting{}
	}
	b, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}

	locked, err := j.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", j.path, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", j.path)
	}
	defer func() { _ = j.lock.Unlock() }()

	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, j.path)
}
