package json

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/khanhnv2901/riskscan/internal/domain/scan"
	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/riskscan/internal/shared/errors"
	"github.com/khanhnv2901/riskscan/internal/shared/security"
)

// LogRepository implements scan.Repository as a single JSON array on disk.
type LogRepository struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewLogRepository creates a JSON log store at dataDir/fileName. An empty
// fileName uses the default scan_logs.json.
func NewLogRepository(dataDir, fileName string) (*LogRepository, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if fileName == "" {
		fileName = consts.DefaultLogFileName
	}

	if err := os.MkdirAll(dataDir, consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path, err := security.ResolveWithin(dataDir, fileName)
	if err != nil {
		return nil, fmt.Errorf("invalid log file path: %w", err)
	}

	return &LogRepository{
		path: path,
		now:  time.Now,
	}, nil
}

// Path returns the absolute location of the log file.
func (r *LogRepository) Path() string {
	return r.path
}

// Append adds one result to the array. A corrupt file is moved aside rather
// than overwritten.
func (r *LogRepository) Append(ctx context.Context, result *scan.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("%w: nil result", sharedErrors.ErrSerializationFailed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	results, err := r.load()
	if errors.Is(err, sharedErrors.ErrLogStoreCorrupt) {
		if qerr := r.quarantine(); qerr != nil {
			return qerr
		}
		results = nil
	} else if err != nil {
		return err
	}

	results = append(results, result)
	return r.write(results)
}

// Query returns results newest first. A corrupt file reads as empty.
func (r *LogRepository) Query(ctx context.Context, q scan.Query) ([]*scan.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results, err := r.load()
	if errors.Is(err, sharedErrors.ErrLogStoreCorrupt) {
		return []*scan.Result{}, nil
	}
	if err != nil {
		return nil, err
	}
	return q.Apply(results), nil
}

// Close is a no-op; every operation opens and closes the file itself.
func (r *LogRepository) Close() error {
	return nil
}

func (r *LogRepository) load() ([]*scan.Result, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var results []*scan.Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", sharedErrors.ErrLogStoreCorrupt, r.path, err)
	}
	return results, nil
}

func (r *LogRepository) quarantine() error {
	aside := r.path + ".corrupt-" + strconv.FormatInt(r.now().Unix(), 10)
	if err := os.Rename(r.path, aside); err != nil {
		return fmt.Errorf("failed to move corrupt log file aside: %w", err)
	}
	return nil
}

// write replaces the file atomically via a temp file in the same directory.
func (r *LogRepository) write(results []*scan.Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp log file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp log file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp log file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp log file: %w", err)
	}
	if err := os.Chmod(tmpPath, consts.DefaultFilePerm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set log file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace log file: %w", err)
	}
	return nil
}
