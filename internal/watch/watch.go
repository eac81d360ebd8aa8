// Package watch runs the pipeline on product records dropped into a directory.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/harun/kspar/pkg/pipeline"
	"github.com/harun/kspar/pkg/product"
	"github.com/rs/zerolog"
)

// OutputSuffix is appended to a record's base name to form its result file.
const OutputSuffix = ".out.json"

// PipelineRunner is the part of *pipeline.Pipeline the watcher drives.
type PipelineRunner interface {
	RegisterSession(ctx context.Context, sessionID string, sessionContext map[string]any) error
	Run(ctx context.Context, sessionID string, raw product.RawProduct) (*pipeline.Result, error)
}

// Config holds watcher configuration
type Config struct {
	Dir      string
	Pipeline PipelineRunner

	// SessionID is used for every record. Empty registers a fresh session per record.
	SessionID      string
	SessionContext map[string]any

	// Debounce is how long a file must stay quiet before it is processed.
	Debounce time.Duration

	Logger zerolog.Logger
}

// Watcher processes records one at a time as they appear in Dir.
type Watcher struct {
	dir            string
	pipeline       PipelineRunner
	sessionID      string
	sessionContext map[string]any
	debounce       time.Duration
	logger         zerolog.Logger

	pending   map[string]time.Time
	processed map[string]bool
}

// New creates a watcher. Nothing is watched until Run is called.
func New(cfg Config) (*Watcher, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", cfg.Dir)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	return &Watcher{
		dir:            cfg.Dir,
		pipeline:       cfg.Pipeline,
		sessionID:      cfg.SessionID,
		sessionContext: cfg.SessionContext,
		debounce:       cfg.Debounce,
		logger:         cfg.Logger.With().Str("component", "watch").Str("dir", cfg.Dir).Logger(),
		pending:        make(map[string]time.Time),
		processed:      make(map[string]bool),
	}, nil
}

// IsRecordFile reports whether name looks like a raw product record.
func IsRecordFile(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, OutputSuffix) || strings.HasPrefix(filepath.Base(lower), ".") {
		return false
	}
	switch filepath.Ext(lower) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// OutputPath returns the result file written for the record at path.
func OutputPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + OutputSuffix
}

// Run processes records already in the directory, then watches for new ones
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info().Msg("Watching for product records")

	if err := w.scanExisting(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !IsRecordFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Record change detected")
				w.pending[event.Name] = time.Now()
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				delete(w.pending, event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("File watcher error")

		case <-ticker.C:
			w.flush(ctx, time.Now())

		case <-ctx.Done():
			w.logger.Info().Msg("Watcher stopped")
			return nil
		}
	}
}

// flush processes every pending file that has been quiet for the debounce period.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)

	for _, path := range ready {
		delete(w.pending, path)
		w.process(ctx, path)
	}
}

func (w *Watcher) scanExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsRecordFile(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if _, err := os.Stat(OutputPath(path)); err == nil {
			w.processed[path] = true
			continue
		}
		w.process(ctx, path)
	}
	return nil
}

func (w *Watcher) process(ctx context.Context, path string) {
	if w.processed[path] {
		return
	}
	w.processed[path] = true

	logger := w.logger.With().Str("file", filepath.Base(path)).Logger()
	if err := w.ProcessFile(ctx, path); err != nil {
		logger.Error().Err(err).Msg("Failed to process record")
		return
	}
	logger.Info().Str("output", filepath.Base(OutputPath(path))).Msg("Record processed")
}

// ProcessFile runs the pipeline on the record at path and writes the result
// next to it. The result file is written even when the run halts, so the
// failing step can be read from its Errors field.
func (w *Watcher) ProcessFile(ctx context.Context, path string) error {
	raw, err := product.LoadRaw(path)
	if err != nil {
		return err
	}

	sessionID := w.sessionID
	if sessionID == "" {
		sessionID = pipeline.NewSessionID()
		if err := w.pipeline.RegisterSession(ctx, sessionID, w.sessionContext); err != nil {
			return fmt.Errorf("failed to register session: %w", err)
		}
	}

	result, runErr := w.pipeline.Run(ctx, sessionID, raw)
	if result == nil {
		return runErr
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Join(runErr, fmt.Errorf("failed to encode result: %w", err))
	}
	if err := os.WriteFile(OutputPath(path), append(data, '\n'), 0644); err != nil {
		return errors.Join(runErr, fmt.Errorf("failed to write result: %w", err))
	}

	return runErr
}
