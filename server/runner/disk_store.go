package runner

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DiskStore persists run history to disk as JSON files, one file per
// run.
type DiskStore struct {
	dir      string
	logger   *slog.Logger
	maxCount int

	mu        sync.Mutex
	summaries []RunSummary
	steps     map[string][]StepExecution
}

// NewDiskStore creates a new disk-backed store.
// The directory is created if it doesn't exist, and existing runs are loaded.
func NewDiskStore(dir string, maxCount int, logger *slog.Logger) (*DiskStore, error) {
	s := &DiskStore{
		dir:       dir,
		logger:    logger,
		maxCount:  maxCount,
		summaries: make([]RunSummary, 0),
		steps:     make(map[string][]StepExecution),
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	summaries, steps, err := s.load()
	if err != nil {
		logger.Warn("failed to load existing runs", "error", err)
		// Continue without existing data
	} else {
		s.summaries = summaries
		s.steps = steps
	}

	return s, nil
}

// History returns all runs as summaries.
func (s *DiskStore) History() []RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]RunSummary, len(s.summaries))
	copy(result, s.summaries)
	return result
}

// Logs returns the step executions for a specific run.
func (s *DiskStore) Logs(id string) []StepExecution {
	s.mu.Lock()
	defer s.mu.Unlock()

	if steps, ok := s.steps[id]; ok {
		result := make([]StepExecution, len(steps))
		copy(result, steps)
		return result
	}
	return nil
}

// Save persists a run to disk and updates the in-memory representation.
func (s *DiskStore) Save(summary RunSummary, steps []StepExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if summary.StartedAt == nil {
		return fmt.Errorf("cannot save run without start time")
	}
	if summary.ID == "" {
		summary.ID = summary.CalculateID()
	}

	run := runRecord{RunSummary: summary, Steps: steps}

	filename := summary.StartedAt.Format("2006-01-02T15-04-05") + ".json"
	path := filepath.Join(s.dir, filename)

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}

	// Prepend to keep most recent first
	s.summaries = append([]RunSummary{summary}, s.summaries...)
	s.steps[summary.ID] = steps

	if len(s.summaries) > s.maxCount {
		oldestID := s.summaries[len(s.summaries)-1].ID
		delete(s.steps, oldestID)
		s.summaries = s.summaries[:s.maxCount]
	}

	s.logger.Debug("saved run to disk", "path", path)
	return nil
}

// Reload re-loads all runs from disk.
func (s *DiskStore) Reload() error {
	summaries, steps, err := s.load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = summaries
	s.steps = steps

	return nil
}

// load reads every run file from the state directory.
func (s *DiskStore) load() ([]RunSummary, map[string][]StepExecution, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	runs := make([]runRecord, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.dir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read run file", "file", path, "error", err)
			continue
		}

		var run runRecord
		if err := json.Unmarshal(data, &run); err != nil {
			s.logger.Warn("failed to parse run file", "file", path, "error", err)
			continue
		}

		if run.ID == "" {
			run.ID = run.CalculateID()
		}
		runs = append(runs, run)
	}

	// Most recent first
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt == nil {
			return false
		}
		if runs[j].StartedAt == nil {
			return true
		}
		return runs[i].StartedAt.After(*runs[j].StartedAt)
	})

	if len(runs) > s.maxCount {
		runs = runs[:s.maxCount]
	}

	summaries := make([]RunSummary, len(runs))
	steps := make(map[string][]StepExecution, len(runs))
	for i, run := range runs {
		summaries[i] = run.RunSummary
		steps[run.ID] = run.Steps
	}

	s.logger.Info("loaded run history from disk", "count", len(summaries))

	return summaries, steps, nil
}
