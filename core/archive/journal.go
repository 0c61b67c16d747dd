package archive

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/tecsched/core/events"
)

// Journal appends run events to a rotating JSONL file.
type Journal struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewJournal creates a journal with rotation options in megabytes and days.
func NewJournal(path string, maxSizeMB, maxBackups, maxAgeDays int) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return &Journal{logger: lj, path: path}, nil
}

// Record appends ev as one line.
func (j *Journal) Record(ev events.RunEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return json.NewEncoder(j.logger).Encode(ev)
}

// Events reads back every event, rotated files included, filtered to runID
// when it is not empty. Events are ordered by time.
func (j *Journal) Events(runID string) ([]events.RunEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	files, err := filepath.Glob(j.path + "*")
	if err != nil {
		return nil, err
	}
	ext := filepath.Ext(j.path)
	base := j.path[:len(j.path)-len(ext)]
	rotated, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var res []events.RunEvent
	for _, f := range append(files, rotated...) {
		if seen[f] {
			continue
		}
		seen[f] = true
		file, err := os.Open(f)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			var ev events.RunEvent
			if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
				continue
			}
			if runID != "" && ev.RunID != runID {
				continue
			}
			res = append(res, ev)
		}
		_ = file.Close()
	}
	sort.SliceStable(res, func(a, b int) bool { return res[a].Time.Before(res[b].Time) })
	return res, nil
}

// Close closes the underlying writer.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.logger.Close()
}
