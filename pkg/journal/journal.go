package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunRecord captures one scheduled refresh run for audit and analysis.
type RunRecord struct {
	Timestamp  time.Time         `json:"timestamp"`
	Task       string            `json:"task"`
	RunNumber  int               `json:"run_number"`
	Classes    []string          `json:"classes"`
	Tickers    int               `json:"tickers"`
	Warmed     int               `json:"warmed"`
	Refreshed  int               `json:"refreshed"`
	Cached     int               `json:"cached"`
	Stale      int               `json:"stale"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Failures   map[string]string `json:"failures,omitempty"`
	DurationMS int64             `json:"duration_ms"`
	Success    bool              `json:"success"`
	Error      string            `json:"error_message,omitempty"`
}

// Writer persists run records to a directory as JSON files (journal style).
type Writer struct {
	dir   string
	mu    sync.Mutex
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a journal writer.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// Dir returns the directory records are written to.
func (w *Writer) Dir() string { return w.dir }

// WriteRun writes a run record to a timestamped JSON file.
func (w *Writer) WriteRun(rec *RunRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	rec.RunNumber = w.seq
	name := fmt.Sprintf("refresh_%s_%s_%05d.json", rec.Task, rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
