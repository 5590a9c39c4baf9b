// Package diaglog is the CSV sink for raw diagnostic captures. It is
// deliberately outside the protocol core (spec.md §1 classifies CSV
// logging as an external collaborator): it only ever consumes the
// timestamped byte stream facade.Controller.DiagnosticCapture produces,
// the same role raw_dump.py plays for the original tooling.
package diaglog

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MackanT/NibeTester/internal/frame"
)

// Recorder writes captured bus bytes to CSV files with automatic
// rotation and interval-gated writes.
type Recorder struct {
	mu       sync.Mutex
	dir      string
	interval time.Duration
	enabled  bool

	file   *os.File
	writer *csv.Writer
	lastTs time.Time
	rows   int
}

// Config holds recorder configuration.
type Config struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Path       string `yaml:"path" json:"path"`
	IntervalMs int    `yaml:"interval_ms" json:"intervalMs"`
}

const maxRowsPerFile = 100_000

var csvHeader = []string{"timestamp", "tag", "value_hex"}

// Sample is one captured bus byte with its observation time.
type Sample struct {
	At   time.Time
	Byte frame.Byte
}

// New creates a Recorder. A zero IntervalMs records every sample.
func New(cfg Config) *Recorder {
	if cfg.Path == "" {
		cfg.Path = "./captures"
	}
	return &Recorder{
		dir:      cfg.Path,
		interval: time.Duration(cfg.IntervalMs) * time.Millisecond,
		enabled:  cfg.Enabled,
	}
}

// SetEnabled allows toggling capture at runtime.
func (r *Recorder) SetEnabled(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = on
	if !on && r.file != nil {
		r.closeFile()
	}
}

// IsEnabled returns whether capture is active.
func (r *Recorder) IsEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Record writes one captured byte, subject to the configured interval
// and row-based file rotation. It is a no-op while disabled.
func (r *Recorder) Record(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(s, true)
}

func (r *Recorder) record(s Sample, gated bool) {
	if !r.enabled {
		return
	}
	if gated && s.At.Sub(r.lastTs) < r.interval {
		return
	}
	r.lastTs = s.At

	if r.writer == nil || r.rows >= maxRowsPerFile {
		if err := r.rotateFile(s.At); err != nil {
			log.Printf("[diaglog] rotate failed: %v", err)
			return
		}
	}

	row := []string{
		s.At.Format(time.RFC3339Nano),
		s.Byte.Tag.String(),
		fmt.Sprintf("0x%02X", s.Byte.Value),
	}
	if err := r.writer.Write(row); err != nil {
		log.Printf("[diaglog] write failed: %v", err)
		return
	}
	r.writer.Flush()
	r.rows++
}

// RecordAll writes a whole capture batch, ignoring the interval gate
// (DiagnosticCapture already bounds how densely bytes arrive).
func (r *Recorder) RecordAll(samples []Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		r.record(s, false)
	}
}

// Close flushes and closes the current log file.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeFile()
}

func (r *Recorder) rotateFile(now time.Time) error {
	r.closeFile()

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", r.dir, err)
	}

	filename := fmt.Sprintf("capture_%s.csv", now.Format("2006-01-02_150405"))
	path := filepath.Join(r.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	r.file = f
	r.writer = csv.NewWriter(f)
	r.rows = 0

	if err := r.writer.Write(csvHeader); err != nil {
		return err
	}
	r.writer.Flush()

	log.Printf("[diaglog] opened %s", path)
	return nil
}

func (r *Recorder) closeFile() {
	if r.writer != nil {
		r.writer.Flush()
		r.writer = nil
	}
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
}
