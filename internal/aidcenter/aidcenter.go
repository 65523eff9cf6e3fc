// Package aidcenter looks up legal-aid centers by city from a CSV table.
package aidcenter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/nadzzz/sahayak/internal/message"
)

// Columns expected in the header row. Order does not matter.
var columns = []string{"city", "state", "center_name", "address", "phone"}

// Locator serves lookups from an in-memory snapshot of the table.
type Locator struct {
	path  string
	table atomic.Pointer[[]message.AidCenter]
}

// New loads the table at path. A missing file yields an empty table so the
// server can still start; a malformed file is an error.
func New(path string) (*Locator, error) {
	l := &Locator{path: path}

	rows, err := readFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Error("aid center table not found, lookups will return nothing", "path", path)
		rows = nil
	case err != nil:
		return nil, err
	default:
		slog.Info("loaded aid center table", "path", path, "centers", len(rows))
	}
	l.table.Store(&rows)
	return l, nil
}

// NewFromRows builds a Locator over a fixed table.
func NewFromRows(rows []message.AidCenter) *Locator {
	l := &Locator{}
	l.table.Store(&rows)
	return l
}

// Find returns the centers whose city equals city, ignoring case and
// surrounding whitespace. The returned slice is a copy.
func (l *Locator) Find(city string) []message.AidCenter {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil
	}

	var out []message.AidCenter
	for _, c := range *l.table.Load() {
		if strings.EqualFold(c.City, city) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of centers currently loaded.
func (l *Locator) Len() int {
	return len(*l.table.Load())
}

// Reload re-reads the table. On failure the previous table is kept. An empty
// file is treated as a write in progress.
func (l *Locator) Reload() error {
	if fi, err := os.Stat(l.path); err != nil {
		return err
	} else if fi.Size() == 0 {
		return fmt.Errorf("%s is empty", l.path)
	}
	rows, err := readFile(l.path)
	if err != nil {
		return err
	}
	l.table.Store(&rows)
	slog.Info("reloaded aid center table", "path", l.path, "centers", len(rows))
	return nil
}

// Watch reloads the table whenever the file is written or replaced. It
// watches the parent directory so editors that save by rename are seen.
// Watch blocks until ctx is cancelled.
func (l *Locator) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	slog.Info("watching aid center table", "path", l.path)

	target := filepath.Clean(l.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			if err := l.Reload(); err != nil {
				slog.Warn("aid center reload failed, keeping previous table", "path", l.path, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("aid center watcher error", "error", err)
		}
	}
}

func readFile(path string) ([]message.AidCenter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rows, nil
}

// Parse reads an aid-center CSV with a header row.
func Parse(r io.Reader) ([]message.AidCenter, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var rows []message.AidCenter
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		field := func(name string) string {
			return strings.TrimSpace(rec[idx[name]])
		}
		rows = append(rows, message.AidCenter{
			City:    field("city"),
			State:   field("state"),
			Name:    field("center_name"),
			Address: field("address"),
			Phone:   field("phone"),
		})
	}
	return rows, nil
}
