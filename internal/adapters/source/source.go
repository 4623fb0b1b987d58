// Package source loads already-fetched round documents from disk.
//
// Each *.json file under the directory holds one document object or an
// array of them:
//
//	{"event_id": "734", "event_name": "County Open", "start_date": "2024-12-07",
//	 "round_id": "r1", "round_label": "Champ. Round 1", "round_ordinal": 0,
//	 "html": "<section class=\"tw-list\">...</section>"}
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/pkg/logger"
)

type document struct {
	EventID      string `json:"event_id"`
	EventName    string `json:"event_name"`
	StartDate    string `json:"start_date"`
	RoundID      string `json:"round_id"`
	RoundLabel   string `json:"round_label"`
	RoundOrdinal int    `json:"round_ordinal"`
	HTML         string `json:"html"`
}

func (d document) toModel() (model.RoundDocument, error) {
	if d.EventID == "" || d.RoundID == "" {
		return model.RoundDocument{}, fmt.Errorf("%w: event_id and round_id are required", ErrInvalidDocument)
	}
	date, err := parseDate(d.StartDate)
	if err != nil {
		return model.RoundDocument{}, fmt.Errorf("%w: event %s: %w", ErrInvalidDocument, d.EventID, err)
	}
	return model.RoundDocument{
		EventID:      d.EventID,
		EventName:    d.EventName,
		Date:         date,
		RoundID:      d.RoundID,
		RoundLabel:   d.RoundLabel,
		RoundOrdinal: d.RoundOrdinal,
		Body:         d.HTML,
	}, nil
}

// parseDate accepts a date or a timestamp and keeps the date in UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04:05", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized start_date %q", s)
}

// Loader reads round documents from a directory tree.
type Loader struct {
	dir    string
	logger logger.Logger
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Loader) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{dir: dir, logger: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Walk calls fn for every document, files in lexical path order and
// documents in file order. It stops at the first error.
func (l *Loader) Walk(ctx context.Context, fn func(model.RoundDocument) error) error {
	var files []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", l.dir, err)
	}
	sort.Strings(files)

	count := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		docs, err := readFile(path)
		if err != nil {
			return err
		}
		for _, d := range docs {
			if err := fn(d); err != nil {
				return err
			}
			count++
		}
	}
	if count == 0 {
		return fmt.Errorf("%w in %s", ErrNoDocuments, l.dir)
	}
	l.logger.Info(ctx, "round documents loaded", logger.Int("files", len(files)), logger.Int("documents", count))
	return nil
}

// Load returns every document.
func (l *Loader) Load(ctx context.Context) ([]model.RoundDocument, error) {
	var out []model.RoundDocument
	err := l.Walk(ctx, func(d model.RoundDocument) error {
		out = append(out, d)
		return nil
	})
	return out, err
}

func readFile(path string) ([]model.RoundDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	raw = bytes.TrimSpace(raw)

	var docs []document
	if len(raw) > 0 && raw[0] == '[' {
		err = json.Unmarshal(raw, &docs)
	} else {
		var one document
		err = json.Unmarshal(raw, &one)
		docs = []document{one}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, path, err)
	}

	out := make([]model.RoundDocument, 0, len(docs))
	for _, d := range docs {
		m, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, m)
	}
	return out, nil
}
