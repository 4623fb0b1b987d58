// Package export writes the output tables as files for the reporting layer.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/internal/domain/types"
	"github.com/okian/grapple/pkg/logger"
)

// Formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned for formats other than csv and json.
var ErrUnknownFormat = errors.New("unknown export format")

// NullCell marks a null value in CSV output, so null and an empty string
// stay distinct. It is the marker PostgreSQL COPY reads as NULL.
const NullCell = `\N`

// ReportFile is the name of the run report written next to the tables.
const ReportFile = "report.json"

// RunReport is the data-quality report written with every export.
type RunReport struct {
	RunID      string       `json:"run_id"`
	Reconciled bool         `json:"reconciled"`
	Counts     ReportCounts `json:"counts"`
	model.Report
}

// ReportCounts summarizes issues by kind.
type ReportCounts struct {
	Unparsed    int `json:"unparsed_rows"`
	Failures    int `json:"extraction_failures"`
	Ambiguities int `json:"sequencing_ambiguities"`
	Warnings    int `json:"rating_inconsistencies"`
	Duplicates  int `json:"duplicates"`
}

// NewRunReport wraps r with its counts.
func NewRunReport(runID string, r model.Report) RunReport {
	return RunReport{
		RunID:      runID,
		Reconciled: r.Reconciled(),
		Counts: ReportCounts{
			Unparsed:    r.Count(model.IssueUnparsed),
			Failures:    r.Count(model.IssueExtraction),
			Ambiguities: r.Count(model.IssueAmbiguity),
			Warnings:    r.Count(model.IssueRating),
			Duplicates:  r.Count(model.IssueDuplicate),
		},
		Report: r,
	}
}

// Writer writes tables into a directory.
type Writer struct {
	dir    string
	format string
	logger logger.Logger
}

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWriter creates a writer for format ("csv" or "json").
func NewWriter(dir, format string, opts ...Option) (*Writer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatCSV && format != FormatJSON {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	w := &Writer{dir: dir, format: format, logger: logger.Nop()}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Write replaces every table file and the report in the output directory.
func (w *Writer) Write(ctx context.Context, tables types.Tables, report RunReport) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", w.dir, err)
	}
	if w.format == FormatJSON {
		byName := map[string]any{
			types.TableMatches:     tables.Matches,
			types.TableWrestlers:   tables.Wrestlers,
			types.TableHistory:     tables.History,
			types.TableHeadToHead:  tables.HeadToHead,
			types.TableIndividuals: tables.Individuals,
			types.TableTeams:       tables.Teams,
		}
		for _, t := range tables.All() {
			if err := writeJSON(filepath.Join(w.dir, t.Name+".json"), byName[t.Name]); err != nil {
				return err
			}
		}
	} else {
		for _, t := range tables.All() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := writeCSV(filepath.Join(w.dir, t.Name+".csv"), t); err != nil {
				return err
			}
		}
	}
	if err := writeJSON(filepath.Join(w.dir, ReportFile), report); err != nil {
		return err
	}
	w.logger.Info(ctx, "extracts written",
		logger.String("dir", w.dir),
		logger.String("format", w.format),
		logger.Int("matches", len(tables.Matches)),
		logger.Int("wrestlers", len(tables.Wrestlers)))
	return nil
}

// replace writes through a temporary file so readers never see a partial table.
func replace(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	return replace(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func writeCSV(path string, t types.Table) error {
	return replace(path, func(f *os.File) error {
		cw := csv.NewWriter(f)
		if err := cw.Write(t.Columns); err != nil {
			return err
		}
		rec := make([]string, len(t.Columns))
		for _, row := range t.Rows {
			for i, v := range row {
				rec[i] = Format(v)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// Format renders one cell. Null is NullCell, dates are YYYY-MM-DD
// and floats use the shortest exact representation.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return NullCell
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.DateOnly)
	default:
		return fmt.Sprint(x)
	}
}
