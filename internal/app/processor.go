package service

import (
	"context"

	"github.com/okian/grapple/internal/domain/extract"
	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/internal/domain/normalize"
	"github.com/okian/grapple/pkg/metrics"
)

// DocumentProcessor normalizes one round document and extracts its matches.
// It is what each worker runs.
type DocumentProcessor struct {
	normalizer *normalize.Normalizer
	extractor  *extract.Extractor
}

// NewDocumentProcessor creates a DocumentProcessor.
func NewDocumentProcessor(n *normalize.Normalizer, e *extract.Extractor) *DocumentProcessor {
	return &DocumentProcessor{normalizer: n, extractor: e}
}

// Process implements worker.Processor.
func (p *DocumentProcessor) Process(ctx context.Context, doc model.RoundDocument) extract.Result { //nolint:gocritic // hugeParam: documents travel by value
	rows := p.normalizer.Normalize(ctx, doc)
	for _, r := range rows {
		metrics.RecordRowNormalized(r.Kind.String())
	}
	res := p.extractor.Extract(ctx, doc, rows)
	for _, m := range res.Matches {
		metrics.RecordMatchExtracted(m.Decision.String())
	}
	for range res.Report.Count(model.IssueExtraction) {
		metrics.RecordExtractionFailure()
	}
	return res
}
