package report

import (
	"context"
	"fmt"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/google/uuid"
)

// FilePrefix starts every report file name.
const FilePrefix = "Denuncia_"

// FileName derives the attachment name from a report ID.
func FileName(reportID string) string {
	return FilePrefix + reportID + ".pdf"
}

// Renderer turns confirmed complaints into documents.
type Renderer struct {
	writer     PageWriter
	layout     Layout
	letterhead Letterhead
	newID      func() string
}

// Option configures the Renderer.
type Option func(*Renderer)

// WithPageWriter replaces the PDF primitive.
func WithPageWriter(w PageWriter) Option {
	return func(r *Renderer) {
		r.writer = w
	}
}

// WithLetterhead overrides the static blocks. Empty parts keep their defaults.
func WithLetterhead(lh Letterhead) Option {
	return func(r *Renderer) {
		if len(lh.Addressee) > 0 {
			r.letterhead.Addressee = lh.Addressee
		}
		if lh.ElectionNumber != "" {
			r.letterhead.ElectionNumber = lh.ElectionNumber
		}
		if len(lh.Closing) > 0 {
			r.letterhead.Closing = lh.Closing
		}
	}
}

// WithIDGenerator replaces the UUID source.
func WithIDGenerator(fn func() string) Option {
	return func(r *Renderer) {
		r.newID = fn
	}
}

// NewRenderer creates a Renderer producing PDFs with the default layout.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		writer:     PDFWriter{},
		layout:     DefaultLayout,
		letterhead: DefaultLetterhead,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the report for a record snapshot. contact is printed as the
// complainant's contact number. Failures wrap domain.ErrRenderFailure.
func (r *Renderer) Render(ctx context.Context, record domain.ComplaintRecord, contact string) (*domain.GeneratedReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
	}

	id := r.newID()
	data, err := r.writer.WritePage(Lines(id, record, contact, r.letterhead), r.layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
	}

	return &domain.GeneratedReport{
		ReportID: id,
		Record:   record,
		Data:     data,
		FileName: FileName(id),
	}, nil
}
