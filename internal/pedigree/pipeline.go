// SPDX-License-Identifier: Apache-2.0

package pedigree

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned when no registered parser accepts a source.
var ErrUnsupportedFormat = errors.New("unsupported row format")

// Source describes the raw input to the pipeline.
type Source struct {
	// Content is the raw document content.
	Content []byte
	Format  string
	ID      string
}

// RowParser decodes one source format into a Document.
type RowParser interface {
	CanHandle(source Source) bool
	Parse(ctx context.Context, source Source) (Document, error)
	Name() string
}

// Pipeline turns a transcribed form into a GEDCOM document.
type Pipeline struct {
	parsers    []RowParser
	validator  *Validator
	serializer *Serializer
	strict     bool
	logger     *zap.Logger
}

// Option configures a Pipeline.
type Option func(*pipelineConfig)

type pipelineConfig struct {
	producer string
	now      func() time.Time
	strict   bool
	logger   *zap.Logger
}

// WithProducerName sets the SOUR value of generated documents.
func WithProducerName(name string) Option {
	return func(c *pipelineConfig) { c.producer = name }
}

// WithNow sets the clock used for the header DATE.
func WithNow(now func() time.Time) Option {
	return func(c *pipelineConfig) { c.now = now }
}

// WithStrict makes schema violations fail the run instead of being reported
// as warnings.
func WithStrict(strict bool) Option {
	return func(c *pipelineConfig) { c.strict = strict }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *pipelineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewPipeline creates a Pipeline with the provided parsers. Parsers are tried
// in order; the first one that can handle a source wins.
func NewPipeline(parsers []RowParser, opts ...Option) (*Pipeline, error) {
	cfg := pipelineConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		parsers:    parsers,
		validator:  v,
		serializer: NewSerializer(WithProducer(cfg.producer), WithClock(cfg.now)),
		strict:     cfg.strict,
		logger:     cfg.logger,
	}, nil
}

// Result is the output of a successful pipeline run.
type Result struct {
	Document   Document
	Pedigree   *Pedigree
	GEDCOM     string
	ParserUsed string
	Warnings   []Warning
}

// Run parses source and runs the document through the pipeline.
func (p *Pipeline) Run(ctx context.Context, source Source) (Result, error) {
	parser, err := p.selectParser(source)
	if err != nil {
		return Result{}, err
	}

	doc, err := parser.Parse(ctx, source)
	if err != nil {
		return Result{}, fmt.Errorf("parser %q failed: %w", parser.Name(), err)
	}

	res, err := p.RunDocument(ctx, doc)
	if err != nil {
		return Result{}, err
	}
	res.ParserUsed = parser.Name()
	return res, nil
}

// RunDocument completes, normalizes, validates, resolves and serializes an
// already decoded document.
func (p *Pipeline) RunDocument(ctx context.Context, doc Document) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	doc = Prepare(doc)

	schemaWarnings := p.validator.Validate(doc)
	if p.strict && len(schemaWarnings) > 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrSchema, schemaWarnings[0])
	}

	ped, err := Resolve(doc.Rows)
	if err != nil {
		return Result{}, err
	}

	warnings := append(schemaWarnings, ped.Warnings...)
	if warnings == nil {
		warnings = []Warning{}
	}
	for _, w := range warnings {
		p.logger.Debug("row warning",
			zap.Int("rin", w.RIN),
			zap.String("kind", string(w.Kind)),
			zap.String("message", w.Message))
	}
	p.logger.Info("resolved form",
		zap.String("interview", doc.Metadata.InterviewID),
		zap.Int("individuals", len(ped.Individuals)),
		zap.Int("families", len(ped.Families)),
		zap.Int("warnings", len(warnings)))

	return Result{
		Document: doc,
		Pedigree: ped,
		GEDCOM:   p.serializer.Serialize(ped),
		Warnings: warnings,
	}, nil
}

// Prepare completes rows and metadata and resolves ditto markers.
func Prepare(doc Document) Document {
	rows := doc.Rows
	if rows == nil {
		rows = []Row{}
	}
	doc.Rows = NormalizeDitto(Complete(rows))
	doc.Metadata = CompleteMetadata(doc.Metadata, doc.Rows)
	return doc
}

// selectParser returns the first registered parser that can handle the given source.
func (p *Pipeline) selectParser(source Source) (RowParser, error) {
	for _, parser := range p.parsers {
		if parser.CanHandle(source) {
			return parser, nil
		}
	}
	return nil, fmt.Errorf("%w: no parser found for source %q (format hint: %q)", ErrUnsupportedFormat, source.ID, source.Format)
}

// RegisteredParsers returns the names of all currently registered parsers.
func (p *Pipeline) RegisteredParsers() []string {
	names := make([]string, len(p.parsers))
	for i, parser := range p.parsers {
		names[i] = parser.Name()
	}
	return names
}

// ExportFilename is the file name a form's document is saved under.
func ExportFilename(md Metadata) string {
	name := md.OriginalFilename
	if name == "" {
		name = "export"
	}
	return fmt.Sprintf("MZ11_%s.ged", name)
}
