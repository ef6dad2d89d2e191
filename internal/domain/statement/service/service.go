// Package service runs the statement analysis pipeline: it validates an
// upload, turns it into transactions, classifies them, aggregates features and
// scores the result.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/categorization"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/insights"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/scoring"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/parser"
	"github.com/FACorreiaa/statement-analyzer/pkg/textextract"
)

// DefaultMaxUploadBytes is the largest accepted upload.
const DefaultMaxUploadBytes = 20 << 20

const msgEmptyDocument = "Uploaded document appears to be empty or could not be parsed."

var tracer = otel.Tracer("statement-analyzer")

// Mode tells scored analyses apart from narrative-only ones.
type Mode string

const (
	ModeScored    Mode = "score"
	ModeNarrative Mode = "narrative"
)

// Analysis is the outcome of one upload. Statement, Classification and
// Features are only set in ModeScored.
type Analysis struct {
	ID             uuid.UUID
	Format         Format
	Mode           Mode
	Statement      *statement.ParsedStatement
	Classification categorization.Result
	Features       *insights.FeatureSet
	Score          *scoring.Result
}

// Config tunes the service.
type Config struct {
	MaxUploadBytes int64
}

// StatementService orchestrates the analysis pipeline. It holds no per-upload
// state and is safe for concurrent use.
type StatementService struct {
	extractor  *parser.Extractor
	classifier *categorization.Classifier
	engine     *scoring.Engine
	metrics    *Metrics
	config     Config
	logger     *slog.Logger
}

// NewStatementService creates the pipeline service. metrics may be nil; a nil
// logger selects slog.Default.
func NewStatementService(
	extractor *parser.Extractor,
	classifier *categorization.Classifier,
	engine *scoring.Engine,
	metrics *Metrics,
	config Config,
	logger *slog.Logger,
) *StatementService {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatementService{
		extractor:  extractor,
		classifier: classifier,
		engine:     engine,
		metrics:    metrics,
		config:     config,
		logger:     logger,
	}
}

// MaxUploadBytes returns the configured upload limit.
func (s *StatementService) MaxUploadBytes() int64 {
	return s.config.MaxUploadBytes
}

// Analyze runs the full pipeline over an uploaded file. Spreadsheets are
// scored; flow-text documents only receive a narrative.
func (s *StatementService) Analyze(ctx context.Context, filename string, data []byte) (*Analysis, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "statement.Analyze", trace.WithAttributes(
		attribute.String("file.name", filename),
		attribute.Int("file.size", len(data)),
	))

	format, err := s.Validate(filename, int64(len(data)))
	var analysis *Analysis
	if err == nil {
		span.SetAttributes(attribute.String("file.format", format.Name()))
		if format.Tabular() {
			analysis, err = s.analyzeTabular(ctx, format, data)
		} else {
			analysis, err = s.analyzeDocument(ctx, format, data)
		}
	}

	s.metrics.observeUpload(format, outcomeOf(err), time.Since(start))
	endSpan(span, err)
	if err != nil {
		s.logger.Warn("statement analysis failed",
			slog.String("file", filename),
			slog.Any("error", err))
		return nil, err
	}

	attrs := []any{
		slog.String("analysis_id", analysis.ID.String()),
		slog.String("format", format.Name()),
		slog.String("mode", string(analysis.Mode)),
		slog.Duration("elapsed", time.Since(start)),
	}
	if parsed := analysis.Statement; parsed != nil {
		attrs = append(attrs,
			slog.String("bank", parsed.Bank),
			slog.String("layout", parsed.Layout),
			slog.Any("columns", parsed.Columns))
	}
	s.logger.Info("statement analyzed", attrs...)
	return analysis, nil
}

// Validate checks the extension and size of an upload before any parsing.
func (s *StatementService) Validate(filename string, size int64) (Format, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return "", err
	}
	if size > s.config.MaxUploadBytes {
		return format, statement.NewValidationError("file",
			fmt.Sprintf("file is %d bytes; the limit is %d bytes", size, s.config.MaxUploadBytes),
			statement.ErrFileTooLarge)
	}
	return format, nil
}

// Parse loads a tabular upload and returns its classified transactions.
func (s *StatementService) Parse(ctx context.Context, format Format, data []byte) (*statement.ParsedStatement, categorization.Result, error) {
	if !format.Tabular() {
		return nil, categorization.Result{}, statement.NewValidationError("file",
			"transactions can only be extracted from .xlsx or .csv statements",
			statement.ErrUnsupportedFileType)
	}

	grid, err := s.loadGrid(ctx, format, data)
	if err != nil {
		return nil, categorization.Result{}, err
	}

	_, span := tracer.Start(ctx, "statement.Extract")
	parsed, err := s.extractor.Extract(grid)
	if err == nil {
		span.SetAttributes(
			attribute.String("statement.bank", parsed.Bank),
			attribute.Int("statement.header_row", parsed.HeaderRow),
			attribute.String("statement.layout", parsed.Layout),
			attribute.Int("statement.transactions", len(parsed.Transactions)))
	}
	endSpan(span, err)
	if err != nil {
		return nil, categorization.Result{}, err
	}
	s.metrics.observeTransactions(len(parsed.Transactions))

	_, span = tracer.Start(ctx, "statement.Classify")
	classification := s.classifier.Classify(parsed.Transactions)
	span.SetAttributes(attribute.Int("statement.bnpl", classification.BNPL))
	endSpan(span, nil)

	return parsed, classification, nil
}

// ExportCSV writes the classified transactions of a tabular upload to w. A
// non-blank query keeps only descriptions that fuzzy-match it. It returns the
// number of rows written.
func (s *StatementService) ExportCSV(ctx context.Context, filename string, data []byte, query string, w io.Writer) (int, error) {
	ctx, span := tracer.Start(ctx, "statement.ExportCSV")
	n, err := s.exportCSV(ctx, filename, data, query, w)
	endSpan(span, err)
	return n, err
}

func (s *StatementService) exportCSV(ctx context.Context, filename string, data []byte, query string, w io.Writer) (int, error) {
	format, err := s.Validate(filename, int64(len(data)))
	if err != nil {
		return 0, err
	}
	parsed, _, err := s.Parse(ctx, format, data)
	if err != nil {
		return 0, err
	}

	txs := statement.FilterByDescription(parsed.Transactions, query)
	if err := parser.WriteCSV(w, txs); err != nil {
		return 0, err
	}
	return len(txs), nil
}

func (s *StatementService) analyzeTabular(ctx context.Context, format Format, data []byte) (*Analysis, error) {
	parsed, classification, err := s.Parse(ctx, format, data)
	if err != nil {
		return nil, err
	}

	_, span := tracer.Start(ctx, "statement.Aggregate")
	features, err := insights.Aggregate(parsed.Transactions)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	scoreCtx, span := tracer.Start(ctx, "statement.Score")
	score := s.engine.Score(scoreCtx, features, parsed)
	span.SetAttributes(
		attribute.Int("score.base", score.BaseScore),
		attribute.Int("score.final", score.FinalScore),
		attribute.String("score.source", string(score.Source)))
	if score.HintErr != nil {
		span.AddEvent("score hint discarded", trace.WithAttributes(attribute.String("error", score.HintErr.Error())))
	}
	endSpan(span, nil)
	s.metrics.observeScore(string(score.Source), score.HintLatency)

	return &Analysis{
		ID:             uuid.New(),
		Format:         format,
		Mode:           ModeScored,
		Statement:      parsed,
		Classification: classification,
		Features:       features,
		Score:          score,
	}, nil
}

func (s *StatementService) analyzeDocument(ctx context.Context, format Format, data []byte) (*Analysis, error) {
	_, span := tracer.Start(ctx, "statement.ExtractText")
	text, err := textextract.Extract(string(format), data)
	if err != nil {
		err = statement.NewParseError(format.Name(), "document text could not be extracted", "check that the file is not encrypted or scanned", err)
	} else if strings.TrimSpace(text) == "" {
		err = statement.NewParseError(format.Name(), msgEmptyDocument, "the document contains no extractable text", statement.ErrEmptyDocument)
	}
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	narrateCtx, span := tracer.Start(ctx, "statement.Narrate")
	score := s.engine.Narrate(narrateCtx, text)
	endSpan(span, nil)

	return &Analysis{
		ID:     uuid.New(),
		Format: format,
		Mode:   ModeNarrative,
		Score:  score,
	}, nil
}

func (s *StatementService) loadGrid(ctx context.Context, format Format, data []byte) (parser.Grid, error) {
	_, span := tracer.Start(ctx, "statement.LoadGrid")

	var (
		grid parser.Grid
		err  error
	)
	if len(bytes.TrimSpace(data)) == 0 {
		err = statement.NewParseError(format.Name(), msgEmptyDocument, "the uploaded file is empty", statement.ErrEmptyDocument)
	} else {
		switch format {
		case FormatXLSX:
			grid, err = parser.LoadWorkbook(bytes.NewReader(data))
		case FormatCSV:
			grid, err = parser.LoadCSV(bytes.NewReader(data))
		}
		if err != nil {
			err = statement.NewParseError(format.Name(), "file could not be read as a spreadsheet", "re-export the statement from your bank and retry", err)
		}
	}

	if err == nil {
		span.SetAttributes(attribute.Int("grid.rows", len(grid)))
	}
	endSpan(span, err)
	return grid, err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func outcomeOf(err error) string {
	var (
		validationErr *statement.ValidationError
		parseErr      *statement.ParseError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &validationErr):
		return OutcomeValidation
	case errors.As(err, &parseErr):
		return OutcomeParse
	default:
		return OutcomeError
	}
}
