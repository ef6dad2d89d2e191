// Package handler exposes the statement pipeline over HTTP.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/categorization"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/insights"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/scoring"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/service"
)

const (
	// DefaultMaxTransactions caps the transaction sample in responses.
	DefaultMaxTransactions = 100

	uploadField = "file"
	// multipartOverhead allows for boundaries and part headers around the file.
	multipartOverhead = 1 << 20
	maxSearchLimit    = 50

	defaultAccountType = "checking"
	defaultCurrency    = "SAR"
)

// Analyzer runs the pipeline. *service.StatementService implements it.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, data []byte) (*service.Analysis, error)
	ExportCSV(ctx context.Context, filename string, data []byte, query string, w io.Writer) (int, error)
	Validate(filename string, size int64) (service.Format, error)
	MaxUploadBytes() int64
}

// CatalogSearcher answers catalog lookups. *categorization.SearchIndex
// implements it.
type CatalogSearcher interface {
	Search(query string, limit int) ([]categorization.SearchResult, error)
}

// Config tunes the handler.
type Config struct {
	MaxTransactions int
}

// StatementHandler serves statement uploads and catalog lookups.
type StatementHandler struct {
	analyzer Analyzer
	catalog  CatalogSearcher
	config   Config
	logger   *slog.Logger
}

// NewStatementHandler creates a new statement handler
func NewStatementHandler(analyzer Analyzer, catalog CatalogSearcher, config Config, logger *slog.Logger) *StatementHandler {
	if config.MaxTransactions <= 0 {
		config.MaxTransactions = DefaultMaxTransactions
	}
	return &StatementHandler{
		analyzer: analyzer,
		catalog:  catalog,
		config:   config,
		logger:   logger,
	}
}

// Register mounts the handler routes on mux.
func (h *StatementHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /analyze", h.Analyze)
	mux.HandleFunc("POST /v1/statements/analyze", h.Analyze)
	mux.HandleFunc("POST /v1/statements/transactions.csv", h.ExportTransactions)
	mux.HandleFunc("GET /v1/catalog/search", h.SearchCatalog)
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /{$}", h.Status)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type metadata struct {
	AccountType string `json:"accountType"`
	Currency    string `json:"currency"`
}

type explanation struct {
	WhyScoreChanged string `json:"whyScoreChanged"`
}

type analysisResponse struct {
	AnalysisID       string                  `json:"analysisId"`
	Bank             string                  `json:"bank"`
	Metadata         metadata                `json:"metadata"`
	Features         *insights.FeatureSet    `json:"features"`
	Score            int                     `json:"score"`
	BaseScore        int                     `json:"baseScore"`
	AIExpectedScore  *int                    `json:"aiExpectedScore"`
	ScoreSource      scoring.Source          `json:"scoreSource"`
	Summary          string                  `json:"summary"`
	Recommendations  []string                `json:"recommendations"`
	Explanation      explanation             `json:"explanation"`
	TransactionCount int                     `json:"transactionCount"`
	Transactions     []statement.Transaction `json:"transactions"`
}

type narrativeResponse struct {
	AnalysisID      string      `json:"analysisId"`
	Mode            string      `json:"mode"`
	Summary         string      `json:"summary"`
	Recommendations []string    `json:"recommendations"`
	Explanation     explanation `json:"explanation"`
}

type searchResponse struct {
	Results []categorization.SearchResult `json:"results"`
}

// Analyze handles a statement upload and returns features and a score.
func (h *StatementHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	analysis, err := h.analyzer.Analyze(r.Context(), filename, data)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if analysis.Mode == service.ModeNarrative {
		writeJSON(w, http.StatusOK, narrativeResponse{
			AnalysisID:      analysis.ID.String(),
			Mode:            string(service.ModeNarrative),
			Summary:         analysis.Score.Summary,
			Recommendations: analysis.Score.Recommendations,
			Explanation:     explanation{WhyScoreChanged: analysis.Score.Narrative},
		})
		return
	}

	writeJSON(w, http.StatusOK, h.toAnalysisResponse(analysis))
}

func (h *StatementHandler) toAnalysisResponse(a *service.Analysis) analysisResponse {
	txs := a.Statement.Transactions
	sample := txs
	if len(sample) > h.config.MaxTransactions {
		sample = sample[:h.config.MaxTransactions]
	}

	return analysisResponse{
		AnalysisID:       a.ID.String(),
		Bank:             a.Statement.Bank,
		Metadata:         metadata{AccountType: defaultAccountType, Currency: defaultCurrency},
		Features:         a.Features,
		Score:            a.Score.FinalScore,
		BaseScore:        a.Score.BaseScore,
		AIExpectedScore:  a.Score.ExternalScoreHint,
		ScoreSource:      a.Score.Source,
		Summary:          a.Score.Summary,
		Recommendations:  a.Score.Recommendations,
		Explanation:      explanation{WhyScoreChanged: a.Score.Narrative},
		TransactionCount: len(txs),
		Transactions:     sample,
	}
}

// ExportTransactions returns the normalized transactions of a spreadsheet
// upload as CSV. The optional form value q filters descriptions.
func (h *StatementHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	n, err := h.analyzer.ExportCSV(r.Context(), filename, data, r.FormValue("q"), &buf)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.Header().Set("X-Transaction-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write csv export", slog.Any("error", err))
	}
}

// SearchCatalog ranks catalog entries against q.
func (h *StatementHandler) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request", Details: "query parameter q is required"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxSearchLimit {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "Invalid request",
				Details: fmt.Sprintf("limit must be an integer between 1 and %d", maxSearchLimit),
			})
			return
		}
		limit = v
	}

	results, err := h.catalog.Search(query, limit)
	if err != nil {
		h.logger.Error("failed to search catalog", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Search failed"})
		return
	}
	if results == nil {
		results = []categorization.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// Status describes the service.
func (h *StatementHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "statement-analyzer",
		"status":  "ok",
		"endpoints": []string{
			"POST /analyze",
			"POST /v1/statements/analyze",
			"POST /v1/statements/transactions.csv",
			"GET /v1/catalog/search",
		},
	})
}

// Health is the liveness probe.
func (h *StatementHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload validates and reads the multipart file. The extension and the
// declared size are checked before the file body is read.
func (h *StatementHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := h.analyzer.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, statement.NewValidationError(uploadField,
				fmt.Sprintf("upload exceeds %d bytes", limit), statement.ErrFileTooLarge)
		}
		return "", nil, statement.NewValidationError(uploadField, "request must be multipart/form-data", statement.ErrMissingFile)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return "", nil, statement.NewValidationError(uploadField, "no file uploaded in field \"file\"", statement.ErrMissingFile)
	}
	defer file.Close()

	if _, err := h.analyzer.Validate(header.Filename, header.Size); err != nil {
		return "", nil, err
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return header.Filename, data, nil
}

func (h *StatementHandler) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *statement.ValidationError
		parseErr      *statement.ParseError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid upload", Details: validationErr.Message})
	case errors.As(err, &parseErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: parseErr.Message, Details: parseErr.Hint})
	default:
		h.logger.Error("failed to analyze statement", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Analysis failed", Details: "An unexpected error occurred while processing the statement."})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
