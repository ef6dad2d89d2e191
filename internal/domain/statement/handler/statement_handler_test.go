package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-analyzer/internal/domain/categorization"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/insights"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/scoring"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/parser"
	"github.com/FACorreiaa/statement-analyzer/internal/domain/statement/service"
)

const salaryAndTabbyCSV = "Date,Description,Amount\n45296,Salary ACME,5000\n45301,TABBY*JARIR,-1250\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRealHandler(t *testing.T, maxUpload int64) http.Handler {
	t.Helper()
	logger := discardLogger()

	catalog := categorization.DefaultCatalog()
	classifier, err := categorization.NewClassifier(catalog, logger)
	require.NoError(t, err)
	index, err := categorization.NewSearchIndex(catalog)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	svc := service.NewStatementService(
		parser.NewExtractor(parser.DefaultConfig()),
		classifier,
		scoring.NewEngine(nil, 0, logger),
		nil,
		service.Config{MaxUploadBytes: maxUpload},
		logger,
	)

	mux := http.NewServeMux()
	NewStatementHandler(svc, index, Config{}, logger).Register(mux)
	return mux
}

func multipartRequest(t *testing.T, target, field, filename string, data []byte, extra map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestAnalyze_EndToEnd(t *testing.T) {
	h := newRealHandler(t, 0)

	for _, path := range []string{"/analyze", "/v1/statements/analyze"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, multipartRequest(t, path, "file", "statement.csv", []byte(salaryAndTabbyCSV), nil))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			body := decode[map[string]any](t, rec)
			assert.Equal(t, 690.0, body["score"])
			assert.Equal(t, 690.0, body["baseScore"])
			assert.Nil(t, body["aiExpectedScore"])
			assert.Contains(t, body, "aiExpectedScore")
			assert.Equal(t, "rule_based", body["scoreSource"])
			assert.Equal(t, 2.0, body["transactionCount"])
			assert.Equal(t, map[string]any{"accountType": "checking", "currency": "SAR"}, body["metadata"])
			assert.Equal(t, map[string]any{"whyScoreChanged": "Financial analysis completed. Rule-based score: 690."}, body["explanation"])

			_, err := uuid.Parse(body["analysisId"].(string))
			assert.NoError(t, err)

			features := body["features"].(map[string]any)
			assert.Equal(t, 0.75, features["savingsRatio"])
			assert.Equal(t, 5000.0, features["totalIncome"])

			txs := body["transactions"].([]any)
			require.Len(t, txs, 2)
			tabby := txs[1].(map[string]any)
			assert.Equal(t, "2024-01-10", tabby["date"])
			assert.Equal(t, true, tabby["isBnpl"])
			assert.Equal(t, "tabby", tabby["provider"])
		})
	}
}

func TestAnalyze_UploadErrors(t *testing.T) {
	h := newRealHandler(t, 64)

	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantError  string
	}{
		{
			name: "missing file field",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/analyze", "", "", nil, map[string]string{"note": "x"})
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid upload",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{}"))
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid upload",
		},
		{
			name: "unsupported extension",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/analyze", "file", "statement.txt", []byte("hello"), nil)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid upload",
		},
		{
			name: "over the limit",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/analyze", "file", "statement.csv", bytes.Repeat([]byte("a"), 200), nil)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid upload",
		},
		{
			name: "no transactions",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/analyze", "file", "statement.csv", []byte("Date,Description\nfoo,bar\n"), nil)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "No valid transactions could be extracted from the document.",
		},
		{
			name: "empty document",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/analyze", "file", "statement.csv", []byte(" "), nil)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Uploaded document appears to be empty or could not be parsed.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req(t))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decode[errorResponse](t, rec)
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}

type fakeAnalyzer struct {
	analysis *service.Analysis
	err      error
}

func (f *fakeAnalyzer) Analyze(context.Context, string, []byte) (*service.Analysis, error) {
	return f.analysis, f.err
}

func (f *fakeAnalyzer) ExportCSV(context.Context, string, []byte, string, io.Writer) (int, error) {
	return 0, f.err
}

func (f *fakeAnalyzer) Validate(filename string, _ int64) (service.Format, error) {
	return service.DetectFormat(filename)
}

func (f *fakeAnalyzer) MaxUploadBytes() int64 {
	return service.DefaultMaxUploadBytes
}

func newFakeHandler(a *fakeAnalyzer, cfg Config) http.Handler {
	mux := http.NewServeMux()
	NewStatementHandler(a, nil, cfg, discardLogger()).Register(mux)
	return mux
}

func TestAnalyze_Narrative(t *testing.T) {
	id := uuid.New()
	h := newFakeHandler(&fakeAnalyzer{analysis: &service.Analysis{
		ID:   id,
		Mode: service.ModeNarrative,
		Score: &scoring.Result{
			Narrative:       "Regular salary deposits.",
			Recommendations: []string{"Keep an emergency fund."},
			Summary:         "Regular salary deposits. Keep an emergency fund.",
		},
	}}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/analyze", "file", "letter.docx", []byte("PK"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, id.String(), body["analysisId"])
	assert.Equal(t, "narrative", body["mode"])
	assert.Equal(t, "Regular salary deposits. Keep an emergency fund.", body["summary"])
	assert.NotContains(t, body, "score")
}

func TestAnalyze_TransactionSampleIsCapped(t *testing.T) {
	txs := make([]statement.Transaction, 7)
	for i := range txs {
		txs[i] = statement.Transaction{Description: fmt.Sprintf("purchase %d", i), Amount: -10, Type: statement.TypeExpense}
	}
	h := newFakeHandler(&fakeAnalyzer{analysis: &service.Analysis{
		ID:        uuid.New(),
		Mode:      service.ModeScored,
		Statement: &statement.ParsedStatement{Bank: statement.UnknownBank, Transactions: txs},
		Features:  &insights.FeatureSet{},
		Score:     &scoring.Result{BaseScore: 540, FinalScore: 540, Source: scoring.SourceRuleBased},
	}}, Config{MaxTransactions: 3})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/analyze", "file", "statement.xlsx", []byte("x"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, 7.0, body["transactionCount"])
	assert.Len(t, body["transactions"], 3)
	assert.Equal(t, "Unknown", body["bank"])
}

func TestAnalyze_UnexpectedError(t *testing.T) {
	h := newFakeHandler(&fakeAnalyzer{err: errors.New("disk on fire")}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/analyze", "file", "statement.xlsx", []byte("x"), nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "Analysis failed", body.Error)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestExportTransactions(t *testing.T) {
	h := newRealHandler(t, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/v1/statements/transactions.csv", "file", "statement.csv", []byte(salaryAndTabbyCSV), map[string]string{"q": "tabby"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Transaction-Count"))
	assert.Contains(t, rec.Body.String(), "TABBY*JARIR")
	assert.NotContains(t, rec.Body.String(), "Salary ACME")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/v1/statements/transactions.csv", "file", "letter.pdf", []byte("%PDF"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchCatalog(t *testing.T) {
	h := newRealHandler(t, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/catalog/search?q=tamra&limit=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[searchResponse](t, rec)
	require.NotEmpty(t, body.Results)
	assert.LessOrEqual(t, len(body.Results), 3)
	assert.Equal(t, "tamara", body.Results[0].Provider)

	for _, target := range []string{"/v1/catalog/search", "/v1/catalog/search?q=+", "/v1/catalog/search?q=tabby&limit=abc", "/v1/catalog/search?q=tabby&limit=500"} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestStatusAndHealth(t *testing.T) {
	h := newRealHandler(t, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "statement-analyzer")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
