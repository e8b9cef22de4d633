package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/skillgap/internal/embedding"
	"github.com/spigell/skillgap/internal/scoring"
	"github.com/spigell/skillgap/internal/semantic"
	"github.com/spigell/skillgap/internal/taxonomy"
)

const (
	resumeText = "5 years Python and editing experience"
	jobText    = "Require Python, editing, 3 years"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("provider unavailable")
}

func (failingEmbedder) Dimension() int { return 8 }

func testTaxonomy() *taxonomy.Taxonomy {
	return taxonomy.New(map[string][]string{
		"PYTHON":  {"python"},
		"EDITING": {"editing", "adobe premiere"},
	})
}

func newTestServer(t *testing.T, embedder embedding.Embedder, cfg Config) (http.Handler, *observer.ObservedLogs) {
	t.Helper()

	taxo := testTaxonomy()
	var sem *semantic.Scorer
	if embedder != nil {
		var err error
		sem, err = semantic.NewScorer(embedder, taxo)
		require.NoError(t, err)
	}

	core, logs := observer.New(zap.DebugLevel)
	return New(cfg, scoring.Default(), sem, taxo, zap.New(core)).Handler(), logs
}

func postForm(h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postFiles(t *testing.T, h http.Handler, files map[string][2]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, f := range files {
		part, err := mw.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/score/semantic/file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h, logs := newTestServer(t, nil, Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok": true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, w.Header().Get(requestIDHeader), entries[0].ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
}

func TestExtract(t *testing.T) {
	h, _ := newTestServer(t, nil, Config{})

	for _, path := range []string{"/extract/resume", "/extract/jd"} {
		t.Run(path, func(t *testing.T) {
			w := postForm(h, path, url.Values{"text": {resumeText}})

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"skills": ["EDITING", "PYTHON"], "role": "UNKNOWN", "years": 5}`, w.Body.String())
		})
	}
}

func TestExtractMultipartForm(t *testing.T) {
	h, _ := newTestServer(t, nil, Config{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "Colorist, DaVinci"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract/resume", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"skills": [], "role": "COLOR_GRADING", "years": 0}`, w.Body.String())
}

func TestScorePair(t *testing.T) {
	h, _ := newTestServer(t, nil, Config{})

	w := postForm(h, "/score/pair", url.Values{"resume_text": {resumeText}, "jd_text": {jobText}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"fit_score": 0.783,
		"matched_required": ["EDITING", "PYTHON"],
		"missing_required": [],
		"role_match": false,
		"years_candidate": 5,
		"years_required": 3
	}`, w.Body.String())
}

func TestMissingFields(t *testing.T) {
	h, _ := newTestServer(t, embedding.NewHashing(16), Config{})

	tests := []struct {
		name   string
		path   string
		values url.Values
		expect []string
	}{
		{name: "extract without text", path: "/extract/resume", values: url.Values{}, expect: []string{"text"}},
		{name: "blank text", path: "/extract/jd", values: url.Values{"text": {""}}, expect: []string{"text"}},
		{name: "pair without jd", path: "/score/pair", values: url.Values{"resume_text": {"x"}}, expect: []string{"jd_text"}},
		{name: "semantic without both", path: "/score/semantic", values: url.Values{}, expect: []string{"resume_text", "jd_text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(h, tt.path, tt.values)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)

			var resp struct {
				Detail []fieldError `json:"detail"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			got := make([]string, 0, len(resp.Detail))
			for _, d := range resp.Detail {
				assert.Equal(t, "body", d.Loc[0])
				assert.Equal(t, "value_error.missing", d.Type)
				got = append(got, d.Loc[1])
			}
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	h, _ := newTestServer(t, nil, Config{})

	req := httptest.NewRequest(http.MethodPost, "/extract/resume", strings.NewReader("text=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malformed request body")
}

func TestBodyTooLarge(t *testing.T) {
	h, _ := newTestServer(t, nil, Config{MaxUploadBytes: 16})

	w := postForm(h, "/extract/resume", url.Values{"text": {strings.Repeat("python ", 10)}})

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestServer(t, nil, Config{})

	req := httptest.NewRequest(http.MethodGet, "/score/pair", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestScoreSemantic(t *testing.T) {
	h, _ := newTestServer(t, embedding.NewHashing(64), Config{})

	w := postForm(h, "/score/semantic", url.Values{"resume_text": {"Python editing"}, "jd_text": {"python EDITING"}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"semantic_score": 1,
		"matched_required": ["EDITING", "PYTHON"],
		"missing_required": []
	}`, w.Body.String())
}

func TestScoreSemanticProviderFailure(t *testing.T) {
	h, logs := newTestServer(t, failingEmbedder{}, Config{})

	w := postForm(h, "/score/semantic", url.Values{"resume_text": {resumeText}, "jd_text": {jobText}})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("semantic scoring failed").Len())
}

func TestScoreSemanticNotConfigured(t *testing.T) {
	h, _ := newTestServer(t, nil, Config{})

	w := postForm(h, "/score/semantic", url.Values{"resume_text": {resumeText}, "jd_text": {jobText}})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestScoreSemanticFile(t *testing.T) {
	h, _ := newTestServer(t, embedding.NewHashing(64), Config{})

	w := postFiles(t, h, map[string][2]string{
		"resume_file": {"resume.TXT", resumeText},
		"jd_file":     {"job.txt", "Editing and adobe premiere"},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var res semantic.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []string{"EDITING"}, res.Matched)
	assert.Empty(t, res.Missing)
	assert.GreaterOrEqual(t, res.SemanticScore, 0.0)
	assert.LessOrEqual(t, res.SemanticScore, 1.0)
}

func TestScoreSemanticFileErrors(t *testing.T) {
	h, _ := newTestServer(t, embedding.NewHashing(64), Config{})

	t.Run("missing file", func(t *testing.T) {
		w := postFiles(t, h, map[string][2]string{"resume_file": {"resume.txt", resumeText}})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "jd_file")
	})

	t.Run("broken docx", func(t *testing.T) {
		w := postFiles(t, h, map[string][2]string{
			"resume_file": {"resume.docx", "not a zip"},
			"jd_file":     {"job.txt", jobText},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "resume_file")
	})
}
