package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/documents"
	"github.com/spigell/skillgap/internal/scoring"
)

const multipartMemory = 8 << 20

type textRequest struct {
	Text string `mapstructure:"text" validate:"required"`
}

type pairRequest struct {
	ResumeText string `mapstructure:"resume_text" validate:"required"`
	JDText     string `mapstructure:"jd_text" validate:"required"`
}

// fieldError is one item of a 422 response body.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func missingField(name string) fieldError {
	return fieldError{Loc: []string{"body", name}, Msg: "field required", Type: "value_error.missing"}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeForm(w, r, &req) {
		return
	}

	s.jsonResponse(w, r, http.StatusOK, scoring.Analyze(req.Text, s.taxonomy))
}

func (s *Server) handleScorePair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if !s.decodeForm(w, r, &req) {
		return
	}

	fit := s.scorer.ScorePair(req.ResumeText, req.JDText, s.taxonomy)
	requestLogger(r).Debug("pair scored", zap.Float64("fit_score", fit.FitScore))

	s.jsonResponse(w, r, http.StatusOK, fit)
}

func (s *Server) handleScoreSemantic(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if !s.decodeForm(w, r, &req) {
		return
	}

	s.scoreSemantic(w, r, req.ResumeText, req.JDText)
}

func (s *Server) handleScoreSemanticFile(w http.ResponseWriter, r *http.Request) {
	if !s.parseBody(w, r) {
		return
	}

	var missing []fieldError
	texts := make(map[string]string, 2)
	for _, field := range []string{"resume_file", "jd_file"} {
		text, err := s.readUpload(r, field)
		switch {
		case errors.Is(err, http.ErrMissingFile):
			missing = append(missing, missingField(field))
		case err != nil:
			requestLogger(r).Warn("reading upload", zap.String("field", field), zap.Error(err))
			s.errorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("%s: %v", field, err))
			return
		default:
			texts[field] = text
		}
	}
	if len(missing) > 0 {
		s.jsonResponse(w, r, http.StatusUnprocessableEntity, map[string]any{"detail": missing})
		return
	}

	s.scoreSemantic(w, r, texts["resume_file"], texts["jd_file"])
}

func (s *Server) scoreSemantic(w http.ResponseWriter, r *http.Request, resumeText, jobText string) {
	if s.semantic == nil {
		s.errorResponse(w, r, http.StatusServiceUnavailable, "semantic scoring is not configured")
		return
	}

	result, err := s.semantic.Score(r.Context(), resumeText, jobText)
	if err != nil {
		requestLogger(r).Warn("semantic scoring failed", zap.Error(err))
		s.errorResponse(w, r, http.StatusBadGateway, "embedding provider failed")
		return
	}

	s.jsonResponse(w, r, http.StatusOK, result)
}

func (s *Server) readUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	return documents.ExtractText(r.Context(), data, filepath.Ext(header.Filename))
}

// parseBody reads a urlencoded or multipart form bounded by MaxUploadBytes.
// It writes the error response itself and reports whether handling may continue.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var err error
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.errorResponse(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return false
	}

	s.errorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("malformed request body: %v", err))
	return false
}

// decodeForm parses the body into dst and validates it.
func (s *Server) decodeForm(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !s.parseBody(w, r) {
		return false
	}

	values := make(map[string]any, len(r.PostForm))
	for key, v := range r.PostForm {
		if len(v) > 0 {
			values[key] = v[0]
		}
	}

	if err := mapstructure.Decode(values, dst); err != nil {
		s.errorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("decode form: %v", err))
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			s.errorResponse(w, r, http.StatusBadRequest, err.Error())
			return false
		}

		details := make([]fieldError, 0, len(invalid))
		for _, fe := range invalid {
			details = append(details, missingField(fe.Field()))
		}
		s.jsonResponse(w, r, http.StatusUnprocessableEntity, map[string]any{"detail": details})
		return false
	}

	return true
}
