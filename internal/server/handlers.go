package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/matsen/citecheck/internal/checker"
	"github.com/matsen/citecheck/internal/citation"
	"github.com/matsen/citecheck/internal/report"
	"github.com/matsen/citecheck/internal/verify"
	"go.uber.org/zap"
)

// User-facing messages.
const (
	msgEmptyInput = "Please paste some citations first."
	msgNoneParsed = "No citations could be parsed from the input."
	msgCancelled  = "The check was cancelled before it finished."
	msgBadJSON    = "Request body must be JSON: {\"text\": \"...\", \"check_doi\": true, \"check_url\": true}."
)

// checkError carries the HTTP status for a failed check.
type checkError struct {
	status  int
	message string
}

func (e *checkError) Error() string { return e.message }

// checkRequest is the JSON body of the API endpoints. Omitted flags default to true.
type checkRequest struct {
	Text     string `json:"text"`
	CheckDOI *bool  `json:"check_doi"`
	CheckURL *bool  `json:"check_url"`
}

func (req checkRequest) flags() verify.Flags {
	f := verify.DefaultFlags()
	if req.CheckDOI != nil {
		f.CheckDOI = *req.CheckDOI
	}
	if req.CheckURL != nil {
		f.CheckURL = *req.CheckURL
	}
	return f
}

// checkResponse is the body of POST /api/check.
type checkResponse struct {
	Format    citation.Format   `json:"format"`
	Summary   citation.Summary  `json:"summary"`
	Citations []citation.Result `json:"citations"`
}

// run checks text and maps the no-input, nothing-parsed and cancelled
// outcomes to checkErrors.
func (s *Server) run(ctx context.Context, text string, flags verify.Flags) (checker.Report, error) {
	if strings.TrimSpace(text) == "" {
		return checker.Report{}, &checkError{http.StatusBadRequest, msgEmptyInput}
	}
	rep, err := s.checker.Check(ctx, text, flags)
	if err != nil {
		s.logger.Warn("check cancelled", zap.Error(err))
		return checker.Report{}, &checkError{http.StatusServiceUnavailable, msgCancelled}
	}
	if len(rep.Results) == 0 {
		return checker.Report{}, &checkError{http.StatusUnprocessableEntity, msgNoneParsed}
	}
	return rep, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "index", pageData{CheckDOI: true, CheckURL: true})
}

func (s *Server) handleCheckForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, "index", pageData{Error: "Could not read the form: " + err.Error()})
		return
	}

	data := pageData{
		Text:     r.PostForm.Get("text"),
		CheckDOI: r.PostForm.Get("check_doi") != "",
		CheckURL: r.PostForm.Get("check_url") != "",
	}

	start := time.Now()
	rep, err := s.run(r.Context(), data.Text, verify.Flags{CheckDOI: data.CheckDOI, CheckURL: data.CheckURL})
	if err != nil {
		var ce *checkError
		errors.As(err, &ce)
		data.Error = ce.message
		s.renderPage(w, ce.status, "index", data)
		return
	}

	data.Format = string(rep.Format)
	data.Summary = rep.Summary()
	data.Results = rep.Results
	data.Elapsed = time.Since(start).Round(time.Millisecond).String()
	s.renderPage(w, http.StatusOK, "results", data)
}

func (s *Server) handleCheckAPI(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	rep, err := s.run(r.Context(), req.Text, req.flags())
	if err != nil {
		s.writeCheckError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{
		Format:    rep.Format,
		Summary:   rep.Summary(),
		Citations: rep.Results,
	})
}

// contentTypes maps renderer names to response content types.
var contentTypes = map[string]string{
	"json":   "application/json",
	"csv":    "text/csv; charset=utf-8",
	"html":   "text/html; charset=utf-8",
	"bibtex": "application/x-bibtex; charset=utf-8",
	"pdf":    "application/pdf",
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "format"))
	renderer, err := report.ByName(name)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unsupported export format %q (use json, csv, html, bibtex or pdf)", name))
		return
	}

	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	rep, err := s.run(r.Context(), req.Text, req.flags())
	if err != nil {
		s.writeCheckError(w, err)
		return
	}

	doc := report.NewDocument(rep.Format, rep.Results)
	var buf bytes.Buffer
	if err := renderer.Render(&buf, doc); err != nil {
		s.logger.Error("export failed", zap.String("format", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", contentTypes[name])
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="citation_report%s"`, renderer.Extensions()[0]))
	w.Header().Set("X-Report-ID", doc.ID.String())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (checkRequest, bool) {
	var req checkRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadJSON)
		return req, false
	}
	return req, true
}

func (s *Server) writeCheckError(w http.ResponseWriter, err error) {
	var ce *checkError
	if errors.As(err, &ce) {
		writeError(w, ce.status, ce.message)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
