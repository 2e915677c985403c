package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

const (
	defaultRounds = 2
	maxRounds     = 4
)

// Verifier is the part of the pipeline the server needs
type Verifier interface {
	Verify(ctx context.Context, claim string, rounds int) (*model.VerdictResult, error)
}

// Server exposes claim verification over HTTP: a minimal HTML form for
// humans and a JSON API for machines.
type Server struct {
	verifier Verifier
	addr     string
	verbose  bool
}

// New creates a new server around the verifier
func New(verifier Verifier, addr string, verbose bool) *Server {
	return &Server{verifier: verifier, addr: addr, verbose: verbose}
}

// Handler returns the HTTP handler with all routes mounted
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/verify", s.handleVerifyForm)
	mux.HandleFunc("/api/verify", s.handleVerifyAPI)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe runs the server until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	if s.verbose {
		fmt.Fprintf(os.Stderr, "Listening on %s\n", s.addr)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.renderPage(w, pageData{Rounds: defaultRounds})
}

func (s *Server) handleVerifyForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	claim := r.PostFormValue("claim")
	rounds := clampRounds(r.PostFormValue("rounds"))

	result, err := s.verifier.Verify(r.Context(), claim, rounds)
	if err != nil {
		s.renderPage(w, pageData{Claim: claim, Rounds: rounds, Error: userMessage(err)})
		return
	}

	s.renderPage(w, pageData{Claim: claim, Rounds: rounds, Result: result})
}

// verifyRequest is the JSON API request body
type verifyRequest struct {
	Claim  string `json:"claim"`
	Rounds int    `json:"rounds"`
}

// verifyResponse mirrors the fields API consumers need; narratives stay
// internal
type verifyResponse struct {
	Claim       string          `json:"claim"`
	Verdict     model.Verdict   `json:"verdict"`
	Confidence  float64         `json:"confidence"`
	Explanation string          `json:"explanation"`
	TopSnippets []model.Snippet `json:"top_snippets"`
}

func (s *Server) handleVerifyAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rounds := req.Rounds
	if rounds <= 0 {
		rounds = defaultRounds
	}
	if rounds > maxRounds {
		rounds = maxRounds
	}

	result, err := s.verifier.Verify(r.Context(), req.Claim, rounds)
	if err != nil {
		writeJSONError(w, statusFor(err), userMessage(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(verifyResponse{
		Claim:       result.Claim,
		Verdict:     result.Verdict,
		Confidence:  result.Confidence,
		Explanation: result.Explanation,
		TopSnippets: result.TopSnippets,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// statusFor maps pipeline errors onto HTTP status codes: caller mistakes
// are 4xx, upstream dependency failures are 502
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrEmptyClaim):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoEvidence), errors.Is(err, model.ErrEmbeddingUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userMessage strips wrapping detail down to something fit for a response
func userMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrEmptyClaim):
		return "claim must not be empty"
	case errors.Is(err, model.ErrNoEvidence):
		return "no evidence found for this claim"
	case errors.Is(err, model.ErrEmbeddingUnavailable):
		return "embedding service unavailable"
	default:
		return err.Error()
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func clampRounds(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return defaultRounds
	}
	if n > maxRounds {
		return maxRounds
	}
	return n
}

type pageData struct {
	Claim  string
	Rounds int
	Result *model.VerdictResult
	Error  string
}

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>ClaimLens</title>
<style>
body { font-family: sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; }
textarea { width: 100%; height: 4rem; }
.verdict { font-size: 1.3rem; font-weight: bold; }
.error { color: #b00; }
.snippet { margin: 0.4rem 0; padding: 0.4rem; background: #f4f4f4; }
pre { white-space: pre-wrap; }
</style>
</head>
<body>
<h1>ClaimLens</h1>
<form method="post" action="/verify">
<textarea name="claim" placeholder="Enter a claim to verify">{{.Claim}}</textarea>
<p><label>Search rounds: <input type="number" name="rounds" min="1" max="4" value="{{.Rounds}}"></label>
<button type="submit">Verify</button></p>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{with .Result}}
<hr>
<p class="verdict">{{.Verdict}} ({{printf "%.2f" .Confidence}})</p>
<pre>{{.Explanation}}</pre>
{{if .TopSnippets}}
<h2>Evidence</h2>
{{range .TopSnippets}}
<div class="snippet">{{.Text}}<br><a href="{{.SourceURL}}">{{.SourceURL}}</a></div>
{{end}}
{{end}}
{{end}}
</body>
</html>
`))

func (s *Server) renderPage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: render page: %v\n", err)
	}
}
