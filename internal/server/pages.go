package server

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/matsen/citecheck/internal/citation"
	"go.uber.org/zap"
)

// maxListedAuthors is how many authors the results page shows per citation.
const maxListedAuthors = 3

// pages is parsed at init time to fail fast on template errors.
var pages *template.Template

func init() {
	pages = template.Must(template.New("pages").Funcs(template.FuncMap{
		"authors": formatAuthors,
		"pair":    pairIssues,
	}).Parse(pagesTemplate))
}

// pageData feeds both the form and the results page.
type pageData struct {
	Text     string
	CheckDOI bool
	CheckURL bool
	Error    string

	Format  string
	Summary citation.Summary
	Results []citation.Result
	Elapsed string
}

// issuePair is one issue with the suggestion that answers it.
type issuePair struct {
	Issue      string
	Suggestion string
}

func pairIssues(r citation.Result) []issuePair {
	out := make([]issuePair, len(r.Issues))
	for i, issue := range r.Issues {
		out[i].Issue = issue
		if i < len(r.Suggestions) {
			out[i].Suggestion = r.Suggestions[i]
		}
	}
	return out
}

// formatAuthors lists the first few authors, marking any that were cut.
func formatAuthors(authors []string) string {
	if len(authors) <= maxListedAuthors {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:maxListedAuthors], ", ") + "…"
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("rendering page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

const pagesTemplate = `
{{define "head"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Citation Checker</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      max-width: 960px;
      margin: 2em auto;
      padding: 0 1em;
      color: #222;
    }
    textarea {
      width: 100%;
      height: 16em;
      font-family: monospace;
    }
    .error {
      background: #fdecea;
      border: 1px solid #c62828;
      padding: 8px 12px;
      border-radius: 4px;
    }
    .metrics span {
      display: inline-block;
      margin-right: 1.5em;
      font-size: 1.1em;
    }
    .citation {
      border: 1px solid #ddd;
      border-radius: 4px;
      padding: 8px 12px;
      margin: 8px 0;
    }
    .valid { border-left: 6px solid #2e7d32; }
    .warning { border-left: 6px solid #ef6c00; }
    .invalid { border-left: 6px solid #c62828; }
    .suspected_fake { border-left: 6px solid #6a1b9a; }
    .issue { color: #b71c1c; }
    .suggestion { color: #555; }
  </style>
</head>
<body>
  <h1>Citation Checker</h1>
{{end}}

{{define "form"}}
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  <form method="post" action="/check">
    <p>Paste citations (BibTeX, APA/MLA-style, or plain text):</p>
    <textarea name="text">{{.Text}}</textarea>
    <p>
      <label><input type="checkbox" name="check_doi" value="on"{{if .CheckDOI}} checked{{end}}> Verify DOIs with CrossRef</label>
      <label><input type="checkbox" name="check_url" value="on"{{if .CheckURL}} checked{{end}}> Check that URLs are reachable</label>
    </p>
    <button type="submit">Check citations</button>
  </form>
{{end}}

{{define "index"}}{{template "head" .}}{{template "form" .}}
</body>
</html>
{{end}}

{{define "results"}}{{template "head" .}}
  <h2>Results</h2>
  <p class="metrics">
    <span>Total: {{.Summary.Total}}</span>
    <span>Valid: {{.Summary.Valid}}</span>
    <span>Warning: {{.Summary.Warning}}</span>
    <span>Invalid: {{.Summary.Invalid}}</span>
    <span>Suspected fake: {{.Summary.SuspectedFake}}</span>
  </p>
  <p>Detected format: {{.Format}} &middot; checked in {{.Elapsed}}</p>
  {{range .Results}}
  <div class="citation {{.Status}}">
    <strong>#{{.Index}} {{.Status}}</strong>
    {{if .Title}}<div>Title: {{.Title}}</div>{{end}}
    {{if .Authors}}<div>Authors: {{authors .Authors}}</div>{{end}}
    {{if .Year}}<div>Year: {{.Year}}</div>{{end}}
    {{if .DOI}}<div>DOI: <a href="https://doi.org/{{.DOI}}">{{.DOI}}</a> ({{.DOIResolved}})</div>{{end}}
    {{if .URL}}<div>URL: <a href="{{.URL}}">{{.URL}}</a> ({{.URLAccess}})</div>{{end}}
    {{range pair .}}
    <div class="issue">{{.Issue}}</div>
    {{if .Suggestion}}<div class="suggestion">&rarr; {{.Suggestion}}</div>{{end}}
    {{end}}
    <details><summary>Raw</summary><pre>{{.Raw}}</pre></details>
  </div>
  {{end}}
  <h2>Check more</h2>
  {{template "form" .}}
</body>
</html>
{{end}}
`
