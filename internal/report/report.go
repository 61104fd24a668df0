package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FranksOps/sitefind/internal/pipeline"
	"github.com/FranksOps/sitefind/internal/serp"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// snippetWidth bounds the snippet column of the text table.
const snippetWidth = 60

// Summary describes one site search for display.
type Summary struct {
	SearchQuery string            `json:"search_query,omitempty"`
	Query       string            `json:"query"`
	Found       bool              `json:"found"`
	Best        *serp.Candidate   `json:"best"`
	Candidates  serp.CandidateSet `json:"candidates"`
	Blocked     bool              `json:"blocked"`
	BlockedBy   string            `json:"blocked_by,omitempty"`
	StatusCode  int               `json:"status_code,omitempty"`
	Bytes       int               `json:"bytes"`
	Duration    time.Duration     `json:"duration_ns,omitempty"`
}

// GenerateSummary collects the displayable parts of out. query is the
// original user phrase.
func GenerateSummary(out *pipeline.Outcome, query string) Summary {
	s := Summary{Query: query}
	if out == nil {
		return s
	}

	s.SearchQuery = out.SearchQuery
	s.Found = out.Found
	s.Candidates = out.Candidates
	s.Blocked = out.Blocked
	s.BlockedBy = out.BlockedBy
	if out.Found {
		best := out.Best
		s.Best = &best
	}
	if res := out.Response; res != nil {
		s.StatusCode = res.StatusCode
		s.Bytes = len(res.Body)
		s.Duration = res.Duration
	}
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a header and a table of ranked candidates.
func WriteText(w io.Writer, summary Summary) error {
	var b strings.Builder
	if summary.SearchQuery != "" {
		fmt.Fprintf(&b, "Search:   %s\n", summary.SearchQuery)
	}
	fmt.Fprintf(&b, "Query:    %s\n", summary.Query)
	if summary.StatusCode != 0 {
		fmt.Fprintf(&b, "Upstream: HTTP %d, %d bytes in %s\n", summary.StatusCode, summary.Bytes, summary.Duration.Round(time.Millisecond))
	}
	if summary.Blocked {
		fmt.Fprintf(&b, "Warning:  upstream served a %s block page\n", summary.BlockedBy)
	}
	if summary.Best != nil {
		fmt.Fprintf(&b, "Best:     %s\n", summary.Best.URL)
	} else {
		b.WriteString("Best:     no results found\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if len(summary.Candidates) == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Score", "Title", "URL", "Snippet"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 5, WidthMax: snippetWidth},
	})
	for i, c := range summary.Candidates {
		t.AppendRow(table.Row{
			i + 1,
			strconv.FormatFloat(c.Score, 'f', 2, 64),
			c.Title,
			c.URL,
			truncate(c.Snippet, snippetWidth*2),
		})
	}
	t.Render()
	return nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Site search report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Site search report</h1>
  <p><strong>Search:</strong> {{.SearchQuery}}</p>

  <div class="stat-card">
    <div>Candidates</div>
    <div class="stat-val">{{len .Candidates}}</div>
  </div>
  <div class="stat-card">
    <div>Upstream status</div>
    <div class="stat-val">{{if .StatusCode}}{{.StatusCode}}{{else}}n/a{{end}}</div>
  </div>
  <div class="stat-card">
    <div>Block page</div>
    <div class="stat-val" style="color: {{if .Blocked}}red{{else}}green{{end}};">{{if .Blocked}}{{.BlockedBy}}{{else}}none{{end}}</div>
  </div>

  <h3>Best match</h3>
  {{- with .Best}}
  <p><a href="{{.URL}}">{{.Title}}</a><br>{{.Snippet}}</p>
  {{- else}}
  <p>No results found</p>
  {{- end}}

  <h3>Candidates</h3>
  <table>
    <tr><th>Score</th><th>Title</th><th>URL</th><th>Snippet</th></tr>
    {{- range .Candidates}}
    <tr><td>{{printf "%.2f" .Score}}</td><td>{{.Title}}</td><td><a href="{{.URL}}">{{.URL}}</a></td><td>{{.Snippet}}</td></tr>
    {{- else}}
    <tr><td colspan="4">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := template.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	return nil
}

// Write renders summary in format, one of text, json or html.
func Write(w io.Writer, format string, summary Summary) error {
	switch strings.ToLower(format) {
	case "", "text":
		return WriteText(w, summary)
	case "json":
		return WriteJSON(w, summary)
	case "html":
		return WriteHTML(w, summary)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
