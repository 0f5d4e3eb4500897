package results

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"seconds": func(ms float64) string { return fmt.Sprintf("%.1fs", ms/1000) },
	"total":   func(s Stats) int { return s.Total() },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ParaBank E2E results</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; vertical-align: top; }
.expected { color: #1a7f37; } .unexpected { color: #cf222e; } .flaky { color: #9a6700; } .skipped { color: #6e7781; }
pre { margin: 0; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>ParaBank E2E results</h1>
{{with .Report.Config}}<p>Run {{.RunID}}{{if .BaseURL}} against {{.BaseURL}}{{end}}</p>{{end}}
<p>Total {{total .Report.Stats}}: {{.Report.Stats.Expected}} passed, {{.Report.Stats.Unexpected}} failed, {{.Report.Stats.Flaky}} flaky, {{.Report.Stats.Skipped}} skipped in {{seconds .Report.Stats.Duration}}</p>
<table>
<tr><th>Test</th><th>Outcome</th><th>Attempts</th></tr>
{{range .Tests}}<tr>
<td>{{.Title}}</td>
<td class="{{.Status}}">{{.Status}}</td>
<td>{{range $i, $r := .Results}}<div>#{{$r.Retry}} {{$r.Status}} ({{seconds $r.Duration}})
{{with $r.Error}}<pre>{{.Message}}</pre>{{end}}
{{range $r.Steps}}<div>{{if .Error}}&#10007;{{else}}&#10003;{{end}} {{.Title}} ({{seconds .Duration}})</div>{{end}}
{{range $r.Attachments}}<div>{{.Name}}: {{if .Path}}<a href="{{.Path}}">{{.Path}}</a>{{else}}inline {{.ContentType}}{{end}}</div>{{end}}
</div>{{end}}</td>
</tr>{{end}}
</table>
</body>
</html>
`))

// WriteHTML renders an index.html for the report into dir. Attachment paths
// are emitted relative to dir when possible.
func WriteHTML(dir string, rep *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create html dir: %w", err)
	}
	path := filepath.Join(dir, "index.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create html report: %w", err)
	}
	defer f.Close()

	tests := Collect(rep.Suites)
	view := make([]*Test, 0, len(tests))
	for _, t := range tests {
		c := *t
		c.Results = make([]*Result, len(t.Results))
		for i, r := range t.Results {
			rc := *r
			rc.Attachments = make([]Attachment, len(r.Attachments))
			for j, a := range r.Attachments {
				if a.Path != "" {
					if rel, err := filepath.Rel(dir, a.Path); err == nil {
						a.Path = filepath.ToSlash(rel)
					}
				}
				rc.Attachments[j] = a
			}
			c.Results[i] = &rc
		}
		view = append(view, &c)
	}

	if err := htmlTemplate.Execute(f, struct {
		Report *Report
		Tests  []*Test
	}{rep, view}); err != nil {
		return "", fmt.Errorf("render html report: %w", err)
	}
	return path, nil
}
