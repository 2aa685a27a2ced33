// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package report renders a DiffResult as a standalone HTML page. The output
// is self-contained (inline CSS, no external assets) so it can be attached
// to a bug report as a single file.
package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/agentberlin/sitediff"
)

// diffLine is one line of a unified diff with its display class
type diffLine struct {
	Class string
	Text  string
}

type section struct {
	Title   string
	Records []record
}

type record struct {
	File           string
	Status         string
	Clean          bool
	Lines          []diffLine
	Changes        []sitediff.StructuralChange
	WorkingHash    string
	BrokenHash     string
	WorkingPreview string
	BrokenPreview  string
}

type reportData struct {
	WorkingURL string
	BrokenURL  string
	Sections   []section
}

// Render writes a complete HTML report of the comparison to w
func Render(w io.Writer, result *sitediff.DiffResult, workingURL, brokenURL string) error {
	data := reportData{
		WorkingURL: workingURL,
		BrokenURL:  brokenURL,
		Sections: []section{
			buildSection("Markup", result.Markup),
			buildSection("Stylesheets", result.Stylesheets),
			buildSection("Scripts", result.Scripts),
			buildSection("Images", result.Images),
		},
	}
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func buildSection(title string, records []sitediff.DiffRecord) section {
	sec := section{Title: title}
	for _, rec := range records {
		sec.Records = append(sec.Records, record{
			File:           rec.File,
			Status:         rec.Status,
			Clean:          isClean(rec.Status),
			Lines:          classifyDiffLines(rec.Diff),
			Changes:        rec.Changes,
			WorkingHash:    rec.WorkingHash,
			BrokenHash:     rec.BrokenHash,
			WorkingPreview: rec.WorkingPreview,
			BrokenPreview:  rec.BrokenPreview,
		})
	}
	return sec
}

func isClean(status string) bool {
	return status == sitediff.StatusIdentical || status == sitediff.StatusIdenticalData
}

// classifyDiffLines tags each unified diff line for coloring: headers,
// additions, removals, context
func classifyDiffLines(diff string) []diffLine {
	if diff == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	out := make([]diffLine, 0, len(lines))
	for _, line := range lines {
		class := "ctx"
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			class = "hdr"
		case strings.HasPrefix(line, "+"):
			class = "add"
		case strings.HasPrefix(line, "-"):
			class = "del"
		}
		out = append(out, diffLine{Class: class, Text: line})
	}
	return out
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>sitediff report</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
h2 { font-size: 1.1em; border-bottom: 1px solid #ccc; padding-bottom: 0.2em; margin-top: 2em; }
.urls { color: #555; font-size: 0.9em; }
.record { margin: 1em 0; }
.file { font-weight: bold; font-family: monospace; }
.status { margin-left: 0.5em; font-size: 0.9em; }
.status.clean { color: #2a7a2a; }
.status.dirty { color: #b03030; }
pre.diff { background: #f7f7f7; border: 1px solid #ddd; padding: 0.5em; overflow-x: auto; font-size: 0.85em; }
.diff .add { color: #2a7a2a; }
.diff .del { color: #b03030; }
.diff .hdr { color: #7a5ea8; }
.changes { font-size: 0.85em; }
.changes td { padding: 0.1em 0.6em 0.1em 0; vertical-align: top; font-family: monospace; }
.hashes, .previews { font-family: monospace; font-size: 0.85em; color: #555; }
.empty { color: #777; font-style: italic; }
</style>
</head>
<body>
<h1>sitediff report</h1>
<p class="urls">working: {{.WorkingURL}}<br>broken: {{.BrokenURL}}</p>
{{range .Sections}}
<h2>{{.Title}}</h2>
{{if not .Records}}<p class="empty">No {{.Title}} differences found.</p>{{end}}
{{range .Records}}
<div class="record">
<span class="file">{{.File}}</span>
<span class="status {{if .Clean}}clean{{else}}dirty{{end}}">{{.Status}}</span>
{{if .Changes}}
<table class="changes">
{{range .Changes}}<tr><td>{{.Path}}</td><td>{{.Kind}}{{if .Attr}} [{{.Attr}}]{{end}}</td><td>{{.Working}}</td><td>{{.Broken}}</td></tr>
{{end}}</table>
{{end}}
{{if .Lines}}
<pre class="diff">{{range .Lines}}<span class="{{.Class}}">{{.Text}}</span>
{{end}}</pre>
{{end}}
{{if .WorkingHash}}<div class="hashes">working {{.WorkingHash}} / broken {{.BrokenHash}}</div>{{end}}
{{if .WorkingPreview}}<div class="previews">working: {{.WorkingPreview}}<br>broken: {{.BrokenPreview}}</div>{{end}}
</div>
{{end}}
{{end}}
</body>
</html>
`))
