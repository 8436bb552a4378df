// Package report renders a fully joined lab report into a downloadable
// plain-text document. Callers resolve and authorize the record graph first;
// this package only formats.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

const ContentType = "text/plain; charset=utf-8"

// Document is the flattened, already-joined view of a lab report that the
// renderer knows how to lay out.
type Document struct {
	ReportID       string
	PatientName    string
	PatientEmail   string
	DoctorName     string
	Specialization string
	LaboratoryName string
	DiagnosisName  string
	Symptoms       []string
	Description    string
	Tests          []TestLine
	IssuedAt       time.Time
}

// TestLine is a single test row in the rendered report.
type TestLine struct {
	Name   string
	Result string
	Remark string
}

var reportTmpl = template.Must(template.New("labreport").Funcs(template.FuncMap{
	"join": strings.Join,
	"date": func(t time.Time) string { return t.Format("02 Jan 2006 15:04 MST") },
}).Parse(`LABORATORY REPORT
=================

Report ID:      {{.ReportID}}
Issued:         {{date .IssuedAt}}
Laboratory:     {{.LaboratoryName}}

PATIENT
-------
Name:           {{.PatientName}}
Email:          {{.PatientEmail}}

REFERRING DOCTOR
----------------
Name:           {{.DoctorName}}
Specialization: {{.Specialization}}

DIAGNOSIS
---------
Condition:      {{.DiagnosisName}}
Symptoms:       {{join .Symptoms ", "}}
Notes:          {{.Description}}

TESTS
-----
{{range .Tests}}{{printf "%-24s %-16s %s" .Name .Result .Remark}}
{{else}}(no tests recorded)
{{end}}`))

// Render produces the document body. The output is deterministic for a given
// input so repeated downloads of the same report are byte-identical.
func Render(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render lab report: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename builds the attachment filename for a report download.
func Filename(doc Document) string {
	name := strings.ToLower(strings.ReplaceAll(doc.PatientName, " ", "-"))
	if name == "" {
		name = "patient"
	}
	return fmt.Sprintf("lab-report-%s-%s.txt", name, doc.IssuedAt.Format("2006-01-02"))
}
