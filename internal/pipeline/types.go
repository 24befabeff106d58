package pipeline

import (
	"context"
	"time"

	"github.com/mvp-joe/classmap/internal/hierarchy"
	"github.com/mvp-joe/classmap/internal/model"
)

// CombinedSubject is the diagnostic subject of the whole-run document.
const CombinedSubject = "combined"

// Outcome is the result recorded for one diagnostic subject.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped" // combined document encoded but not sent
)

// SourceFile is one input pair. Paths are used for dispatch and diagnostics.
type SourceFile struct {
	Path    string
	Content []byte
}

// Renderer turns an encoded token into a rendered artifact.
// *plantuml.Client implements it.
type Renderer interface {
	Render(ctx context.Context, token string) ([]byte, error)
}

// FileResult holds everything produced for one successfully extracted file.
type FileResult struct {
	Path     string
	Language string
	Classes  []model.ClassEntity
	Document string // full per-file document with markers
	Body     string // Document without markers
}

// Diagnostic records the outcome for a file path or for CombinedSubject.
type Diagnostic struct {
	Subject string  `yaml:"subject" json:"subject"`
	Outcome Outcome `yaml:"outcome" json:"outcome"`
	Message string  `yaml:"error,omitempty" json:"error,omitempty"`
	Err     error   `yaml:"-" json:"-"`
}

// EmptyResultError reports that no file produced a diagram body, so there
// was nothing to encode or render.
type EmptyResultError struct{}

func (e *EmptyResultError) Error() string {
	return "no diagram bodies generated"
}

// Result is the outcome of one Run. Per-file results stay valid even when
// the combined render failed.
type Result struct {
	RunID       string
	Files       []FileResult
	Skipped     []string // paths with no matching extractor
	Diagnostics []Diagnostic
	Combined    string // combined document, empty when no bodies were produced
	Token       string
	Artifact    []byte
	RenderErr   error // *EmptyResultError, *plantuml.RenderError or an encoding error
	Hierarchy   *hierarchy.Summary
	Duration    time.Duration
}

// Failed returns the diagnostics whose outcome is OutcomeFailed.
func (r *Result) Failed() []Diagnostic {
	var failed []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Outcome == OutcomeFailed {
			failed = append(failed, d)
		}
	}
	return failed
}

// CombinedDiagnostic returns the diagnostic recorded for the combined document.
func (r *Result) CombinedDiagnostic() (Diagnostic, bool) {
	for _, d := range r.Diagnostics {
		if d.Subject == CombinedSubject {
			return d, true
		}
	}
	return Diagnostic{}, false
}

// Classes returns every extracted entity in file order.
func (r *Result) Classes() []model.ClassEntity {
	var all []model.ClassEntity
	for _, f := range r.Files {
		all = append(all, f.Classes...)
	}
	return all
}

func newDiagnostic(subject string, err error) Diagnostic {
	if err == nil {
		return Diagnostic{Subject: subject, Outcome: OutcomeOK}
	}
	return Diagnostic{Subject: subject, Outcome: OutcomeFailed, Message: err.Error(), Err: err}
}
