// Package pipeline drives a run: it extracts every input file with the
// matching language extractor, renders per-file diagrams, concatenates them
// into one combined document, encodes it and asks the renderer for the
// artifact.
//
// Failures are isolated per file. A file whose extractor fails is recorded
// as a failed diagnostic and the run continues; a failure to render the
// combined document is recorded once and leaves the per-file results intact.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/classmap/internal/diagram"
	"github.com/mvp-joe/classmap/internal/extractor"
	"github.com/mvp-joe/classmap/internal/hierarchy"
	"github.com/mvp-joe/classmap/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures a Driver.
type Options struct {
	// Workers > 1 extracts and renders files in parallel. Output is identical
	// to a sequential run.
	Workers int

	// SkipRender stops after encoding the combined document.
	SkipRender bool

	// MemoSize bounds the extraction memo. Zero uses DefaultMemoSize; a
	// negative value disables memoisation.
	MemoSize int

	Logger   logrus.FieldLogger
	Progress ProgressReporter
}

// Driver runs the extraction pipeline. A Driver may be reused across runs;
// its extraction memo carries over so unchanged files are not parsed again.
type Driver struct {
	opts     Options
	registry *extractor.Registry
	renderer Renderer
	memo     *extractionMemo
	log      logrus.FieldLogger
	progress ProgressReporter
}

// New creates a Driver. renderer may be nil, which behaves like SkipRender.
func New(opts Options, reg *extractor.Registry, renderer Renderer) *Driver {
	if reg == nil {
		reg = extractor.DefaultRegistry()
	}

	d := &Driver{
		opts:     opts,
		registry: reg,
		renderer: renderer,
		log:      opts.Logger,
		progress: opts.Progress,
	}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}
	if d.progress == nil {
		d.progress = &NoOpProgressReporter{}
	}

	if opts.MemoSize >= 0 {
		size := opts.MemoSize
		if size == 0 {
			size = DefaultMemoSize
		}
		memo, err := newExtractionMemo(size)
		if err != nil {
			d.log.WithError(err).Warn("extraction memo disabled")
		} else {
			d.memo = memo
		}
	}

	return d
}

// Close releases the extraction memo.
func (d *Driver) Close() {
	d.memo.close()
}

// fileOutcome is the per-file product of the map phase.
type fileOutcome struct {
	supported bool
	result    FileResult
	err       error
}

// Run processes files in order and renders the combined document.
// The returned error is non-nil only when ctx is cancelled; every other
// failure is recorded in Result.Diagnostics.
func (d *Driver) Run(ctx context.Context, files []SourceFile) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	log := d.log.WithField("run_id", result.RunID)

	d.progress.OnStart(len(files))
	defer func() {
		result.Duration = time.Since(start)
		d.progress.OnComplete(result)
	}()

	outcomes, err := d.mapFiles(ctx, files)
	if err != nil {
		return result, err
	}

	var combined diagram.Combined
	for i, outcome := range outcomes {
		path := files[i].Path
		if !outcome.supported {
			result.Skipped = append(result.Skipped, path)
			continue
		}
		if outcome.err != nil {
			log.WithField("file", path).WithError(outcome.err).Warn("extraction failed")
			result.Diagnostics = append(result.Diagnostics, newDiagnostic(path, outcome.err))
			continue
		}

		result.Files = append(result.Files, outcome.result)
		result.Diagnostics = append(result.Diagnostics, newDiagnostic(path, nil))
		combined.Add(path, outcome.result.Body)
	}

	result.Hierarchy = d.analyze(log, result.Classes())

	if combined.Empty() {
		emptyErr := &EmptyResultError{}
		log.Warn(emptyErr.Error())
		result.RenderErr = emptyErr
		result.Diagnostics = append(result.Diagnostics, newDiagnostic(CombinedSubject, emptyErr))
		return result, nil
	}

	result.Combined = combined.Document()
	token, err := diagram.Encode(result.Combined)
	if err != nil {
		err = fmt.Errorf("failed to encode combined diagram: %w", err)
		log.WithError(err).Error("encoding failed")
		result.RenderErr = err
		result.Diagnostics = append(result.Diagnostics, newDiagnostic(CombinedSubject, err))
		return result, nil
	}
	result.Token = token

	if d.opts.SkipRender || d.renderer == nil {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{Subject: CombinedSubject, Outcome: OutcomeSkipped})
		return result, nil
	}

	d.progress.OnRenderStart(token)
	artifact, err := d.renderer.Render(ctx, token)
	result.Diagnostics = append(result.Diagnostics, newDiagnostic(CombinedSubject, err))
	if err != nil {
		log.WithError(err).Warn("combined diagram render failed")
		result.RenderErr = err
		return result, ctx.Err()
	}

	result.Artifact = artifact
	log.WithFields(logrus.Fields{
		"files": len(result.Files),
		"bytes": len(artifact),
	}).Info("combined diagram rendered")

	return result, nil
}

// mapFiles extracts and renders every file, sequentially or with bounded
// parallelism. Outcomes are indexed like files.
func (d *Driver) mapFiles(ctx context.Context, files []SourceFile) ([]fileOutcome, error) {
	outcomes := make([]fileOutcome, len(files))

	if d.opts.Workers <= 1 {
		for i, file := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = d.processFile(ctx, file)
		}
		return outcomes, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = d.processFile(gctx, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// processFile extracts and renders one file. It never fails the run; errors
// are carried in the outcome.
func (d *Driver) processFile(ctx context.Context, file SourceFile) fileOutcome {
	defer d.progress.OnFileProcessed(file.Path)

	ext, err := d.registry.Lookup(file.Path)
	if err != nil {
		// Unsupported files are not diagnostics.
		return fileOutcome{}
	}

	log := d.log.WithFields(logrus.Fields{"file": file.Path, "language": ext.Language()})
	content := bytes.TrimPrefix(file.Content, utf8BOM)

	key := memoKey(ext.Language(), content)
	classes, hit := d.memo.get(key)
	if hit {
		log.Debug("extraction memo hit")
	} else {
		classes, err = ext.Extract(ctx, file.Path, content)
		if err != nil {
			return fileOutcome{supported: true, err: err}
		}
		d.memo.set(key, classes)
	}

	doc := diagram.Render(classes)
	log.WithField("classes", len(classes)).Debug("extracted file")

	return fileOutcome{
		supported: true,
		result: FileResult{
			Path:     file.Path,
			Language: ext.Language(),
			Classes:  classes,
			Document: doc,
			Body:     diagram.StripMarkers(doc),
		},
	}
}

func (d *Driver) analyze(log logrus.FieldLogger, classes []model.ClassEntity) *hierarchy.Summary {
	summary, err := hierarchy.Analyze(classes)
	if err != nil {
		log.WithError(err).Warn("inheritance analysis failed")
		return nil
	}
	for _, edge := range summary.Cycles {
		log.WithFields(logrus.Fields{"base": edge.Base, "derived": edge.Derived}).Warn("cyclic inheritance")
	}
	return summary
}

// IsEmptyResult reports whether err is an *EmptyResultError.
func IsEmptyResult(err error) bool {
	var empty *EmptyResultError
	return errors.As(err, &empty)
}
