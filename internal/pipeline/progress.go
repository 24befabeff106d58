package pipeline

// ProgressReporter provides callbacks for reporting run progress.
// Implementations can display progress bars, log messages, or remain silent.
// OnFileProcessed may be called from several goroutines when Workers > 1.
type ProgressReporter interface {
	// OnStart is called before any file is processed.
	OnStart(totalFiles int)

	// OnFileProcessed is called after each file is extracted and rendered.
	OnFileProcessed(path string)

	// OnRenderStart is called before the remote render request.
	OnRenderStart(token string)

	// OnComplete is called when the run finishes, successfully or not.
	OnComplete(result *Result)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnStart(totalFiles int)      {}
func (n *NoOpProgressReporter) OnFileProcessed(path string) {}
func (n *NoOpProgressReporter) OnRenderStart(token string)  {}
func (n *NoOpProgressReporter) OnComplete(result *Result)   {}
