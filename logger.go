package ledger

// Logger is the logging sink collaborator named in spec §1. The core
// never selects a concrete logging library; callers inject one that
// satisfies this interface (a *log.Logger, a zap.SugaredLogger adapter,
// or anything else with a Printf shape).
type Logger interface {
	Printf(format string, args ...any)
}

// noopLogger discards everything. Used when a backend is constructed
// without an explicit Logger.
type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}
