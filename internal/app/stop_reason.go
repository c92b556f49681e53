package app

// StopReason is logged on shutdown and decides the exit code.
type StopReason string

const (
	StopUnknown    StopReason = "unknown"
	StopSIGINT     StopReason = "sigint"
	StopSIGTERM    StopReason = "sigterm"
	StopFatalError StopReason = "fatal_error"
)

// Fatal reports whether the process should exit non-zero.
func (r StopReason) Fatal() bool { return r == StopFatalError }
