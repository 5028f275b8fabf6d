package classify

// Severity is the three-level outcome of a health check run. Ordering is
// Info < Warn < Fail.
type Severity int

const (
	Info Severity = iota
	Warn
	Fail
)

// String returns the canonical upper-case name used in reports and logs.
func (s Severity) String() string {
	switch s {
	case Warn:
		return "WARN"
	case Fail:
		return "FAIL"
	default:
		return "INFO"
	}
}

// ExitCode maps the severity to the externally visible process status code.
func (s Severity) ExitCode() int {
	switch s {
	case Warn:
		return 2
	case Fail:
		return 3
	default:
		return 0
	}
}
