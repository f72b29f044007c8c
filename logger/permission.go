package logger

// Permission gates a log request. Components that are sometimes quiet (the
// CPU trace, for instance) pass their own implementation; everything else
// passes Allow.
type Permission interface {
	AllowLogging() bool
}

type allow struct{}

func (allow) AllowLogging() bool {
	return true
}

// Allow always permits the log entry.
var Allow Permission = allow{}

type deny struct{}

func (deny) AllowLogging() bool {
	return false
}

// Deny never permits the log entry.
var Deny Permission = deny{}
