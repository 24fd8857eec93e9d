package ports

// MetricsRecorder receives counter signals from the core service. The
// Prometheus implementation lives at the API layer; the service accepts
// nil and discards everything.
type MetricsRecorder interface {
	LoginSucceeded(remember bool)
	LoginFailed()
	UserRegistered(role string)
	SessionDestroyed()
}
