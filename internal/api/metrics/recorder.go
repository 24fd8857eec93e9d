package metrics

import "strconv"

// ServiceRecorder feeds the service-level Prometheus counters. It
// implements ports.MetricsRecorder so the core packages stay free of
// Prometheus and API-layer imports.
type ServiceRecorder struct{}

func NewServiceRecorder() ServiceRecorder { return ServiceRecorder{} }

func (ServiceRecorder) LoginSucceeded(remember bool) {
	LoginsTotal.WithLabelValues("success").Inc()
	SessionsCreatedTotal.WithLabelValues(strconv.FormatBool(remember)).Inc()
}

func (ServiceRecorder) LoginFailed() {
	LoginsTotal.WithLabelValues("failure").Inc()
}

func (ServiceRecorder) UserRegistered(role string) {
	RegistrationsTotal.WithLabelValues(role).Inc()
}

func (ServiceRecorder) SessionDestroyed() {
	SessionsDestroyedTotal.Inc()
}
