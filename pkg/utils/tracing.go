package utils

// DefaultServiceName names the service in traces when OTEL_SERVICE_NAME is unset.
const DefaultServiceName = "waitlist-service"

// IsTracingEnabled is false unless OTEL_TRACES_ENABLED parses as true.
func IsTracingEnabled() bool {
	return GetEnvBool("OTEL_TRACES_ENABLED", false)
}

func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", DefaultServiceName)
}
