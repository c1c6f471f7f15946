package valueobjects

type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
)

func NewHealthyStatus() HealthStatus {
	return HealthStatusOK
}

func NewDegradedStatus() HealthStatus {
	return HealthStatusDegraded
}

func (h HealthStatus) String() string {
	return string(h)
}
