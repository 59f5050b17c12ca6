package domain

// ServiceID names one of the backends the dashboard knows how to address.
// The set is closed; adding a backend means adding a constant here and a
// base address in configuration.
type ServiceID string

const (
	ServiceBlob    ServiceID = "blob"
	ServiceReports ServiceID = "reports"
	ServiceData    ServiceID = "data"
)

// Services returns every known backend in a stable order.
func Services() []ServiceID {
	return []ServiceID{ServiceBlob, ServiceReports, ServiceData}
}

func (s ServiceID) String() string { return string(s) }

func (s ServiceID) Valid() bool {
	switch s {
	case ServiceBlob, ServiceReports, ServiceData:
		return true
	default:
		return false
	}
}
