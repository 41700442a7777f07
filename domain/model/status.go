package model

// StatusKind is the workload status reported back to the lifecycle framework.
type StatusKind string

const (
	StatusWaiting     StatusKind = "waiting"
	StatusMaintenance StatusKind = "maintenance"
	StatusActive      StatusKind = "active"
	StatusBlocked     StatusKind = "blocked"
)

// Status holds a status kind and its human readable message.
type Status struct {
	Kind    StatusKind `json:"status"`
	Message string     `json:"message,omitempty"`
}

func (s Status) String() string {
	if s.Message == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ": " + s.Message
}

func WaitingStatus(msg string) Status     { return Status{Kind: StatusWaiting, Message: msg} }
func MaintenanceStatus(msg string) Status { return Status{Kind: StatusMaintenance, Message: msg} }
func ActiveStatus(msg string) Status      { return Status{Kind: StatusActive, Message: msg} }
func BlockedStatus(msg string) Status     { return Status{Kind: StatusBlocked, Message: msg} }

// Messages shared by every charm.
const (
	MessageWaitingLeadership = "Waiting for leadership"
	MessageReady             = "Ready"
	MessageImageFetchFailed  = "Error fetching image information"
)
