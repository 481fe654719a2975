// internal/notify/status.go
package notify

import "strings"

// Status is the application status at notification time. The notifier does
// not enforce transitions; it renders whatever the application layer recorded.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewing Status = "reviewing"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// brandColor is the neutral badge color used for statuses outside the known
// set. Keeping the unknown arm explicit avoids a silent default branch.
const brandColor = "#1d4ed8"

// Label returns the Indonesian display label for the status badge. Unknown
// values render as the uppercased raw string rather than failing.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Menunggu"
	case StatusReviewing:
		return "Sedang Ditinjau"
	case StatusApproved:
		return "Disetujui"
	case StatusRejected:
		return "Ditolak"
	default:
		return strings.ToUpper(string(s))
	}
}

// Color returns the badge background color for the status.
func (s Status) Color() string {
	switch s {
	case StatusPending:
		return "#f59e0b"
	case StatusReviewing:
		return "#3b82f6"
	case StatusApproved:
		return "#10b981"
	case StatusRejected:
		return "#ef4444"
	default:
		return brandColor
	}
}
