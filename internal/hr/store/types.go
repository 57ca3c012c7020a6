package store

import "time"

// Profile is the non-sensitive slice of a users row exposed to the agent.
type Profile struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Address         string `json:"address"`
	ContactPhone    string `json:"contact_phone"`
	Email           string `json:"email"`
	EmploymentTitle string `json:"employment_title"`
	OrgUnit         string `json:"org_unit"`
}

// Balance is the remaining annual leave for the current year.
type Balance struct {
	Remaining int `json:"remaining"`
}

// Leave is one leave row.
type Leave struct {
	ID        int64  `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// LeaveRequest is the value object passed to RaiseLeave. Dates are inclusive
// on both ends.
type LeaveRequest struct {
	UserID    int64
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// Days returns the inclusive day count of the request.
func (r LeaveRequest) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

// ProfileEdit is the value object passed to EditProfile. Field must be in
// the allow-list; rejecting anything else is mandatory, not advisory.
type ProfileEdit struct {
	UserID int64
	Field  string
	Value  string
}

// allowedProfileFields is the fixed set of columns the agent may edit. The
// field name is the only identifier ever interpolated into SQL, and only
// after membership here.
var allowedProfileFields = map[string]bool{
	"address":          true,
	"contact_phone":    true,
	"email":            true,
	"employment_title": true,
	"org_unit":         true,
}

// AuditRecord is one append-only audit trail entry. The agent never reads
// these; they exist for later inspection.
type AuditRecord struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	Action  string `json:"action"`
	Details string `json:"details"`
}

// Audit actions.
const (
	ActionRaiseLeave  = "RAISE_LEAVE"
	ActionCancelLeave = "CANCEL_LEAVE"
	ActionEditProfile = "EDIT_PROFILE"
)
