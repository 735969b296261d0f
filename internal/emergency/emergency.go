package emergency

import (
	"errors"
	"time"
)

// Search methods recorded on the audit trail, tried in this order.
const (
	SearchMethodPatientID = "patient_id"
	SearchMethodNameDOB   = "name_dob"
	SearchMethodPhone     = "phone"
)

// Access is one entry in the emergency access audit trail. Entries are
// append-only; the only later mutation is stamping SessionEndedAt.
type Access struct {
	ID             string     `json:"id"`
	PersonnelID    int64      `json:"personnel_id"`
	PatientID      int64      `json:"patient_id"`
	Reason         string     `json:"reason"`
	SearchMethod   string     `json:"search_method"`
	IPAddress      string     `json:"ip_address,omitempty"`
	AccessedAt     time.Time  `json:"accessed_at"`
	SessionEndedAt *time.Time `json:"session_ended_at,omitempty"`
}

// SearchQuery identifies a patient during an emergency. Identifiers are
// tried most-specific first: business ID, then name with date of birth,
// then phone.
type SearchQuery struct {
	PatientID   string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Phone       string
}

func (q SearchQuery) empty() bool {
	return q.PatientID == "" &&
		(q.FirstName == "" || q.LastName == "" || q.DateOfBirth == nil) &&
		q.Phone == ""
}

var (
	ErrReasonRequired  = errors.New("emergency access reason is required")
	ErrQueryRequired   = errors.New("at least one patient identifier is required")
	ErrPatientNotFound = errors.New("no patient matched the search")
	ErrAuditWrite      = errors.New("audit record could not be written")
	ErrAccessNotFound  = errors.New("emergency access record not found")
	ErrNotSessionOwner = errors.New("only the accessing personnel can end the session")
)

// RepositoryAPI persists the audit trail.
type RepositoryAPI interface {
	CreateAccess(a *Access) error
	GetAccess(id string) (*Access, error)
	EndSession(id string, at time.Time) error
	ListRecent(limit int) ([]Access, error)
	ListForPersonnel(personnelID int64, limit int) ([]Access, error)
}
