package emergency

import "time"

// AccessRequestDTO is the break-glass request body. Reason is mandatory and
// lands verbatim on the audit trail.
type AccessRequestDTO struct {
	Reason      string `json:"reason"`
	PatientID   string `json:"patient_id,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// ToQuery validates the request and builds the search query.
func (d AccessRequestDTO) ToQuery() (SearchQuery, error) {
	if d.Reason == "" {
		return SearchQuery{}, ValidationError{Msg: "reason is required"}
	}

	query := SearchQuery{
		PatientID: d.PatientID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Phone:     d.Phone,
	}
	if d.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", d.DateOfBirth)
		if err != nil {
			return SearchQuery{}, ValidationError{Msg: "date_of_birth must be YYYY-MM-DD"}
		}
		query.DateOfBirth = &dob
	}

	if query.empty() {
		return SearchQuery{}, ValidationError{Msg: "provide patient_id, name with date_of_birth, or phone"}
	}
	return query, nil
}
