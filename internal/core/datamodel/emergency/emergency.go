package emergency

import "time"

// EmergencyAccess is the append-only audit trail for emergency overrides.
// Rows are never updated after creation except to stamp SessionEndedAt.
type EmergencyAccess struct {
	ID             string     `gorm:"primaryKey;column:id"`
	PersonnelID    int64      `gorm:"column:personnel_id;not null;index"`
	PatientID      int64      `gorm:"column:patient_id;not null;index"`
	Reason         string     `gorm:"column:reason;not null"`
	SearchMethod   string     `gorm:"column:search_method;not null"`
	IPAddress      string     `gorm:"column:ip_address"`
	AccessedAt     time.Time  `gorm:"column:accessed_at;default:now()"`
	SessionEndedAt *time.Time `gorm:"column:session_ended_at"`
}

func (EmergencyAccess) TableName() string {
	return "emergency_access"
}
