package rbac

// Permission is a closed capability tag. Issuer and checker share these
// constants so a typo cannot silently drift between the two sides.
type Permission string

const (
	PermViewPatientBasicInfo      Permission = "view_patient_basic_info"
	PermViewPatientMedicalRecords Permission = "view_patient_medical_records"
	PermCreateMedicalRecords      Permission = "create_medical_records"
	PermEditMedicalRecords        Permission = "edit_medical_records"
	PermViewPrescriptions         Permission = "view_prescriptions"
	PermCreatePrescriptions       Permission = "create_prescriptions"
	PermViewLabResults            Permission = "view_lab_results"
	PermOrderLabTests             Permission = "order_lab_tests"
	PermManageAppointments        Permission = "manage_appointments"
	PermManageInventory           Permission = "manage_inventory"
	PermViewReports               Permission = "view_reports"
	PermManagePersonnel           Permission = "manage_personnel"
	PermEmergencyOverride         Permission = "emergency_override"
	PermCriticalAccess            Permission = "critical_access"

	// Patient-side capabilities, fixed at issuance for every patient token.
	PermViewOwnRecords       Permission = "view_own_records"
	PermBookAppointments     Permission = "book_appointments"
	PermViewOwnPrescriptions Permission = "view_own_prescriptions"
)

// AccessLevel is the ordered tier attached to a role. The three medical tiers
// nest (basic < medical < senior_medical); administrative and emergency are
// orthogonal bundles.
type AccessLevel string

const (
	AccessLevelBasic          AccessLevel = "basic"
	AccessLevelMedical        AccessLevel = "medical"
	AccessLevelSeniorMedical  AccessLevel = "senior_medical"
	AccessLevelAdministrative AccessLevel = "administrative"
	AccessLevelEmergency      AccessLevel = "emergency"
)

var tierBundles = map[AccessLevel][]Permission{
	AccessLevelBasic: {
		PermViewPatientBasicInfo,
	},
	AccessLevelMedical: {
		PermViewPatientBasicInfo,
		PermViewPatientMedicalRecords,
		PermCreateMedicalRecords,
		PermViewPrescriptions,
		PermViewLabResults,
	},
	AccessLevelSeniorMedical: {
		PermViewPatientBasicInfo,
		PermViewPatientMedicalRecords,
		PermCreateMedicalRecords,
		PermEditMedicalRecords,
		PermViewPrescriptions,
		PermCreatePrescriptions,
		PermViewLabResults,
		PermOrderLabTests,
		PermEmergencyOverride,
	},
	AccessLevelAdministrative: {
		PermViewPatientBasicInfo,
		PermManageAppointments,
		PermManageInventory,
		PermViewReports,
		PermManagePersonnel,
	},
	AccessLevelEmergency: {
		PermViewPatientBasicInfo,
		PermViewPatientMedicalRecords,
		PermCreateMedicalRecords,
		PermEmergencyOverride,
		PermCriticalAccess,
	},
}

// PatientPermissions is the fixed bundle every patient principal carries.
func PatientPermissions() []Permission {
	return []Permission{PermViewOwnRecords, PermBookAppointments, PermViewOwnPrescriptions}
}

// BundleFor returns the permission bundle for an access level. Unknown levels
// yield an empty bundle.
func BundleFor(level AccessLevel) []Permission {
	return tierBundles[level]
}

// PermissionSet is an unordered set of capability tags.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s PermissionSet) Add(perms ...Permission) {
	for _, p := range perms {
		s[p] = struct{}{}
	}
}

// Strings returns the set as a sorted-independent string slice for embedding
// in token claims.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	return out
}
