package rbac

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestRBAC(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "RBAC Module Suite")
}

func assignmentWithLevel(level AccessLevel, emergency bool) Assignment {
	return Assignment{
		PersonnelID: 1,
		RoleID:      1,
		AssignedAt:  time.Now().Add(-time.Hour),
		IsActive:    true,
		Role: Role{
			ID:                  1,
			Name:                string(level) + "-role",
			AccessLevel:         level,
			CanTriggerEmergency: emergency,
		},
	}
}

var _ = ginkgo.Describe("Resolve", func() {
	now := time.Now()

	ginkgo.Context("with zero effective assignments", func() {
		ginkgo.It("returns an empty permission set and no emergency flag", func() {
			snap := Resolve(nil, now)

			gomega.Expect(snap.Permissions).To(gomega.BeEmpty())
			gomega.Expect(snap.CanTriggerEmergency).To(gomega.BeFalse())
			gomega.Expect(snap.Roles).To(gomega.BeEmpty())
		})

		ginkgo.It("ignores inactive assignments", func() {
			a := assignmentWithLevel(AccessLevelSeniorMedical, true)
			a.IsActive = false

			snap := Resolve([]Assignment{a}, now)

			gomega.Expect(snap.Permissions).To(gomega.BeEmpty())
			gomega.Expect(snap.CanTriggerEmergency).To(gomega.BeFalse())
		})

		ginkgo.It("ignores expired assignments", func() {
			a := assignmentWithLevel(AccessLevelMedical, false)
			expired := now.Add(-time.Minute)
			a.ExpiresAt = &expired

			snap := Resolve([]Assignment{a}, now)

			gomega.Expect(snap.Permissions).To(gomega.BeEmpty())
		})
	})

	ginkgo.Context("tier containment", func() {
		ginkgo.It("senior_medical is a superset of the medical bundle", func() {
			snap := Resolve([]Assignment{assignmentWithLevel(AccessLevelSeniorMedical, false)}, now)

			for _, p := range BundleFor(AccessLevelMedical) {
				gomega.Expect(snap.Permissions.Has(p)).To(gomega.BeTrue(), "missing %s", p)
			}
		})

		ginkgo.It("medical is a superset of the basic bundle", func() {
			snap := Resolve([]Assignment{assignmentWithLevel(AccessLevelMedical, false)}, now)

			for _, p := range BundleFor(AccessLevelBasic) {
				gomega.Expect(snap.Permissions.Has(p)).To(gomega.BeTrue(), "missing %s", p)
			}
		})

		ginkgo.It("basic does not include medical record access", func() {
			snap := Resolve([]Assignment{assignmentWithLevel(AccessLevelBasic, false)}, now)

			gomega.Expect(snap.Permissions.Has(PermViewPatientMedicalRecords)).To(gomega.BeFalse())
			gomega.Expect(snap.Permissions.Has(PermViewPatientBasicInfo)).To(gomega.BeTrue())
		})
	})

	ginkgo.Context("union over multiple assignments", func() {
		ginkgo.It("is order independent", func() {
			a := assignmentWithLevel(AccessLevelAdministrative, false)
			b := assignmentWithLevel(AccessLevelMedical, false)

			first := Resolve([]Assignment{a, b}, now)
			second := Resolve([]Assignment{b, a}, now)

			gomega.Expect(first.Permissions).To(gomega.Equal(second.Permissions))
			gomega.Expect(first.Permissions.Has(PermManageInventory)).To(gomega.BeTrue())
			gomega.Expect(first.Permissions.Has(PermViewLabResults)).To(gomega.BeTrue())
		})

		ginkgo.It("is idempotent for duplicate roles", func() {
			a := assignmentWithLevel(AccessLevelMedical, false)

			once := Resolve([]Assignment{a}, now)
			twice := Resolve([]Assignment{a, a}, now)

			gomega.Expect(once.Permissions).To(gomega.Equal(twice.Permissions))
		})
	})

	ginkgo.Context("emergency flag", func() {
		ginkgo.It("is true when any effective role carries it, independent of tier", func() {
			a := assignmentWithLevel(AccessLevelBasic, true)
			b := assignmentWithLevel(AccessLevelSeniorMedical, false)

			snap := Resolve([]Assignment{a, b}, now)

			gomega.Expect(snap.CanTriggerEmergency).To(gomega.BeTrue())
		})

		ginkgo.It("is false when the only emergency-capable role is expired", func() {
			a := assignmentWithLevel(AccessLevelSeniorMedical, true)
			expired := now.Add(-time.Second)
			a.ExpiresAt = &expired
			b := assignmentWithLevel(AccessLevelMedical, false)

			snap := Resolve([]Assignment{a, b}, now)

			gomega.Expect(snap.CanTriggerEmergency).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("capability examples", func() {
		ginkgo.It("denies view_patient_medical_records to a basic-only principal", func() {
			snap := Resolve([]Assignment{assignmentWithLevel(AccessLevelBasic, false)}, now)

			gomega.Expect(snap.Permissions.Has(PermViewPatientMedicalRecords)).To(gomega.BeFalse())
		})

		ginkgo.It("grants it to senior_medical with emergency trigger", func() {
			snap := Resolve([]Assignment{assignmentWithLevel(AccessLevelSeniorMedical, true)}, now)

			gomega.Expect(snap.Permissions.Has(PermViewPatientMedicalRecords)).To(gomega.BeTrue())
			gomega.Expect(snap.CanTriggerEmergency).To(gomega.BeTrue())
		})
	})
})
