package auth

import (
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/hospital-management/internal"
	datamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/auth"
)

var _ = ginkgo.Describe("LockPolicy", func() {
	var (
		policy *LockPolicy
		repo   *mockLockRepo
	)

	const principalID = int64(3)

	ginkgo.BeforeEach(func() {
		repo = newMockLockRepo()
		policy = NewLockPolicy(repo, 5, 30*time.Minute)
	})

	ginkgo.It("does not lock below the threshold", func() {
		for attempts := 1; attempts < 5; attempts++ {
			locked, err := policy.RecordFailure(principalID, internal.KindPersonnel, attempts)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(locked).To(gomega.BeFalse())
		}

		locked, _, err := policy.IsLocked(principalID, internal.KindPersonnel)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(locked).To(gomega.BeFalse())
	})

	ginkgo.It("locks at the threshold with a timed unlock", func() {
		locked, err := policy.RecordFailure(principalID, internal.KindPersonnel, 5)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(locked).To(gomega.BeTrue())

		lock, _ := repo.GetActiveLock(principalID, internal.KindPersonnel)
		gomega.Expect(lock).NotTo(gomega.BeNil())
		gomega.Expect(lock.Reason).To(gomega.Equal(datamodel.LockReasonFailedAttempts))
		gomega.Expect(lock.UnlockAt).NotTo(gomega.BeNil())
		gomega.Expect(*lock.UnlockAt).To(gomega.BeTemporally("~", time.Now().Add(30*time.Minute), time.Minute))

		isLocked, released, err := policy.IsLocked(principalID, internal.KindPersonnel)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(isLocked).To(gomega.BeTrue())
		gomega.Expect(released).To(gomega.BeFalse())
	})

	ginkgo.It("releases a timed lock once the window elapses", func() {
		_, err := policy.RecordFailure(principalID, internal.KindPersonnel, 5)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		policy.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

		locked, released, err := policy.IsLocked(principalID, internal.KindPersonnel)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(locked).To(gomega.BeFalse())
		gomega.Expect(released).To(gomega.BeTrue())

		// The lapsed lock row is released, not just ignored.
		lock, _ := repo.GetActiveLock(principalID, internal.KindPersonnel)
		gomega.Expect(lock).To(gomega.BeNil())
	})

	ginkgo.It("manual locks never self-release", func() {
		gomega.Expect(policy.LockManually(principalID, internal.KindPersonnel, datamodel.LockReasonAdminAction, 1)).To(gomega.Succeed())

		policy.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

		locked, released, err := policy.IsLocked(principalID, internal.KindPersonnel)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(locked).To(gomega.BeTrue())
		gomega.Expect(released).To(gomega.BeFalse())
	})

	ginkgo.It("unlock releases the active lock and is a no-op without one", func() {
		_, _ = policy.RecordFailure(principalID, internal.KindPersonnel, 5)

		gomega.Expect(policy.Unlock(principalID, internal.KindPersonnel)).To(gomega.Succeed())

		locked, _, _ := policy.IsLocked(principalID, internal.KindPersonnel)
		gomega.Expect(locked).To(gomega.BeFalse())

		gomega.Expect(policy.Unlock(principalID, internal.KindPersonnel)).To(gomega.Succeed())
	})

	ginkgo.It("scopes locks to the principal kind", func() {
		_, err := policy.RecordFailure(principalID, internal.KindPersonnel, 5)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		locked, _, err := policy.IsLocked(principalID, internal.KindPatient)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(locked).To(gomega.BeFalse())
	})
})
