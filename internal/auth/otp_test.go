package auth

import (
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/hospital-management/internal"
)

var _ = ginkgo.Describe("OTPService", func() {
	var (
		svc  *OTPService
		repo *mockOTPRepo
	)

	const principalID = int64(11)

	ginkgo.BeforeEach(func() {
		repo = newMockOTPRepo()
		svc = NewOTPService(repo, 10*time.Minute, time.Hour, 5)
	})

	ginkgo.It("issues a 6-digit numeric code", func() {
		challenge, err := svc.Create(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, "10.0.0.1")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(challenge.Code).To(gomega.MatchRegexp(`^\d{6}$`))
		gomega.Expect(challenge.ExpiresAt).To(gomega.BeTemporally("~", time.Now().Add(10*time.Minute), time.Minute))
	})

	ginkgo.It("uses the longer expiry for password reset codes", func() {
		challenge, err := svc.Create(principalID, internal.KindPersonnel, OTPPurposePasswordReset, "")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(challenge.ExpiresAt).To(gomega.BeTemporally("~", time.Now().Add(time.Hour), time.Minute))
	})

	ginkgo.It("accepts the correct code exactly once", func() {
		challenge, _ := svc.Create(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, "")

		gomega.Expect(svc.Verify(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, challenge.Code)).To(gomega.Succeed())

		err := svc.Verify(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, challenge.Code)
		gomega.Expect(err).To(gomega.Equal(ErrOTPInvalid))
	})

	ginkgo.It("rejects a wrong code and charges an attempt", func() {
		challenge, _ := svc.Create(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, "")

		wrong := "000000"
		if challenge.Code == wrong {
			wrong = "000001"
		}
		err := svc.Verify(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, wrong)
		gomega.Expect(err).To(gomega.Equal(ErrOTPInvalid))

		stored, _ := repo.GetActiveChallenge(principalID, internal.KindPersonnel, OTPPurposeEmailVerification)
		gomega.Expect(stored.Attempts).To(gomega.Equal(1))
	})

	ginkgo.It("refuses even the correct code once the attempt cap is hit", func() {
		challenge, _ := svc.Create(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, "")

		wrong := "000000"
		if challenge.Code == wrong {
			wrong = "000001"
		}
		for i := 0; i < 5; i++ {
			err := svc.Verify(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, wrong)
			gomega.Expect(err).To(gomega.Equal(ErrOTPInvalid))
		}

		err := svc.Verify(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, challenge.Code)
		gomega.Expect(err).To(gomega.Equal(ErrOTPAttemptsExceeded))
	})

	ginkgo.It("rejects an expired code", func() {
		challenge, _ := svc.Create(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, "")

		svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

		err := svc.Verify(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, challenge.Code)
		gomega.Expect(err).To(gomega.Equal(ErrOTPInvalid))
	})

	ginkgo.It("invalidates the prior code when a new one is issued for the same purpose", func() {
		old, _ := svc.Create(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, "")
		fresh, _ := svc.Create(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, "")

		if old.Code != fresh.Code {
			err := svc.Verify(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, old.Code)
			gomega.Expect(err).To(gomega.Equal(ErrOTPInvalid))
		}
		gomega.Expect(svc.Verify(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, fresh.Code)).To(gomega.Succeed())
	})

	ginkgo.It("keeps codes for different purposes independent", func() {
		verify, _ := svc.Create(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, "")
		reset, _ := svc.Create(principalID, internal.KindPersonnel, OTPPurposePasswordReset, "")

		gomega.Expect(svc.Verify(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, verify.Code)).To(gomega.Succeed())
		gomega.Expect(svc.Verify(principalID, internal.KindPersonnel, OTPPurposePasswordReset, reset.Code)).To(gomega.Succeed())
	})

	ginkgo.It("keeps codes for different principals independent", func() {
		mine, _ := svc.Create(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, "")
		_, _ = svc.Create(99, internal.KindPersonnel, OTPPurposeEmailVerification, "")

		gomega.Expect(svc.Verify(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, mine.Code)).To(gomega.Succeed())
	})

	ginkgo.It("cleanup drops challenges past expiry", func() {
		_, _ = svc.Create(principalID, internal.KindPersonnel, OTPPurposeEmailVerification, "")

		svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
		removed, err := svc.CleanupExpired()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(removed).To(gomega.Equal(int64(1)))
	})
})
