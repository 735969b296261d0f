package auth

import (
	"context"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/hospital-management/internal"
)

var _ = ginkgo.Describe("JWTGenerator", func() {
	var generator *JWTGenerator

	info := PrincipalInfo{
		ID:          42,
		Kind:        internal.KindPersonnel,
		Email:       "doc@hospital.local",
		EmployeeID:  "EMP20260042",
		Permissions: []string{"view_patient_basic_info"},
		Roles:       []string{"Receptionist"},
		IsVerified:  true,
	}

	ginkgo.BeforeEach(func() {
		generator = NewJWTGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	})

	ginkgo.It("round-trips claims through sign and parse", func() {
		signed, _, err := generator.Sign(info, TokenKindAccess, time.Now())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		claims, err := generator.Parse(signed, TokenKindAccess)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(claims.UserID).To(gomega.Equal("42"))
		gomega.Expect(claims.UserType).To(gomega.Equal(string(internal.KindPersonnel)))
		gomega.Expect(claims.EmployeeID).To(gomega.Equal("EMP20260042"))
		gomega.Expect(claims.Permissions).To(gomega.Equal([]string{"view_patient_basic_info"}))
		gomega.Expect(claims.ID).NotTo(gomega.BeEmpty())
	})

	ginkgo.It("assigns a distinct JTI to every token", func() {
		_, first, err := generator.Sign(info, TokenKindAccess, time.Now())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		_, second, err := generator.Sign(info, TokenKindAccess, time.Now())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(first.ID).NotTo(gomega.Equal(second.ID))
	})

	ginkgo.It("rejects a refresh token parsed as access", func() {
		signed, _, err := generator.Sign(info, TokenKindRefresh, time.Now())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		// Different secret per kind, so this fails at signature level.
		_, err = generator.Parse(signed, TokenKindAccess)
		gomega.Expect(err).To(gomega.Equal(ErrTokenInvalid))
	})

	ginkgo.It("rejects an expired token with a dedicated error", func() {
		signed, _, err := generator.Sign(info, TokenKindAccess, time.Now().Add(-time.Hour))
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		_, err = generator.Parse(signed, TokenKindAccess)
		gomega.Expect(err).To(gomega.Equal(ErrTokenExpired))
	})

	ginkgo.It("rejects a token signed with a different secret", func() {
		other := NewJWTGenerator("another-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
		signed, _, err := other.Sign(info, TokenKindAccess, time.Now())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		_, err = generator.Parse(signed, TokenKindAccess)
		gomega.Expect(err).To(gomega.Equal(ErrTokenInvalid))
	})

	ginkgo.It("rejects tampered tokens", func() {
		signed, _, err := generator.Sign(info, TokenKindAccess, time.Now())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		tampered := signed[:len(signed)-4] + "zzzz"
		_, err = generator.Parse(tampered, TokenKindAccess)
		gomega.Expect(err).To(gomega.Equal(ErrTokenInvalid))
	})
})

var _ = ginkgo.Describe("TokenService", func() {
	var (
		svc   *TokenService
		repo  *mockTokenRepo
		cache *mockCache
	)
	ctx := context.Background()

	info := PrincipalInfo{
		ID:    7,
		Kind:  internal.KindPatient,
		Email: "jane@example.com",
	}

	ginkgo.BeforeEach(func() {
		repo = newMockTokenRepo()
		cache = newMockCache()
		generator := NewJWTGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
		svc = NewTokenService(generator, repo, cache)
	})

	ginkgo.It("validates a freshly issued pair", func() {
		pair, err := svc.IssuePair(ctx, info, TokenIssueMeta{IPAddress: "10.0.0.1"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		_, err = svc.Validate(ctx, pair.AccessToken, TokenKindAccess)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		_, err = svc.Validate(ctx, pair.RefreshToken, TokenKindRefresh)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	})

	ginkgo.It("persists a record per token with request metadata", func() {
		_, err := svc.IssuePair(ctx, info, TokenIssueMeta{IPAddress: "10.0.0.1", UserAgent: "ward-tablet"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(repo.records).To(gomega.HaveLen(2))
		for _, rec := range repo.records {
			gomega.Expect(rec.IPAddress).To(gomega.Equal("10.0.0.1"))
			gomega.Expect(rec.UserAgent).To(gomega.Equal("ward-tablet"))
			gomega.Expect(rec.IsActive).To(gomega.BeTrue())
		}
	})

	ginkgo.It("treats a token without a durable record as revoked", func() {
		pair, err := svc.IssuePair(ctx, info, TokenIssueMeta{})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		repo.records = map[string]*TokenRecord{}

		_, err = svc.Validate(ctx, pair.AccessToken, TokenKindAccess)
		gomega.Expect(err).To(gomega.Equal(ErrTokenRevoked))
	})

	ginkgo.It("rejects a revoked token and leaves others untouched", func() {
		first, err := svc.IssuePair(ctx, info, TokenIssueMeta{})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		second, err := svc.IssuePair(ctx, info, TokenIssueMeta{})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(svc.Revoke(ctx, first.AccessToken, TokenKindAccess)).To(gomega.Succeed())

		_, err = svc.Validate(ctx, first.AccessToken, TokenKindAccess)
		gomega.Expect(err).To(gomega.Equal(ErrTokenRevoked))
		_, err = svc.Validate(ctx, second.AccessToken, TokenKindAccess)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	})

	ginkgo.It("revoke is idempotent", func() {
		pair, err := svc.IssuePair(ctx, info, TokenIssueMeta{})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(svc.Revoke(ctx, pair.AccessToken, TokenKindAccess)).To(gomega.Succeed())
		gomega.Expect(svc.Revoke(ctx, pair.AccessToken, TokenKindAccess)).To(gomega.Succeed())
	})

	ginkgo.It("rejects via the durable record even when the cache misses", func() {
		pair, err := svc.IssuePair(ctx, info, TokenIssueMeta{})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(svc.Revoke(ctx, pair.AccessToken, TokenKindAccess)).To(gomega.Succeed())
		cache.keys = map[string]time.Time{}

		_, err = svc.Validate(ctx, pair.AccessToken, TokenKindAccess)
		gomega.Expect(err).To(gomega.Equal(ErrTokenRevoked))
	})

	ginkgo.It("revoke-all ends every active token for the principal", func() {
		first, _ := svc.IssuePair(ctx, info, TokenIssueMeta{})
		second, _ := svc.IssuePair(ctx, info, TokenIssueMeta{})

		gomega.Expect(svc.RevokeAllForPrincipal(ctx, info.ID, info.Kind)).To(gomega.Succeed())

		for _, token := range []string{first.AccessToken, second.AccessToken} {
			_, err := svc.Validate(ctx, token, TokenKindAccess)
			gomega.Expect(err).To(gomega.Equal(ErrTokenRevoked))
		}
		for _, token := range []string{first.RefreshToken, second.RefreshToken} {
			_, err := svc.Validate(ctx, token, TokenKindRefresh)
			gomega.Expect(err).To(gomega.Equal(ErrTokenRevoked))
		}
	})

	ginkgo.It("cleanup removes only records past natural expiry", func() {
		pair, _ := svc.IssuePair(ctx, info, TokenIssueMeta{})

		svc.now = func() time.Time { return time.Now().Add(30 * time.Minute) }
		removed, err := svc.CleanupExpired(ctx)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		// Access token (15m) is gone, refresh token (7d) remains.
		gomega.Expect(removed).To(gomega.Equal(int64(1)))

		svc.now = time.Now
		_, err = svc.Validate(ctx, pair.RefreshToken, TokenKindRefresh)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	})
})
