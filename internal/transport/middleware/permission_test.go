package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/rbac"
)

func TestMiddleware(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Transport Middleware Suite")
}

var _ = ginkgo.Describe("Route guards", func() {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	request := func(authCtx *internal.AuthContext) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		if authCtx != nil {
			r = r.WithContext(internal.ContextWithAuth(r.Context(), authCtx))
		}
		return r
	}

	serve := func(guard http.Handler, authCtx *internal.AuthContext) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, request(authCtx))
		return rec
	}

	ginkgo.Describe("RequireAuth", func() {
		ginkgo.It("rejects anonymous requests with 401", func() {
			rec := serve(RequireAuth(okHandler), nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("admits any authenticated principal", func() {
			rec := serve(RequireAuth(okHandler), &internal.AuthContext{PrincipalID: 1, Kind: internal.KindPatient})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})
	})

	ginkgo.Describe("RequirePermission", func() {
		guard := RequirePermission(rbac.PermViewPatientMedicalRecords)(okHandler)

		ginkgo.It("rejects anonymous requests with 401", func() {
			rec := serve(guard, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("rejects a snapshot missing the permission with 403", func() {
			rec := serve(guard, &internal.AuthContext{PrincipalID: 2, Kind: internal.KindPersonnel})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("admits a snapshot carrying any listed permission", func() {
			authCtx := &internal.AuthContext{
				PrincipalID: 2,
				Kind:        internal.KindPersonnel,
				Permissions: []string{string(rbac.PermViewPatientMedicalRecords)},
			}
			rec := serve(guard, authCtx)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})
	})

	ginkgo.Describe("RequirePersonnel", func() {
		ginkgo.It("rejects anonymous requests with 401", func() {
			rec := serve(RequirePersonnel(okHandler), nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("rejects patients with 403", func() {
			rec := serve(RequirePersonnel(okHandler), &internal.AuthContext{PrincipalID: 3, Kind: internal.KindPatient})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("admits personnel", func() {
			rec := serve(RequirePersonnel(okHandler), &internal.AuthContext{PrincipalID: 3, Kind: internal.KindPersonnel})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})
	})

	ginkgo.Describe("RequireVerified", func() {
		ginkgo.It("rejects anonymous requests with 401", func() {
			rec := serve(RequireVerified(okHandler), nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("rejects unverified principals with 403", func() {
			rec := serve(RequireVerified(okHandler), &internal.AuthContext{PrincipalID: 4, Kind: internal.KindPatient})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("admits verified principals", func() {
			rec := serve(RequireVerified(okHandler), &internal.AuthContext{PrincipalID: 4, Kind: internal.KindPatient, IsVerified: true})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})
	})

	ginkgo.Describe("RequireEmergencyTrigger", func() {
		ginkgo.It("rejects anonymous requests with 401", func() {
			rec := serve(RequireEmergencyTrigger(okHandler), nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("rejects personnel whose token lacks the trigger flag", func() {
			rec := serve(RequireEmergencyTrigger(okHandler), &internal.AuthContext{PrincipalID: 5, Kind: internal.KindPersonnel})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("rejects patients regardless of flags", func() {
			rec := serve(RequireEmergencyTrigger(okHandler), &internal.AuthContext{PrincipalID: 5, Kind: internal.KindPatient, CanTriggerEmergency: true})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("admits personnel carrying the trigger flag", func() {
			rec := serve(RequireEmergencyTrigger(okHandler), &internal.AuthContext{PrincipalID: 5, Kind: internal.KindPersonnel, CanTriggerEmergency: true})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})
	})
})
