package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
	"github.com/gin-gonic/gin"
)

func TestGinGuard(t *testing.T) {
	gin.SetMode(gin.TestMode)

	v := fakeValidator{"old": &auth.Rejection{Kind: auth.RejectSessionSuperseded}}
	lookup := func(_ context.Context, id string) (string, error) {
		if id == "acc-root" {
			return "admin", nil
		}
		return "member", nil
	}

	r := gin.New()
	r.Use(GinGuard(v, Options{PublicPaths: DefaultPublicPaths()}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/me", func(c *gin.Context) {
		res, ok := GinAuthResult(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		if _, ok := AuthResultFromContext(c.Request.Context()); !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, res.AccountID)
	})
	r.GET("/admin", GinRequireRole(lookup, "admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		path, authz string
		want        int
	}{
		{"/health", "", http.StatusOK},
		{"/me", "", http.StatusUnauthorized},
		{"/me", "Bearer old", http.StatusUnauthorized},
		{"/me", "Bearer alice", http.StatusOK},
		{"/admin", "Bearer alice", http.StatusForbidden},
		{"/admin", "Bearer root", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.authz != "" {
			req.Header.Set("Authorization", tc.authz)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %q: expected %d, got %d", tc.path, tc.authz, tc.want, rec.Code)
		}
	}
}
