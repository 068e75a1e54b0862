package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func runRequestID(t *testing.T, inbound string) (echoed string, stored string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		id, _ := c.Get(ContextKeyRequestID)
		stored, _ = id.(string)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set("X-Request-ID", inbound)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header().Get("X-Request-ID"), stored
}

func TestRequestIDKeepsWellFormedHeader(t *testing.T) {
	want := uuid.New().String()
	echoed, stored := runRequestID(t, want)
	if echoed != want || stored != want {
		t.Errorf("echoed=%q stored=%q, want %q for both", echoed, stored, want)
	}
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	for _, inbound := range []string{"", "not-a-uuid", "abc\ninjected=true"} {
		echoed, stored := runRequestID(t, inbound)
		if echoed == inbound {
			t.Errorf("malformed header %q echoed back unchanged", inbound)
		}
		if _, err := uuid.Parse(stored); err != nil {
			t.Errorf("stored request id %q is not a UUID: %v", stored, err)
		}
		if echoed != stored {
			t.Errorf("echoed %q differs from stored %q", echoed, stored)
		}
	}
}
