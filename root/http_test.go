package root

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/splash-engine/splash/object"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHTTPMessageDispatchesToSet(t *testing.T) {
	w := NewWorld(4, afero.NewMemMapFs(), "/splash.json")
	w.RegisterObject(object.NewBase("projector", "proj1"))

	srv := httptest.NewServer(w.Handler())
	defer srv.Close()

	body := `{"target":"proj1","attribute":"brightness","args":[{"float":0.75}]}`
	resp, err := http.Post(srv.URL+"/message", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	obj, _ := w.Lookup("proj1")
	vals, ok := obj.GetAttribute("brightness")
	if !ok || len(vals) != 1 {
		t.Fatalf("brightness should have been set, got %v", vals)
	}
}
