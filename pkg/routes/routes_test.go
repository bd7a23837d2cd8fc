package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/beacon/pkg/routes"
)

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name))
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux,
		routes.Group{
			Prefix: "/datasets",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: named("list")},
				{Method: "GET", Pattern: "/{id}", Handler: named("find")},
				{Method: "DELETE", Pattern: "/{id}", Handler: named("remove")},
			},
		},
		routes.Group{
			Prefix: "/history",
			Routes: []routes.Route{{Method: "GET", Pattern: "", Handler: named("history")}},
		},
	)

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{"GET", "/datasets", http.StatusOK, "list"},
		{"GET", "/datasets/42", http.StatusOK, "find"},
		{"DELETE", "/datasets/42", http.StatusOK, "remove"},
		{"GET", "/history", http.StatusOK, "history"},
		{"POST", "/history", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRegisterPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate route registered without panic")
		}
	}()

	g := routes.Group{
		Prefix: "/actions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: named("a")},
			{Method: "GET", Pattern: "", Handler: named("b")},
		},
	}
	routes.Register(http.NewServeMux(), g)
}
