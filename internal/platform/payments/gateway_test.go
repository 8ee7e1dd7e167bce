package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreatePreference(t *testing.T) {
	var got Preference
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/preferences" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"init_point": "https://pay.example.com/p/abc",
		})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "test-token")
	initPoint, err := g.CreatePreference(context.Background(), Preference{
		Reference: "appt-1",
		Title:     "Consulta con Dra. López",
		Amount:    75,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if initPoint != "https://pay.example.com/p/abc" {
		t.Errorf("initPoint = %q", initPoint)
	}
	if got.Reference != "appt-1" || got.Amount != 75 {
		t.Errorf("request payload = %+v", got)
	}
}

func TestCreatePreference_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "bad-token")
	if _, err := g.CreatePreference(context.Background(), Preference{Reference: "appt-1"}); err == nil {
		t.Error("expected error on non-2xx status")
	}
}

func TestCreatePreference_MissingInitPoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "pref-1"})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "test-token")
	if _, err := g.CreatePreference(context.Background(), Preference{Reference: "appt-1"}); err == nil {
		t.Error("expected error when init_point is absent")
	}
}
