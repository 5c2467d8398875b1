package tanda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tandachain/crypto"
)

func TestClientSendsIdentityHeader(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	id, _ := key.Identity()

	var gotHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(identityHeader)
		if r.URL.Path != "/v1/circles" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Circle{ID: "feed", Creator: gotHeader})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, WithIdentity(id))
	created, err := client.CreateCircle(context.Background(), CreateCircleRequest{
		Nonce:              1,
		ContributionAmount: "10",
		DurationRounds:     3,
		MaxMembers:         3,
	})
	if err != nil {
		t.Fatalf("create circle: %v", err)
	}
	if gotHeader != id.String() {
		t.Fatalf("identity header = %q, want %q", gotHeader, id)
	}
	if created.ID != "feed" {
		t.Fatalf("unexpected circle: %+v", created)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "circle: member already joined"})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	err := client.Contribute(context.Background(), "feed", "10")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Message != "circle: member already joined" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}
