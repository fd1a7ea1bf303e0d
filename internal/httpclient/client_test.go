package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lists/default.json" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("X-Api-Key = %q", got)
		}
		if got := r.URL.Query().Get("chain"); got != "1" {
			t.Errorf("chain = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Default","tokens":[]}`))
	}))
	defer srv.Close()

	c, err := New(
		WithProviderName("test"),
		WithBaseURL(srv.URL+"/lists/"),
		WithHeaders(map[string]string{"X-Api-Key": "secret"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		Name string `json:"name"`
	}
	resp, err := c.GetJSON(context.Background(), "default.json", &out, WithQuery(url.Values{"chain": {"1"}}))
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if resp.StatusCode != http.StatusOK || out.Name != "Default" {
		t.Errorf("status = %d, name = %q", resp.StatusCode, out.Name)
	}
}

func TestGet_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	c, err := New()
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.Get(context.Background(), srv.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusGone {
		t.Fatalf("err = %v", err)
	}
	if resp == nil || !strings.Contains(string(resp.Body), "gone") {
		t.Errorf("resp = %+v", resp)
	}

	// a custom handler can accept the status
	_, err = c.Get(context.Background(), srv.URL, WithResponseErrorHandler(func(int, []byte) error { return nil }))
	if err != nil {
		t.Errorf("custom handler: %v", err)
	}
}

func TestGet_BodyLimitAndTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			time.Sleep(200 * time.Millisecond)
		}
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	c, err := New(WithMaxBodyBytes(16), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get(context.Background(), srv.URL+"/big"); !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("big body: err = %v", err)
	}
	if _, err := c.Get(context.Background(), srv.URL+"/slow"); err == nil {
		t.Error("slow response: expected a timeout")
	}
}

func TestGetJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if _, err := c.GetJSON(context.Background(), srv.URL, &out); err == nil {
		t.Error("expected a decode error")
	}
}
