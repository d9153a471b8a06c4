package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientNilConfigUsesDefaults(t *testing.T) {
	client := NewClient(nil)

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.config.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v, want 30s", client.config.Timeout)
	}
	if client.config.UserAgent != "skypost/1.0" {
		t.Fatalf("user agent = %q, want skypost/1.0", client.config.UserAgent)
	}
}

func TestGetWithContextSetsDefaultHeaders(t *testing.T) {
	var gotUA, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom")
	}))
	defer server.Close()

	config := DefaultConfig()
	config.Headers["X-Custom"] = "value"
	client := NewClient(config)

	resp, err := client.GetWithContext(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetWithContext() error = %v", err)
	}
	resp.Body.Close()

	if gotUA != "skypost/1.0" {
		t.Fatalf("User-Agent = %q, want skypost/1.0", gotUA)
	}
	if gotCustom != "value" {
		t.Fatalf("X-Custom = %q, want value", gotCustom)
	}
}

func TestDoDoesNotOverrideExplicitHeaders(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	config := DefaultConfig()
	config.Headers["Authorization"] = "Bearer default"
	client := NewClient(config)

	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Authorization", "Bearer explicit")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer explicit" {
		t.Fatalf("Authorization = %q, want the explicit header", gotAuth)
	}
}

func TestPostJSONEncodesBody(t *testing.T) {
	var gotContentType string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
	}))
	defer server.Close()

	client := NewClient(nil)
	resp, err := client.PostJSON(context.Background(), server.URL, map[string]string{"key": "value"})
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	resp.Body.Close()

	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody["key"] != "value" {
		t.Fatalf("body = %+v, want key=value", gotBody)
	}
}

func TestClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	config := DefaultConfig()
	config.Timeout = 50 * time.Millisecond
	client := NewClient(config)

	if _, err := client.GetWithContext(context.Background(), server.URL); err == nil {
		t.Fatal("GetWithContext() expected timeout error, got nil")
	}
}
