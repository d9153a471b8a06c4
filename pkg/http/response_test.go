package http

import (
	"bytes"
	"io"
	"net/http"
	"testing"
)

func response(status int, contentType, body string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	return resp
}

func TestReadResponseBody(t *testing.T) {
	resp := response(200, "text/plain", "hello")

	got, err := ReadResponseBody(resp)
	if err != nil {
		t.Fatalf("ReadResponseBody() error = %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("ReadResponseBody() = %q, want %q", got, "hello")
	}
}

func TestDecodeJSONResponse(t *testing.T) {
	resp := response(200, "application/json", `{"name":"skypost"}`)

	var target struct {
		Name string `json:"name"`
	}
	if err := DecodeJSONResponse(resp, &target); err != nil {
		t.Fatalf("DecodeJSONResponse() error = %v", err)
	}
	if target.Name != "skypost" {
		t.Fatalf("decoded name = %q, want skypost", target.Name)
	}
}

func TestDecodeJSONResponseNonOK(t *testing.T) {
	resp := response(500, "application/json", `{}`)

	var target struct{}
	if err := DecodeJSONResponse(resp, &target); err == nil {
		t.Fatal("DecodeJSONResponse() expected error for 500, got nil")
	}
}

func TestEnsureStatusOK(t *testing.T) {
	tests := []struct {
		status  int
		wantErr bool
	}{
		{200, false},
		{201, true},
		{404, true},
		{500, true},
	}

	for _, tt := range tests {
		err := EnsureStatusOK(response(tt.status, "", ""))
		if (err != nil) != tt.wantErr {
			t.Fatalf("EnsureStatusOK(%d) error = %v, wantErr %v", tt.status, err, tt.wantErr)
		}
	}
}

func TestGetContentType(t *testing.T) {
	resp := response(200, "text/html; charset=utf-8", "")
	if got := GetContentType(resp); got != "text/html; charset=utf-8" {
		t.Fatalf("GetContentType() = %q", got)
	}
}
