package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected method POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Expected bearer header, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"model":"m"}` {
			t.Errorf("Unexpected request body %s", body)
		}

		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"success"}`))
	}))
	defer server.Close()

	client := NewClient(
		WithTimeout(5*time.Second),
		WithHeader("Authorization", "Bearer secret"),
		WithBaseURL(server.URL+"/v1"),
	)

	resp, err := client.Do(context.Background(), NewRequest("POST", "/chat/completions").WithBody(map[string]string{"model": "m"}))
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}

	if !resp.IsSuccess() {
		t.Errorf("Expected success, got %d", resp.StatusCode)
	}
	if resp.BodyString() != `{"message":"success"}` {
		t.Errorf("Unexpected body %s", resp.BodyString())
	}
	if resp.ResponseTime < 5*time.Millisecond {
		t.Errorf("ResponseTime = %v, want at least the server delay", resp.ResponseTime)
	}
}

func TestClient_Do_NonSuccessIsNotAnError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte("nope"))
			}))
			defer server.Close()

			resp, err := NewClient(WithBaseURL(server.URL)).Do(context.Background(), NewRequest("GET", "/"))
			if err != nil {
				t.Fatalf("non-2xx must not be a transport error: %v", err)
			}
			if resp.IsSuccess() || resp.StatusCode != status {
				t.Errorf("status %d reported as %d, success=%v", status, resp.StatusCode, resp.IsSuccess())
			}
			if resp.BodyString() != "nope" {
				t.Errorf("error body should be kept, got %q", resp.BodyString())
			}
		})
	}
}

func TestClient_Do_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(WithBaseURL(server.URL)).Do(ctx, NewRequest("GET", "/"))
	if err == nil {
		t.Fatal("expected error after context deadline")
	}
}

func TestClient_WithOptions(t *testing.T) {
	timeout := 10 * time.Second

	client := NewClient(
		WithTimeout(timeout),
		WithBaseURL("https://example.com"),
		WithHeader("X-Test", "test-value"),
		WithTimeout(0), // ignored
	)

	if client.httpClient.Timeout != timeout {
		t.Errorf("Expected timeout %v, got %v", timeout, client.httpClient.Timeout)
	}
	if client.baseURL != "https://example.com" {
		t.Errorf("Expected baseURL https://example.com, got %s", client.baseURL)
	}
	if client.headers["X-Test"] != "test-value" {
		t.Errorf("Expected header X-Test: test-value, got %s", client.headers["X-Test"])
	}
}
