package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestRequest_GetQueryAndResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("guid"); got != "a b&c" {
			t.Errorf("guid = %q, want escaped round trip", got)
		}
		w.Write([]byte(`{"status":"1","result":"Pass - Verified"}`))
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		Status string `json:"status"`
		Result string `json:"result"`
	}
	_, err = client.NewRequest().
		SetQueryParam("guid", "a b&c").
		SetResult(&out).
		Get(context.Background(), "/api")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.Status != "1" || out.Result != "Pass - Verified" {
		t.Errorf("unexpected result %+v", out)
	}
}

func TestRequest_PostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("sourceCode") != "contract A {}" {
			t.Errorf("sourceCode = %q", r.PostForm.Get("sourceCode"))
		}
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient()
	if err != nil {
		t.Fatal(err)
	}

	resp, err := client.NewRequest().
		SetFormData(url.Values{"sourceCode": {"contract A {}"}}).
		Post(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if resp.String() != "ok" {
		t.Errorf("body = %q", resp.String())
	}
}

func TestRequest_StatusErrorHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient()
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.NewRequest(WithResponseErrorHandler(StatusErrorHandler)).Get(context.Background(), srv.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected StatusError 502, got %v", err)
	}
}

func TestClient_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client, err := NewInstrumentedClient(WithRequestTimeout(50 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if _, err := client.NewRequest().Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("request took %v, timeout not applied", elapsed)
	}
}
