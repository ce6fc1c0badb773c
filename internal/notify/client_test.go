package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendDisabledIsNoop(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "jobs", false)
	if err := c.Send(context.Background(), "title", "message"); err != nil {
		t.Fatalf("disabled Send failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("disabled client made %d requests", calls)
	}
}

func TestSendPostsToTopic(t *testing.T) {
	var gotPath, gotTitle, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "jobs", true)
	if err := c.Send(context.Background(), "Analysis done", "85% match"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotPath != "/jobs" {
		t.Errorf("path = %q, want /jobs", gotPath)
	}
	if gotTitle != "Analysis done" {
		t.Errorf("Title header = %q", gotTitle)
	}
	if gotBody != "85% match" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestSendRejectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "jobs", true)
	if err := c.Send(context.Background(), "", "message"); err == nil {
		t.Error("expected an error for a rejected notification")
	}
}
