package leaderboard_http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSubmitScoreMultipartForm(t *testing.T) {
	var (
		gotPath   string
		gotFields map[string]string
		gotPNG    []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		file, header, err := r.FormFile("screenshot")
		if err != nil {
			t.Errorf("screenshot part: %v", err)
		} else {
			defer file.Close()
			gotPNG, _ = io.ReadAll(file)
			if header.Filename != "screenshot.png" {
				t.Errorf("filename = %q", header.Filename)
			}
			if ct := header.Header.Get("Content-Type"); ct != "image/png" {
				t.Errorf("part content-type = %q", ct)
			}
		}
		json.NewEncoder(w).Encode(Result{Success: true, TableName: "Medieval Madness"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123", "machine-abc")
	result, err := c.SubmitScore(context.Background(), Submission{
		Rom:   "mm_109c",
		Score: 112500,
		PNG:   []byte("png-bytes"),
	})
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}

	if gotPath != "/api/submit-score-with-screenshot" {
		t.Errorf("path = %q", gotPath)
	}
	want := map[string]string{
		"apiKey":    "key-123",
		"machineID": "machine-abc",
		"romName":   "mm_109c",
		"score":     "112500",
	}
	for k, v := range want {
		if gotFields[k] != v {
			t.Errorf("field %s = %q, want %q", k, gotFields[k], v)
		}
	}
	if string(gotPNG) != "png-bytes" {
		t.Errorf("screenshot bytes = %q", gotPNG)
	}
	if !result.Success || result.TableName != "Medieval Madness" {
		t.Errorf("result = %+v", result)
	}
}

func TestSubmitScoreNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "machine")
	if _, err := c.SubmitScore(context.Background(), Submission{Rom: "mm_109c", Score: 1}); err == nil {
		t.Fatal("expected an error on 401")
	}
}

func TestSubmitScoreRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(Result{Success: false, Error: "invalid api key"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "machine")
	result, err := c.SubmitScore(context.Background(), Submission{Rom: "mm_109c", Score: 1})
	if err != nil {
		t.Fatalf("a well-formed rejection is not a transport error: %v", err)
	}
	if result.Success || result.Error != "invalid api key" {
		t.Errorf("result = %+v", result)
	}
}
