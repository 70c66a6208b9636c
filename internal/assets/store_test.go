package assets_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mehdiyara/stockroom/internal/assets"
)

func TestUpload(t *testing.T) {
	var gotPath, gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := assets.New(srv.URL, "secret-key")
	url, err := store.Upload(context.Background(), "avatars", "u1.png", "image/png", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if gotPath != "POST /object/avatars/u1.png" {
		t.Errorf("request = %q", gotPath)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotType != "image/png" || gotBody != "bytes" {
		t.Errorf("content-type = %q body = %q", gotType, gotBody)
	}
	if want := srv.URL + "/object/public/avatars/u1.png"; url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestUploadFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusInsufficientStorage)
	}))
	defer srv.Close()

	store := assets.New(srv.URL, "k")
	if _, err := store.Upload(context.Background(), "avatars", "x", "image/png", strings.NewReader("b")); err == nil {
		t.Fatal("want error on 507 response")
	}
}

func TestRemoveToleratesMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	store := assets.New(srv.URL, "k")
	if err := store.Remove(context.Background(), "avatars", "gone.png"); err != nil {
		t.Fatalf("remove of missing object must succeed, got %v", err)
	}
}

func TestDisabledStore(t *testing.T) {
	store := assets.New("", "")
	_, err := store.Upload(context.Background(), "b", "n", "t", strings.NewReader(""))
	if !errors.Is(err, assets.ErrDisabled) {
		t.Errorf("upload err = %v, want ErrDisabled", err)
	}
	if err := store.Remove(context.Background(), "b", "n"); !errors.Is(err, assets.ErrDisabled) {
		t.Errorf("remove err = %v, want ErrDisabled", err)
	}
}
