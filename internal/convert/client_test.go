package convert

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/hocr-report/internal/common"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writeTempFile: %v", err)
	}
	return path
}

func TestSubmit_Success(t *testing.T) {
	var gotField, gotFilename, gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/pdfbox-utilities/convert" {
			t.Errorf("path = %s", r.URL.Path)
		}
		mr, err := r.MultipartReader()
		if err != nil {
			t.Fatalf("multipart reader: %v", err)
		}
		part, err := mr.NextPart()
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		gotField = part.FormName()
		gotFilename = part.FileName()
		b, _ := io.ReadAll(part)
		gotContent = string(b)

		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte("PK-archive"))
	}))
	defer server.Close()

	path := writeTempFile(t, "a.pdf", "%PDF-1.7 body")
	c := NewClient(Config{EndpointURL: server.URL + "/pdfbox-utilities/convert"}, nil)

	p, err := c.Submit(context.Background(), path)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if string(p.Body) != "PK-archive" {
		t.Errorf("Body = %q", p.Body)
	}
	if p.Status != http.StatusOK || p.ContentType != "application/zip" {
		t.Errorf("Status = %d, ContentType = %q", p.Status, p.ContentType)
	}
	if gotField != "a.pdf" || gotFilename != "a.pdf" {
		t.Errorf("form field = %q, filename = %q; want both a.pdf", gotField, gotFilename)
	}
	if gotContent != "%PDF-1.7 body" {
		t.Errorf("uploaded content = %q", gotContent)
	}
}

func TestSubmit_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusMovedPermanently} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if status == http.StatusMovedPermanently {
				// no Location header, so the client hands the 301 back
				w.WriteHeader(status)
				return
			}
			http.Error(w, "conversion failed", status)
		}))

		path := writeTempFile(t, "a.pdf", "x")
		_, err := NewClient(Config{EndpointURL: server.URL}, nil).Submit(context.Background(), path)
		server.Close()

		if !errors.Is(err, common.ErrUpstreamStatus) {
			t.Fatalf("status %d: err = %v, want ErrUpstreamStatus", status, err)
		}
		if !common.IsSkippable(err) {
			t.Errorf("status %d: error must be skippable", status)
		}
		if got, ok := IsStatus(err); !ok || got != status {
			t.Errorf("IsStatus = %d, %v; want %d", got, ok, status)
		}
	}
}

func TestSubmit_TransportFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	path := writeTempFile(t, "a.pdf", "x")
	_, err := NewClient(Config{EndpointURL: url}, nil).Submit(context.Background(), path)
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if common.IsSkippable(err) {
		t.Errorf("transport error must not be skippable: %v", err)
	}
}

func TestSubmit_MissingFile(t *testing.T) {
	c := NewClient(Config{EndpointURL: "http://127.0.0.1:1"}, nil)
	_, err := c.Submit(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	if err := NewClient(Config{EndpointURL: server.URL + "/convert"}, nil).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
