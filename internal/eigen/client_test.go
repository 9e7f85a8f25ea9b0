package eigen

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// platformStub fakes the subset of the platform API the client touches.
type platformStub struct {
	mux         *http.ServeMux
	authCalls   int
	tokens      []string
	expireFirst int // number of project requests to reject with token expiry
}

func newPlatformStub(tokens ...string) *platformStub {
	s := &platformStub{mux: http.NewServeMux(), tokens: tokens}

	s.mux.HandleFunc("/auth/v1/token/", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["username"] != "user" || creds["password"] != "pw" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		token := "token-0"
		if s.authCalls < len(s.tokens) {
			token = s.tokens[s.authCalls]
		}
		s.authCalls++
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	})

	s.mux.HandleFunc("/api/project_management/v2/projects/", func(w http.ResponseWriter, r *http.Request) {
		if s.expireFirst > 0 {
			s.expireFirst--
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"detail": "Token has expired."}})
			return
		}
		_ = json.NewEncoder(w).Encode(Project{GUID: "abc", DocumentTypeID: 123, Name: "proj"})
	})

	return s
}

func TestCreateProject(t *testing.T) {
	stub := newPlatformStub("t1")
	srv := httptest.NewServer(stub.mux)
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL, "user", "pw", testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, stub.authCalls, "client authenticates on construction")

	project, err := client.CreateProject(context.Background(), "proj", "latency")
	require.NoError(t, err)
	assert.Equal(t, int64(123), project.DocumentTypeID)
}

func TestReauthenticatesOnceOnExpiry(t *testing.T) {
	stub := newPlatformStub("t1", "t2")
	stub.expireFirst = 1
	srv := httptest.NewServer(stub.mux)
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL, "user", "pw", testLogger())
	require.NoError(t, err)

	project, err := client.CreateProject(context.Background(), "proj", "latency")
	require.NoError(t, err)
	assert.Equal(t, int64(123), project.DocumentTypeID)
	assert.Equal(t, 2, stub.authCalls, "one re-authentication on expiry")
}

func TestAuthRetriesExceeded(t *testing.T) {
	stub := newPlatformStub("t1", "t2")
	stub.expireFirst = 2
	srv := httptest.NewServer(stub.mux)
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL, "user", "pw", testLogger())
	require.NoError(t, err)

	_, err = client.CreateProject(context.Background(), "proj", "latency")
	require.ErrorIs(t, err, ErrAuthRetriesExceeded)
}

func TestNonExpiryErrorSurfaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "t"})
	})
	mux.HandleFunc("/api/project_management/v2/projects/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL, "user", "pw", testLogger())
	require.NoError(t, err)

	_, err = client.CreateProject(context.Background(), "proj", "latency")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTeapot, apiErr.StatusCode)
}

func TestUploadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("contents"), 0o600))

	var gotDocType string
	var gotFiles []string
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "t"})
	})
	mux.HandleFunc("/api/v1/document_uploader/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		gotDocType = r.FormValue("document_type_id")
		for _, fh := range r.MultipartForm.File["files"] {
			gotFiles = append(gotFiles, fh.Filename)
		}
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(context.Background(), srv.URL, "user", "pw", testLogger())
	require.NoError(t, err)

	require.NoError(t, client.UploadFiles(context.Background(), 123, []string{path}))
	assert.Equal(t, "123", gotDocType)
	assert.Equal(t, []string{"doc.txt"}, gotFiles)
}
