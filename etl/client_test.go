package etl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
)

func loginOK(w http.ResponseWriter, token string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "",
		"data":    map[string]any{"accessToken": token, "expiresIn": 3600},
	})
}

func TestClient_GetToken_CachesAcrossCalls(t *testing.T) {
	var logins int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Security/Login" {
			atomic.AddInt32(&logins, 1)
			loginOK(w, "tok-a")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "user", "pass", &memoryTokenCache{})

	for i := 0; i < 3; i++ {
		token, err := client.GetToken(context.Background())
		if err != nil {
			t.Fatalf("GetToken error: %v", err)
		}
		if token != "tok-a" {
			t.Fatalf("expected tok-a, got %q", token)
		}
	}
	if n := atomic.LoadInt32(&logins); n != 1 {
		t.Fatalf("expected 1 login, got %d", n)
	}
}

func TestClient_Authenticate_PortalMessageIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Usuario o contraseña incorrecta"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "user", "wrong", &memoryTokenCache{})
	_, err := client.GetToken(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if !strings.Contains(authErr.Message, "Usuario o contraseña incorrecta") {
		t.Fatalf("expected portal message in error, got %q", authErr.Message)
	}
}

func TestClient_Authenticate_MissingTokenIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "", "data": map[string]any{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "user", "pass", &memoryTokenCache{})
	_, err := client.GetToken(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestClient_Download_RefreshesOnceAfter401(t *testing.T) {
	var logins, exports int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/Security/Login":
			n := atomic.AddInt32(&logins, 1)
			if n == 1 {
				loginOK(w, "stale")
			} else {
				loginOK(w, "fresh")
			}
		case strings.HasSuffix(r.URL.Path, "/Report/InspectionDetailExport"):
			atomic.AddInt32(&exports, 1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte("export-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "user", "pass", &memoryTokenCache{})

	path, err := client.DownloadInspectionReport(context.Background(), DefaultDownloadParams())
	if err != nil {
		t.Fatalf("DownloadInspectionReport error: %v", err)
	}
	defer os.Remove(path)

	if atomic.LoadInt32(&logins) != 2 {
		t.Fatalf("expected 2 logins (initial + refresh), got %d", logins)
	}
	if atomic.LoadInt32(&exports) != 2 {
		t.Fatalf("expected 2 export attempts, got %d", exports)
	}

	if !strings.HasSuffix(path, ".xlsx") {
		t.Fatalf("expected .xlsx temp file, got %q", path)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading temp file: %v", err)
	}
	if string(body) != "export-bytes" {
		t.Fatalf("unexpected file content: %q", body)
	}
}

func TestClient_Download_SecondUnauthorizedIsTerminal(t *testing.T) {
	var exports int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Security/Login" {
			loginOK(w, "always-rejected")
			return
		}
		atomic.AddInt32(&exports, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "user", "pass", &memoryTokenCache{})

	_, err := client.DownloadInspectionReport(context.Background(), DefaultDownloadParams())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if atomic.LoadInt32(&exports) != 2 {
		t.Fatalf("expected exactly 2 export attempts, got %d", exports)
	}
	if !Retryable(err) {
		t.Fatal("expected download auth failure to be retryable at the run level")
	}
}

func TestClient_Download_ServerErrorIsRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Security/Login" {
			loginOK(w, "tok")
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL, "user", "pass", &memoryTokenCache{})

	_, err := client.DownloadInspectionReport(context.Background(), DefaultDownloadParams())
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %T: %v", err, err)
	}
	if reqErr.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", reqErr.Status)
	}
}

func TestFileExtension(t *testing.T) {
	cases := []struct {
		fileType int
		expected string
	}{
		{FileTypeCsv, ".csv"},
		{FileTypePdf, ".pdf"},
		{FileTypeXlsx, ".xlsx"},
		{0, ".xlsx"},
		{99, ".xlsx"},
	}
	for _, tc := range cases {
		if got := fileExtension(tc.fileType); got != tc.expected {
			t.Fatalf("fileExtension(%d) expected %s, got %s", tc.fileType, tc.expected, got)
		}
	}
}
