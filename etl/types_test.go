package etl

import (
	"testing"
)

func TestDecodeRunParams(t *testing.T) {
	p := DecodeRunParams(nil)
	if p.PageSize != 50 || p.FileType != FileTypeXlsx {
		t.Fatalf("expected defaults for empty params, got %+v", p)
	}

	p = DecodeRunParams([]byte(`{"searchText":"TRANSPORTES","pageSize":100,"fileType":1}`))
	if p.SearchText != "TRANSPORTES" || p.PageSize != 100 || p.FileType != FileTypeCsv {
		t.Fatalf("unexpected decoded params: %+v", p)
	}

	p = DecodeRunParams([]byte(`not json`))
	if p.PageSize != 50 || p.FileType != FileTypeXlsx {
		t.Fatalf("expected defaults for malformed params, got %+v", p)
	}
}

func TestNormalizeRunParams_ClampsBadValues(t *testing.T) {
	p := NormalizeRunParams(RunParams{PageSize: -1, FileType: 42})
	if p.PageSize != 50 {
		t.Fatalf("expected page size 50, got %d", p.PageSize)
	}
	if p.FileType != FileTypeXlsx {
		t.Fatalf("expected xlsx fallback, got %d", p.FileType)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(&ConfigError{Message: "disabled"}) {
		t.Fatal("config errors must not be retryable")
	}
	if !Retryable(&AuthError{Message: "x"}) {
		t.Fatal("auth errors are retryable")
	}
	if !Retryable(&RequestError{Status: 500}) {
		t.Fatal("request errors are retryable")
	}
	if !Retryable(&DownloadError{Err: &RequestError{Status: 502}}) {
		t.Fatal("download errors are retryable")
	}
}
