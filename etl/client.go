package etl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tribodata/oilwatch_backend/config"
)

const (
	defaultAPIBaseURL = "https://servicesintertek.sigcomt.com:2012/oilcm/api"
	defaultRefererURL = "https://oilcmintertek.sigcomt.com:2015/"

	// The portal does not always report a lifetime; fall back to 24h.
	defaultTokenLifetime = 86400
)

// Client talks to the Intertek OILCM portal: login, token lifecycle and
// export downloads. It retries a request exactly once after a 401; any
// further retry budget belongs to the orchestration task.
type Client struct {
	apiBaseURL string
	loginURL   string
	refererURL string
	username   string
	password   string
	http       *http.Client
	download   *http.Client
	tokens     TokenCache
}

// NewClientFromEnv builds a client from the integration settings. Returns a
// ConfigError (never retried) when the integration is disabled or the
// credentials are missing.
func NewClientFromEnv(tokens TokenCache) (*Client, error) {
	if !config.IntertekAPIEnabled() {
		return nil, &ConfigError{Message: "Intertek API integration is disabled"}
	}

	username, password := config.IntertekCredentials()
	if username == "" || password == "" {
		return nil, &ConfigError{Message: "Intertek API credentials not configured"}
	}

	baseURL := strings.TrimSpace(os.Getenv("INTERTEK_API_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	refererURL := strings.TrimSpace(os.Getenv("INTERTEK_REFERER_URL"))
	if refererURL == "" {
		refererURL = defaultRefererURL
	}

	return NewClient(baseURL, refererURL, username, password, tokens), nil
}

func NewClient(apiBaseURL, refererURL, username, password string, tokens TokenCache) *Client {
	if tokens == nil {
		tokens = &memoryTokenCache{}
	}
	return &Client{
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		loginURL:   strings.TrimRight(apiBaseURL, "/") + "/Security/Login",
		refererURL: refererURL,
		username:   username,
		password:   password,
		http:       &http.Client{Timeout: 30 * time.Second},
		download:   &http.Client{Timeout: 60 * time.Second},
		tokens:     tokens,
	}
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", c.refererURL)
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) "+
			"AppleWebKit/537.36 (KHTML, like Gecko) "+
			"Chrome/143.0.0.0 Safari/537.36")
}

type loginResponse struct {
	Message string `json:"message"`
	Data    struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int    `json:"expiresIn"`
	} `json:"data"`
}

// GetToken returns the cached bearer token while it is still comfortably
// valid, otherwise logs in and caches the fresh one.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(); ok {
		return token, nil
	}
	return c.authenticate(ctx)
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	logger := config.GetLogger()
	logger.WithFields(logrus.Fields{"module": "etl", "user": c.username}).Info("authenticating against Intertek API")

	payload, _ := json.Marshal(map[string]any{
		"userName":   c.username,
		"password":   c.password,
		"rememberMe": false,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, bytes.NewReader(payload))
	if err != nil {
		return "", &AuthError{Message: "failed to build login request", Err: err}
	}
	c.setCommonHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &AuthError{Message: "failed to authenticate", Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthError{Message: fmt.Sprintf("login failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var parsed loginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &AuthError{Message: "invalid response from authentication endpoint", Err: err}
	}
	if parsed.Message != "" {
		return "", &AuthError{Message: "login failed: " + parsed.Message}
	}
	if parsed.Data.AccessToken == "" {
		return "", &AuthError{Message: "no token received from authentication"}
	}

	expiresIn := parsed.Data.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultTokenLifetime
	}
	c.tokens.SetWithExpiry(parsed.Data.AccessToken, time.Duration(expiresIn)*time.Second)

	return parsed.Data.AccessToken, nil
}

// doAuthenticated performs a bearer-authenticated request. A 401 triggers
// one token refresh and one retry; a second 401 (or any retry failure) is
// terminal for this call.
func (c *Client) doAuthenticated(ctx context.Context, client *http.Client, method string, rawURL string, params url.Values) (*http.Response, error) {
	token, err := c.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, client, method, rawURL, params, token)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		config.GetLogger().WithFields(logrus.Fields{"module": "etl"}).Warn("token rejected, refreshing once")

		c.tokens.Invalidate()
		token, err = c.GetToken(ctx)
		if err != nil {
			return nil, err
		}

		resp, err = c.send(ctx, client, method, rawURL, params, token)
		if err != nil {
			return nil, &AuthError{Message: "token refresh failed", Err: err}
		}
		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			return nil, &AuthError{Message: "token refresh failed: still unauthorized"}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &RequestError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, client *http.Client, method string, rawURL string, params url.Values, token string) (*http.Response, error) {
	endpoint := rawURL
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setCommonHeaders(req)
	req.Header.Set("Authorization", "Bearer "+token)
	return client.Do(req)
}

// DownloadParams are the export endpoint's query parameters.
type DownloadParams struct {
	SearchText string
	LabNumber  string
	PageNumber int
	PageSize   int
	SortField  string
	SortType   int
	FileType   int
}

// DefaultDownloadParams mirrors the portal UI defaults: first page of 50,
// sorted by Id ascending, Excel export.
func DefaultDownloadParams() DownloadParams {
	return DownloadParams{
		PageSize:  50,
		SortField: "Id",
		SortType:  1,
		FileType:  FileTypeXlsx,
	}
}

const (
	FileTypeCsv  = 1
	FileTypePdf  = 2
	FileTypeXlsx = 3
)

func fileExtension(fileType int) string {
	switch fileType {
	case FileTypeCsv:
		return ".csv"
	case FileTypePdf:
		return ".pdf"
	default:
		return ".xlsx"
	}
}

// DownloadInspectionReport fetches the inspection detail export and writes
// it to a uniquely-named temporary file, returning its path. The caller
// owns the file and must remove it.
func (c *Client) DownloadInspectionReport(ctx context.Context, p DownloadParams) (string, error) {
	logger := config.GetLogger()

	if p.SortField == "" {
		p.SortField = "Id"
	}
	if p.PageSize <= 0 {
		p.PageSize = 50
	}

	params := url.Values{}
	params.Set("searchText", p.SearchText)
	params.Set("labNumber", p.LabNumber)
	params.Set("pageNumber", strconv.Itoa(p.PageNumber))
	params.Set("pageSize", strconv.Itoa(p.PageSize))
	params.Set("sortField", p.SortField)
	params.Set("sortType", strconv.Itoa(p.SortType))
	params.Set("download", "true")
	params.Set("fileType", strconv.Itoa(p.FileType))

	resp, err := c.doAuthenticated(ctx, c.download, http.MethodGet, c.apiBaseURL+"/Report/InspectionDetailExport", params)
	if err != nil {
		return "", &DownloadError{Err: err}
	}
	defer resp.Body.Close()

	timestamp := time.Now().Format("20060102_150405")
	pattern := fmt.Sprintf("etl_*_intertek_report_%s%s", timestamp, fileExtension(p.FileType))

	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", &DownloadError{Err: err}
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", &DownloadError{Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", &DownloadError{Err: err}
	}

	logger.WithFields(logrus.Fields{"module": "etl", "file": tmp.Name()}).Info("inspection report downloaded")
	return tmp.Name(), nil
}
