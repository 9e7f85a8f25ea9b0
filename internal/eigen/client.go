// Package eigen is the HTTP client for the Eigen document platform, the
// external system benchmarks run against.
package eigen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrAuthRetriesExceeded is returned when the token refresh path has been
// exhausted: the token expired, a re-authentication succeeded, and the
// replayed request still came back expired.
var ErrAuthRetriesExceeded = errors.New("eigen: auth token expired and retries exceeded")

const expiredTokenDetail = "Token has expired."

// APIError is a non-2xx platform response.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eigen: %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Project is the platform's view of a created project. DocumentTypeID is the
// remote project id the rest of the workflow correlates on.
type Project struct {
	GUID           string `json:"guid"`
	DocumentTypeID int64  `json:"document_type_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	CreatedAt      string `json:"created_at"`
	Language       string `json:"language"`
}

// Client talks to one platform instance with one set of credentials. It
// authenticates on construction and transparently re-authenticates exactly
// once per request when the platform reports an expired token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	token      string
	log        *slog.Logger
}

// NewClient authenticates against the platform and returns a ready client.
// baseURL has the form scheme://host[:port].
func NewClient(ctx context.Context, baseURL, username, password string, log *slog.Logger) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		log:        log,
	}
	if err := c.authenticate(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"username": c.username, "password": c.password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/token/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("eigen: authenticate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, URL: req.URL.String(), Body: string(data)}
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("eigen: decode token response: %w", err)
	}
	c.token = payload.Token
	return nil
}

// do sends the request, refreshing the token once on an expiry signal and
// replaying. rebuild must return a fresh request each attempt since bodies
// are consumed on send.
func (c *Client) do(ctx context.Context, rebuild func() (*http.Request, error)) (*http.Response, error) {
	reauthed := false
	for {
		req, err := rebuild()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if !isTokenExpiry(resp.StatusCode, data) {
			return nil, &APIError{StatusCode: resp.StatusCode, URL: req.URL.String(), Body: string(data)}
		}
		if reauthed {
			return nil, fmt.Errorf("%w: %s", ErrAuthRetriesExceeded, req.URL)
		}

		c.log.Info("token expired, reauthenticating", "url", req.URL.String())
		if err := c.authenticate(ctx); err != nil {
			return nil, err
		}
		reauthed = true
	}
}

func isTokenExpiry(status int, body []byte) bool {
	if status != http.StatusUnauthorized {
		return false
	}
	var payload struct {
		Error struct {
			Detail string `json:"detail"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return payload.Error.Detail == expiredTokenDetail
}

// CreateProject creates a remote project and returns its identifiers.
func (c *Client) CreateProject(ctx context.Context, name, description string) (Project, error) {
	body, err := json.Marshal(map[string]string{"name": name, "description": description})
	if err != nil {
		return Project{}, err
	}

	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/project_management/v2/projects/", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return Project{}, err
	}
	defer resp.Body.Close()

	var project Project
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return Project{}, fmt.Errorf("eigen: decode create project response: %w", err)
	}
	c.log.Info("created remote project", "document_type_id", project.DocumentTypeID, "guid", project.GUID)
	return project, nil
}

// UploadFiles uploads the given files to the remote project identified by
// documentTypeID.
func (c *Client) UploadFiles(ctx context.Context, documentTypeID int64, paths []string) error {
	resp, err := c.do(ctx, func() (*http.Request, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		if err := writer.WriteField("document_type_id", strconv.FormatInt(documentTypeID, 10)); err != nil {
			return nil, err
		}
		for _, path := range paths {
			part, err := writer.CreateFormFile("files", filepath.Base(path))
			if err != nil {
				return nil, err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("eigen: read upload file %s: %w", path, err)
			}
			if _, err := part.Write(data); err != nil {
				return nil, err
			}
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/document_uploader/", bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Info("uploaded files", "document_type_id", documentTypeID, "count", len(paths))
	return nil
}
