package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const tasksPath = "/api/implementation-tasks"

// Record is a task as the service returns it
type Record struct {
	ID          string `json:"id,omitempty"`
	Category    string `json:"category"`
	SiteName    string `json:"siteName"`
	NodeID      string `json:"nodeId"`
	Implementor string `json:"implementor"`
	Status      string `json:"status"`
	Comments    string `json:"comments,omitempty"`
	ScriptsPath string `json:"scriptsPath,omitempty"`
	DateCreated string `json:"dateCreated,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

type ValidationResult struct {
	Valid     bool     `json:"valid"`
	Errors    []string `json:"errors,omitempty"`
	Preview   []Record `json:"preview,omitempty"`
	TotalRows int      `json:"total_rows,omitempty"`
}

type CommitRequest struct {
	ImportID    string
	Force       bool
	KnownErrors []string
}

type CommitResult struct {
	Success  bool     `json:"success"`
	ImportID string   `json:"import_id"`
	Imported int      `json:"imported"`
	// Inserted excludes rows an earlier try of the same import already stored
	Inserted int      `json:"inserted"`
	Skipped  []string `json:"skipped"`
	Errors   []string `json:"errors"`
	Replayed bool     `json:"replayed"`
}

// Gateway is the validate and commit boundary of the task service
type Gateway interface {
	Validate(ctx context.Context, file SourceFile, mapping Mapping) (*ValidationResult, error)
	Commit(ctx context.Context, file SourceFile, mapping Mapping, req CommitRequest) (*CommitResult, error)
}

type TaskQuery struct {
	Category string
	Status   string
	Search   string
}

// TaskLister reads the task store, used to refresh after an import
type TaskLister interface {
	ListTasks(ctx context.Context, q TaskQuery) ([]Record, error)
}

// Client talks to the task service over HTTP
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    u,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Validate(ctx context.Context, file SourceFile, mapping Mapping) (*ValidationResult, error) {
	body, contentType, err := uploadBody(file, mapping, nil)
	if err != nil {
		return nil, err
	}

	var out ValidationResult
	if _, err := c.do(ctx, "validate", http.MethodPost, tasksPath+"/validate_import", nil, body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Commit(ctx context.Context, file SourceFile, mapping Mapping, req CommitRequest) (*CommitResult, error) {
	fields := map[string]string{}
	if req.ImportID != "" {
		fields["import_id"] = req.ImportID
	}
	if req.Force {
		fields["force"] = "true"
		known, err := json.Marshal(nonNilStrings(req.KnownErrors))
		if err != nil {
			return nil, err
		}
		fields["known_errors"] = string(known)
	}

	body, contentType, err := uploadBody(file, mapping, fields)
	if err != nil {
		return nil, err
	}

	var out CommitResult
	if _, err := c.do(ctx, "commit", http.MethodPost, tasksPath+"/import_tasks", nil, body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]Record, error) {
	query := url.Values{}
	if q.Category != "" {
		query.Set("category", q.Category)
	}
	if q.Status != "" {
		query.Set("status", q.Status)
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}

	var out []Record
	if _, err := c.do(ctx, "list tasks", http.MethodGet, tasksPath, query, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Template downloads the CSV import template
func (c *Client) Template(ctx context.Context) ([]byte, error) {
	data, _, err := c.download(ctx, "template", tasksPath+"/template/csv")
	return data, err
}

// Export downloads the task store as csv or xlsx, with the file name the service suggests
func (c *Client) Export(ctx context.Context, format string) ([]byte, string, error) {
	return c.download(ctx, "export", tasksPath+"/export/"+url.PathEscape(format))
}

func (c *Client) download(ctx context.Context, op, path string) ([]byte, string, error) {
	resp, err := c.do(ctx, op, http.MethodGet, path, nil, nil, "", nil)
	if err != nil {
		return nil, "", err
	}
	filename := ""
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return resp.body, filename, nil
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, out any) (*response, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &GatewayError{Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: respBody}, nil
}

// uploadBody builds the multipart form shared by validate and commit
func uploadBody(file SourceFile, mapping Mapping, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", err
	}

	mappings, err := json.Marshal(mapping.AsMap())
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("mappings", string(mappings)); err != nil {
		return nil, "", err
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
