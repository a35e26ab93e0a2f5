package connection

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/infra/buildinfo"
)

// DefaultTimeout bounds a single CLI request.
const DefaultTimeout = 30 * time.Second

var (
	groupPattern = regexp.MustCompile(`(?s)<h2>(.*?)</h2><ul>(.*?)</ul>`)
	idPattern    = regexp.MustCompile(`\?uuid=([^'"&]+)['"]`)
)

// StatusError is returned when the server answers with a 4xx or 5xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Listing is one server's id group from a listing page.
type Listing struct {
	Server string   `json:"server" yaml:"server"`
	IDs    []string `json:"ids" yaml:"ids"`
}

// HTTPClient talks to a node's document HTTP interface.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(server string, timeout time.Duration) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{DisableKeepAlives: true},
		},
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// List returns the ids of kind grouped by server, local server first.
func (c *HTTPClient) List(ctx context.Context, kind domain.Kind) ([]Listing, error) {
	body, err := c.do(ctx, http.MethodGet, "/"+kind.String(), nil, nil)
	if err != nil {
		return nil, err
	}
	return ParseListing(body), nil
}

// Get returns the content of a document. A non-empty xslt applies the
// stylesheet to an XML document on the server.
func (c *HTTPClient) Get(ctx context.Context, kind domain.Kind, id, xslt string) (string, error) {
	q := url.Values{"uuid": {id}}
	if xslt != "" {
		q.Set("xslt", xslt)
	}
	return c.do(ctx, http.MethodGet, "/"+kind.String(), q, nil)
}

// Create stores content as a new document and returns its id. xsd is
// required for XSLT documents and ignored otherwise.
func (c *HTTPClient) Create(ctx context.Context, kind domain.Kind, content, xsd string) (string, error) {
	form := url.Values{kind.String(): {content}}
	if xsd != "" {
		form.Set("xsd", xsd)
	}
	body, err := c.do(ctx, http.MethodPost, "/"+kind.String(), nil, form)
	if err != nil {
		return "", err
	}
	m := idPattern.FindStringSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("unexpected create response: %q", body)
	}
	return m[1], nil
}

// Delete removes a document from the node and its peers.
func (c *HTTPClient) Delete(ctx context.Context, kind domain.Kind, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/"+kind.String(), url.Values{"uuid": {id}}, nil)
	return err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query, form url.Values) (string, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "docmesh-cli/"+buildinfo.Version)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	return string(data), nil
}

// ParseListing extracts the server groups from a listing page.
func ParseListing(page string) []Listing {
	var out []Listing
	for _, g := range groupPattern.FindAllStringSubmatch(page, -1) {
		l := Listing{Server: html.UnescapeString(g[1]), IDs: []string{}}
		for _, m := range idPattern.FindAllStringSubmatch(g[2], -1) {
			l.IDs = append(l.IDs, html.UnescapeString(m[1]))
		}
		out = append(out, l)
	}
	return out
}
