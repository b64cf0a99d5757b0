package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.apollo.io/v1"

// Client talks to the Apollo.io REST API.
type Client interface {
	EnrichOrganization(ctx context.Context, domain string) (*OrganizationResponse, error)
	SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error)
	ValidateKey(ctx context.Context) error
}

// PeopleSearchRequest is the request body for POST /mixed_people/search.
type PeopleSearchRequest struct {
	Keywords            string   `json:"q_keywords,omitempty"`
	PersonTitles        []string `json:"person_titles"`
	OrganizationNames   []string `json:"organization_names,omitempty"`
	OrganizationDomains []string `json:"q_organization_domains"`
	Page                int      `json:"page"`
	PerPage             int      `json:"per_page"`
}

// OrganizationResponse is the response from POST /organizations/enrich.
// Organization is nil when Apollo has no match for the domain.
type OrganizationResponse struct {
	Organization *Organization `json:"organization"`
}

// Organization is an Apollo company record.
type Organization struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	WebsiteURL               string `json:"website_url"`
	PrimaryDomain            string `json:"primary_domain"`
	Industry                 string `json:"industry"`
	EstimatedNumEmployees    int    `json:"estimated_num_employees"`
	ShortDescription         string `json:"short_description"`
	HeadquartersAddressLine1 string `json:"headquarters_address_line_1"`
	Phone                    string `json:"phone"`
	LinkedInURL              string `json:"linkedin_url"`
}

// PeopleSearchResponse is the response from POST /mixed_people/search.
type PeopleSearchResponse struct {
	People     []Person   `json:"people"`
	Pagination Pagination `json:"pagination"`
}

// Person is an Apollo contact record.
type Person struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	Title          string        `json:"title"`
	Email          string        `json:"email"`
	SanitizedPhone string        `json:"sanitized_phone"`
	Phone          string        `json:"phone"`
	LinkedInURL    string        `json:"linkedin_url"`
	Organization   *Organization `json:"organization"`
}

// Pagination describes a page of search results.
type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
	TotalPages   int `json:"total_pages"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apollo: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Apollo API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) EnrichOrganization(ctx context.Context, domain string) (*OrganizationResponse, error) {
	var result OrganizationResponse
	if err := c.post(ctx, "/organizations/enrich", map[string]string{"domain": domain}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error) {
	if req.PersonTitles == nil {
		req.PersonTitles = []string{}
	}
	if req.OrganizationDomains == nil {
		req.OrganizationDomains = []string{}
	}
	if req.Page == 0 {
		req.Page = 1
	}

	var result PeopleSearchResponse
	if err := c.post(ctx, "/mixed_people/search", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateKey issues a one-result organization search and falls back to a
// people search when that endpoint is refused. A nil error means the key
// was accepted; rejections surface as *APIError.
func (c *httpClient) ValidateKey(ctx context.Context) error {
	var discard json.RawMessage
	err := c.post(ctx, "/organizations/search", map[string]int{"per_page": 1}, &discard)
	if err == nil || ctx.Err() != nil {
		return err
	}
	return c.post(ctx, "/mixed_people/search", map[string]int{"per_page": 1}, &discard)
}

func (c *httpClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "apollo: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "apollo: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "apollo: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "apollo: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "apollo: unmarshal response")
	}
	return nil
}
