// Package firestore implements store.Store against the Firestore v1 REST
// API. Documents arrive in Firestore's typed-value JSON encoding
// ({"fields":{"totalCalls":{"integerValue":"42"}}}), which is decoded with
// gjson; the approve mutation body is built with sjson.
package firestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/usagedeck/usage-dashboard-tui/internal/logger"
	"github.com/usagedeck/usage-dashboard-tui/internal/models"
	"github.com/usagedeck/usage-dashboard-tui/internal/store"
)

const (
	defaultBaseURL = "https://firestore.googleapis.com/v1"

	usageCollection = "usage"
	usersCollection = "users"

	requestTimeout = 30 * time.Second
)

// TokenSource supplies the bearer token for each request. The services
// layer adapts the signed-in admin session to this.
type TokenSource func(ctx context.Context) (string, error)

// Client is a Firestore REST document-store client.
type Client struct {
	projectID  string
	tokens     TokenSource
	httpClient *http.Client
	baseURL    string
}

var _ store.Store = (*Client)(nil)

// New creates a Firestore client for the given project. Requests are
// authorized with tokens from the supplied source.
func New(projectID string, tokens TokenSource) *Client {
	return &Client{
		projectID:  projectID,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
	}
}

// documentsRoot is the REST path prefix for the default database.
func (c *Client) documentsRoot() string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents", c.baseURL, c.projectID)
}

// FetchUsage bulk-reads the usage collection ordered by lastUpdated
// descending.
func (c *Client) FetchUsage(ctx context.Context) ([]models.UserUsageRecord, error) {
	docs, err := c.runQuery(ctx, usageCollection, "lastUpdated")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch usage records: %w", err)
	}

	records := make([]models.UserUsageRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, decodeUsageRecord(doc))
	}
	return records, nil
}

// FetchUsers bulk-reads the users collection ordered by createdAt
// descending. The document key is the user identifier.
func (c *Client) FetchUsers(ctx context.Context) ([]models.AppUser, error) {
	docs, err := c.runQuery(ctx, usersCollection, "createdAt")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	users := make([]models.AppUser, 0, len(docs))
	for _, doc := range docs {
		users = append(users, decodeAppUser(doc))
	}
	return users, nil
}

// FetchUser reads a single user profile by document key.
func (c *Client) FetchUser(ctx context.Context, userID string) (*models.AppUser, error) {
	body, status, err := c.do(ctx, http.MethodGet, c.documentsRoot()+"/"+usersCollection+"/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}
	if status == http.StatusNotFound {
		return nil, store.ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch user %s: %s", userID, apiErrorMessage(body, status))
	}

	user := decodeAppUser(gjson.ParseBytes(body))
	return &user, nil
}

// ApproveUser sets isApproved to true on the user document. Whether the
// caller is allowed to do that is decided by the store's security rules;
// a denial comes back as an error here.
func (c *Client) ApproveUser(ctx context.Context, userID string) error {
	patch, err := sjson.Set("", "fields.isApproved.booleanValue", true)
	if err != nil {
		return fmt.Errorf("failed to build approve request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s?updateMask.fieldPaths=isApproved",
		c.documentsRoot(), usersCollection, url.PathEscape(userID))

	body, status, err := c.do(ctx, http.MethodPatch, endpoint, []byte(patch))
	if err != nil {
		return fmt.Errorf("failed to approve user %s: %w", userID, err)
	}
	if status == http.StatusNotFound {
		return store.ErrNotFound
	}
	if status != http.StatusOK {
		return fmt.Errorf("failed to approve user %s: %s", userID, apiErrorMessage(body, status))
	}
	return nil
}

// runQuery issues a structured query for every document of a collection,
// ordered by the given field descending.
func (c *Client) runQuery(ctx context.Context, collection, orderBy string) ([]gjson.Result, error) {
	query := fmt.Sprintf(`{
		"structuredQuery": {
			"from": [{"collectionId": %q}],
			"orderBy": [{"field": {"fieldPath": %q}, "direction": "DESCENDING"}]
		}
	}`, collection, orderBy)

	body, status, err := c.do(ctx, http.MethodPost, c.documentsRoot()+":runQuery", []byte(query))
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", apiErrorMessage(body, status))
	}

	// runQuery streams an array of result wrappers; entries without a
	// "document" key (e.g. readTime-only progress markers) are skipped.
	var docs []gjson.Result
	for _, item := range gjson.ParseBytes(body).Array() {
		if doc := item.Get("document"); doc.Exists() {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// do runs one authorized request and returns the body and status.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, int, error) {
	token, err := c.tokens(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("no valid credential: %w", err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// apiErrorMessage pulls the status/message out of a Firestore error body,
// falling back to the HTTP status text.
func apiErrorMessage(body []byte, status int) string {
	parsed := gjson.ParseBytes(body)
	if msg := parsed.Get("error.status"); msg.Exists() {
		return msg.String()
	}
	// runQuery errors arrive as an array with an error element.
	if msg := parsed.Get("0.error.status"); msg.Exists() {
		return msg.String()
	}
	return http.StatusText(status)
}
