// Package fireside is a client library for a cloud document database
// spoken over REST: collections of schemaless documents, typed field
// values on the wire, structured queries, and API-key authentication.
package fireside

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/fireside-db/fireside/fireside/query"
	"github.com/fireside-db/fireside/types"
)

// DefaultBaseURL is the production REST endpoint.
const DefaultBaseURL = "https://firestore.googleapis.com/v1"

// maxPageSize is the largest page the store serves per list request.
const maxPageSize = 100

// queryLineLimit bounds a single runQuery response line.
const queryLineLimit = 16 << 20

// Client talks to one project's document database. It is safe for
// concurrent use; all mutable state lives on the server.
type Client struct {
	hc        *http.Client
	baseURL   string
	projectID string
	apiKey    string
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithBaseURL points the client at a different endpoint, such as a
// local emulator.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithLogger substitutes the logger used for skipped-item warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the given project, authenticated by API key.
func New(projectID, apiKey string, opts ...Option) (*Client, error) {
	if projectID == "" {
		return nil, &ConfigError{Reason: "project ID is required"}
	}
	if apiKey == "" {
		return nil, &ConfigError{Reason: "API key is required"}
	}
	c := &Client{
		hc:        http.DefaultClient,
		baseURL:   DefaultBaseURL,
		projectID: projectID,
		apiKey:    apiKey,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ProjectID returns the project the client was built for.
func (c *Client) ProjectID() string { return c.projectID }

func (c *Client) documentsRoot() string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents", c.baseURL, c.projectID)
}

func (c *Client) collectionURL(collection string) string {
	return c.documentsRoot() + "/" + url.PathEscape(collection)
}

func (c *Client) documentURL(collection, id string) string {
	return c.collectionURL(collection) + "/" + url.PathEscape(id)
}

// send issues one HTTP request with the API key attached. A non-nil
// body is JSON-encoded.
func (c *Client) send(ctx context.Context, op, method, rawURL string, params url.Values, body any) (*http.Response, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)
	rawURL += "?" + params.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &SerializationError{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return resp, nil
}

// readBody drains and closes the response body.
func readBody(op string, resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return data, nil
}

// responseError maps a non-success status to the error taxonomy. The
// response body is carried verbatim.
func responseError(resp *http.Response, body []byte) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Status: resp.StatusCode, Body: string(body)}
	default:
		return &StoreError{Status: resp.StatusCode, Body: string(body)}
	}
}

// CreateDocument stores a new document and returns its ID. An empty
// docID asks the store to generate one.
func (c *Client) CreateDocument(ctx context.Context, collection, docID string, data map[string]any) (string, error) {
	return c.createFields(ctx, collection, docID, types.DynamicToFields(data))
}

func (c *Client) createFields(ctx context.Context, collection, docID string, fields types.Fields) (string, error) {
	const op = "create document"
	params := url.Values{}
	if docID != "" {
		params.Set("documentId", docID)
	}

	resp, err := c.send(ctx, op, http.MethodPost, c.collectionURL(collection), params, writeRequest{Fields: fields})
	if err != nil {
		return "", err
	}
	body, err := readBody(op, resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", responseError(resp, body)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", &SerializationError{Op: op, Err: err}
	}
	return doc.ID(), nil
}

// GetDocument fetches one document's fields as plain Go values.
func (c *Client) GetDocument(ctx context.Context, collection, id string) (map[string]any, error) {
	fields, err := c.getFields(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return types.FieldsToDynamic(fields), nil
}

func (c *Client) getFields(ctx context.Context, collection, id string) (types.Fields, error) {
	const op = "get document"
	resp, err := c.send(ctx, op, http.MethodGet, c.documentURL(collection, id), nil, nil)
	if err != nil {
		return nil, err
	}
	body, err := readBody(op, resp)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{ID: id}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, responseError(resp, body)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &SerializationError{Op: op, Err: err}
	}
	return doc.Fields, nil
}

// UpdateDocument writes fields to an existing document. With merge set,
// only the given fields are touched; otherwise the whole document is
// replaced.
func (c *Client) UpdateDocument(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	fields := types.DynamicToFields(data)
	var mask []string
	if merge {
		mask = fieldMask(fields)
	}
	return c.patchFields(ctx, collection, id, fields, mask)
}

// fieldMask lists the field names in sorted order, so identical writes
// produce identical requests.
func fieldMask(fields types.Fields) []string {
	mask := make([]string, 0, len(fields))
	for name := range fields {
		mask = append(mask, name)
	}
	sort.Strings(mask)
	return mask
}

func (c *Client) patchFields(ctx context.Context, collection, id string, fields types.Fields, mask []string) error {
	const op = "update document"
	params := url.Values{}
	for _, path := range mask {
		params.Add("updateMask.fieldPaths", path)
	}

	resp, err := c.send(ctx, op, http.MethodPatch, c.documentURL(collection, id), params, writeRequest{Fields: fields})
	if err != nil {
		return err
	}
	body, err := readBody(op, resp)
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{ID: id}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return responseError(resp, body)
	}
	return nil
}

// DeleteDocument removes one document.
func (c *Client) DeleteDocument(ctx context.Context, collection, id string) error {
	const op = "delete document"
	resp, err := c.send(ctx, op, http.MethodDelete, c.documentURL(collection, id), nil, nil)
	if err != nil {
		return err
	}
	body, err := readBody(op, resp)
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{ID: id}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return responseError(resp, body)
	}
	return nil
}

// ListDocuments fetches up to limit documents from a collection as
// plain Go values. A non-positive limit asks for the largest page the
// store serves.
func (c *Client) ListDocuments(ctx context.Context, collection string, limit int) ([]map[string]any, error) {
	docs, err := c.ListRaw(ctx, collection, limit)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(docs))
	for i, doc := range docs {
		out[i] = doc.Dynamic()
	}
	return out, nil
}

// ListRaw fetches up to limit documents in wire form. The page size is
// capped at the store's maximum of 100.
func (c *Client) ListRaw(ctx context.Context, collection string, limit int) ([]Document, error) {
	const op = "list documents"
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(limit))

	resp, err := c.send(ctx, op, http.MethodGet, c.collectionURL(collection), params, nil)
	if err != nil {
		return nil, err
	}
	body, err := readBody(op, resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp, body)
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &SerializationError{Op: op, Err: err}
	}
	return list.Documents, nil
}

type runQueryRequest struct {
	StructuredQuery query.StructuredQuery `json:"structuredQuery"`
}

// RunQuery executes a structured query and returns the fields of
// matching documents as plain Go values.
func (c *Client) RunQuery(ctx context.Context, q query.StructuredQuery) ([]map[string]any, error) {
	docs, err := c.RunQueryRaw(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(docs))
	for i, doc := range docs {
		out[i] = doc.Dynamic()
	}
	return out, nil
}

// RunQueryRaw executes a structured query and returns matching
// documents in wire form.
//
// The response is a stream of newline-delimited envelopes. Blank lines
// are keep-alive heartbeats and envelopes without a document carry only
// bookkeeping; both are skipped. An unparsable line is logged and
// skipped rather than failing the whole query.
func (c *Client) RunQueryRaw(ctx context.Context, q query.StructuredQuery) ([]Document, error) {
	const op = "run query"
	resp, err := c.send(ctx, op, http.MethodPost, c.documentsRoot()+":runQuery", nil, runQueryRequest{StructuredQuery: q})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
		return nil, responseError(resp, body)
	}

	var docs []Document
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), queryLineLimit)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var env queryEnvelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			c.logger.Warn("skipping unparsable query result line",
				"collection", queryCollection(q), "error", err)
			continue
		}
		if env.Document != nil {
			docs = append(docs, *env.Document)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return docs, nil
}

func queryCollection(q query.StructuredQuery) string {
	if len(q.From) > 0 {
		return q.From[0].CollectionID
	}
	return ""
}
