// Package testutil provides an in-memory fake of the document store's
// REST surface for tests: collection CRUD, update masks, and the
// newline-delimited runQuery stream, without a network.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FakeStore holds documents in memory and serves the store's REST
// wire protocol. Create one with NewFakeStore and mount its Handler on
// an httptest.Server.
type FakeStore struct {
	mu          sync.Mutex
	projectID   string
	collections map[string]map[string]storedDoc
	nextID      int

	// Heartbeats is the number of blank keep-alive lines emitted
	// before each runQuery result line.
	Heartbeats int

	// RejectKey, when set, answers 403 to any request whose key
	// parameter differs from it.
	RejectKey string
}

type storedDoc struct {
	fields     map[string]json.RawMessage
	createTime string
	updateTime string
}

// NewFakeStore creates an empty fake store for the given project.
func NewFakeStore(projectID string) *FakeStore {
	return &FakeStore{
		projectID:   projectID,
		collections: make(map[string]map[string]storedDoc),
	}
}

// Seed inserts a document directly, bypassing the HTTP surface.
func (fs *FakeStore) Seed(collection, id string, fields map[string]json.RawMessage) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.seedLocked(collection, id, fields)
}

// SeedJSON inserts a document whose fields are given as wire-format JSON.
// Field values are compacted so stored bytes match what the store itself
// would produce, regardless of whitespace in the seed literal.
func (fs *FakeStore) SeedJSON(collection, id, fieldsJSON string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return fmt.Errorf("failed to parse seed fields: %w", err)
	}
	for k, v := range fields {
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return fmt.Errorf("failed to compact seed field %q: %w", k, err)
		}
		fields[k] = json.RawMessage(buf.Bytes())
	}
	fs.Seed(collection, id, fields)
	return nil
}

func (fs *FakeStore) seedLocked(collection, id string, fields map[string]json.RawMessage) {
	col, ok := fs.collections[collection]
	if !ok {
		col = make(map[string]storedDoc)
		fs.collections[collection] = col
	}
	now := time.Now().UTC().Format(time.RFC3339)
	col[id] = storedDoc{fields: fields, createTime: now, updateTime: now}
}

// Document returns a stored document's fields, if present.
func (fs *FakeStore) Document(collection, id string) (map[string]json.RawMessage, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	doc, ok := fs.collections[collection][id]
	if !ok {
		return nil, false
	}
	return doc.fields, true
}

// Count returns the number of documents in a collection.
func (fs *FakeStore) Count(collection string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.collections[collection])
}

func (fs *FakeStore) docName(collection, id string) string {
	return fmt.Sprintf("projects/%s/databases/(default)/documents/%s/%s", fs.projectID, collection, id)
}

func (fs *FakeStore) pathPrefix() string {
	return fmt.Sprintf("/v1/projects/%s/databases/(default)/documents", fs.projectID)
}

// Handler returns the HTTP handler serving the fake wire protocol.
func (fs *FakeStore) Handler() http.Handler {
	return http.HandlerFunc(fs.serve)
}

func (fs *FakeStore) serve(w http.ResponseWriter, r *http.Request) {
	if fs.RejectKey != "" && r.URL.Query().Get("key") != fs.RejectKey {
		writeError(w, http.StatusForbidden, "invalid API key")
		return
	}

	prefix := fs.pathPrefix()
	if r.URL.Path == prefix+":runQuery" {
		fs.runQuery(w, r)
		return
	}
	if !strings.HasPrefix(r.URL.Path, prefix+"/") {
		writeError(w, http.StatusNotFound, "unknown path "+r.URL.Path)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, prefix+"/")
	segments := strings.Split(rest, "/")
	switch {
	case len(segments) == 1:
		fs.serveCollection(w, r, segments[0])
	case len(segments) == 2:
		fs.serveDocument(w, r, segments[0], segments[1])
	default:
		writeError(w, http.StatusBadRequest, "nested documents are not supported")
	}
}

func (fs *FakeStore) serveCollection(w http.ResponseWriter, r *http.Request, collection string) {
	switch r.Method {
	case http.MethodGet:
		fs.listDocuments(w, r, collection)
	case http.MethodPost:
		fs.createDocument(w, r, collection)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (fs *FakeStore) serveDocument(w http.ResponseWriter, r *http.Request, collection, id string) {
	switch r.Method {
	case http.MethodGet:
		fs.getDocument(w, collection, id)
	case http.MethodPatch:
		fs.patchDocument(w, r, collection, id)
	case http.MethodDelete:
		fs.deleteDocument(w, collection, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (fs *FakeStore) createDocument(w http.ResponseWriter, r *http.Request, collection string) {
	var req struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed document body")
		return
	}

	fs.mu.Lock()
	id := r.URL.Query().Get("documentId")
	if id == "" {
		fs.nextID++
		id = fmt.Sprintf("gen-%04d", fs.nextID)
	}
	if _, exists := fs.collections[collection][id]; exists {
		fs.mu.Unlock()
		writeError(w, http.StatusConflict, "document already exists: "+id)
		return
	}
	fs.seedLocked(collection, id, req.Fields)
	doc := fs.collections[collection][id]
	name := fs.docName(collection, id)
	fs.mu.Unlock()

	writeDoc(w, http.StatusOK, name, doc)
}

func (fs *FakeStore) getDocument(w http.ResponseWriter, collection, id string) {
	fs.mu.Lock()
	doc, ok := fs.collections[collection][id]
	name := fs.docName(collection, id)
	fs.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "document not found: "+id)
		return
	}
	writeDoc(w, http.StatusOK, name, doc)
}

func (fs *FakeStore) patchDocument(w http.ResponseWriter, r *http.Request, collection, id string) {
	var req struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed document body")
		return
	}
	mask := r.URL.Query()["updateMask.fieldPaths"]

	fs.mu.Lock()
	doc, ok := fs.collections[collection][id]
	if !ok {
		fs.mu.Unlock()
		writeError(w, http.StatusNotFound, "document not found: "+id)
		return
	}
	if len(mask) == 0 {
		doc.fields = req.Fields
	} else {
		merged := make(map[string]json.RawMessage, len(doc.fields)+len(mask))
		for k, v := range doc.fields {
			merged[k] = v
		}
		for _, path := range mask {
			if v, ok := req.Fields[path]; ok {
				merged[path] = v
			} else {
				delete(merged, path)
			}
		}
		doc.fields = merged
	}
	doc.updateTime = time.Now().UTC().Format(time.RFC3339)
	fs.collections[collection][id] = doc
	name := fs.docName(collection, id)
	fs.mu.Unlock()

	writeDoc(w, http.StatusOK, name, doc)
}

func (fs *FakeStore) deleteDocument(w http.ResponseWriter, collection, id string) {
	fs.mu.Lock()
	_, ok := fs.collections[collection][id]
	if ok {
		delete(fs.collections[collection], id)
	}
	fs.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "document not found: "+id)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{}"))
}

func (fs *FakeStore) listDocuments(w http.ResponseWriter, r *http.Request, collection string) {
	pageSize := 100
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid pageSize")
			return
		}
		if n < pageSize {
			pageSize = n
		}
	}

	fs.mu.Lock()
	ids := sortedIDs(fs.collections[collection])
	if len(ids) > pageSize {
		ids = ids[:pageSize]
	}
	docs := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, encodeDoc(fs.docName(collection, id), fs.collections[collection][id]))
	}
	fs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// runQuery supports collection selection, limit, and offset; filters
// and ordering are beyond what client tests need from the fake.
func (fs *FakeStore) runQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		StructuredQuery struct {
			From []struct {
				CollectionID string `json:"collectionId"`
			} `json:"from"`
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		} `json:"structuredQuery"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed query body")
		return
	}
	if len(req.StructuredQuery.From) == 0 {
		writeError(w, http.StatusBadRequest, "query names no collection")
		return
	}
	collection := req.StructuredQuery.From[0].CollectionID

	fs.mu.Lock()
	ids := sortedIDs(fs.collections[collection])
	if off := req.StructuredQuery.Offset; off > 0 {
		if off > len(ids) {
			off = len(ids)
		}
		ids = ids[off:]
	}
	if lim := req.StructuredQuery.Limit; lim > 0 && lim < len(ids) {
		ids = ids[:lim]
	}
	lines := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, encodeDoc(fs.docName(collection, id), fs.collections[collection][id]))
	}
	fs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	readTime := time.Now().UTC().Format(time.RFC3339)
	for _, doc := range lines {
		for i := 0; i < fs.Heartbeats; i++ {
			fmt.Fprint(w, "\n")
		}
		env, _ := json.Marshal(map[string]any{"document": json.RawMessage(doc), "readTime": readTime})
		fmt.Fprintf(w, "%s\n", env)
	}
	// Trailing bookkeeping line with no document.
	fmt.Fprintf(w, "{\"readTime\":%q}\n", readTime)
}

func sortedIDs(col map[string]storedDoc) []string {
	ids := make([]string, 0, len(col))
	for id := range col {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func encodeDoc(name string, doc storedDoc) json.RawMessage {
	fields := doc.fields
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	data, _ := json.Marshal(map[string]any{
		"name":       name,
		"fields":     fields,
		"createTime": doc.createTime,
		"updateTime": doc.updateTime,
	})
	return data
}

func writeDoc(w http.ResponseWriter, status int, name string, doc storedDoc) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(encodeDoc(name, doc))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": msg},
	})
}
