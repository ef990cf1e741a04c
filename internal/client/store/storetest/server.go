// Package storetest runs an in-memory store that speaks the same HTTP
// contract as the real content store, for tests of the client, the content
// service and the schema migrations.
//
// It covers collections with field validation and unique indexes, access
// rules with superuser bypass, filter/sort/expand on lists, multipart file
// uploads and password auth issuing signed tokens.
package storetest

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

type record map[string]any

type collection struct {
	def     collectionDef
	records []record
}

// RecordedRequest is a request the server received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

type superuser struct {
	id       string
	email    string
	password string
	created  string
}

type Server struct {
	*httptest.Server

	// TokenTTL is the lifetime of issued auth tokens.
	TokenTTL time.Duration

	mu          sync.Mutex
	collections []*collection
	superusers  map[string]*superuser
	files       map[string][]byte
	secret      []byte
	now         func() time.Time
	failStatus  int
	requests    []RecordedRequest
}

// New starts a server and stops it when t finishes.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		TokenTTL:   time.Hour,
		superusers: make(map[string]*superuser),
		files:      make(map[string][]byte),
		secret:     []byte(randomID(32)),
		now:        time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/collections/{collection}/auth-with-password", s.handleAuthWithPassword)
	mux.HandleFunc("GET /api/collections/{collection}/records", s.handleList)
	mux.HandleFunc("POST /api/collections/{collection}/records", s.handleCreate)
	mux.HandleFunc("GET /api/collections/{collection}/records/{id}", s.handleView)
	mux.HandleFunc("PATCH /api/collections/{collection}/records/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/collections/{collection}/records/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/collections", s.handleCreateCollection)
	mux.HandleFunc("GET /api/collections/{collection}", s.handleGetCollection)
	mux.HandleFunc("DELETE /api/collections/{collection}", s.handleDeleteCollection)
	mux.HandleFunc("GET /api/files/{collection}/{id}/{filename}", s.handleFile)

	s.Server = httptest.NewServer(s.intercept(mux))
	t.Cleanup(s.Close)
	return s
}

// SetNow replaces the clock used for timestamps and token expiry.
func (s *Server) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetFailure makes every following request fail with status. Zero restores
// normal operation.
func (s *Server) SetFailure(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request matching method and path
// prefix.
func (s *Server) LastRequest(method, pathPrefix string) (RecordedRequest, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && strings.HasPrefix(reqs[i].Path, pathPrefix) {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		fail := s.failStatus
		s.mu.Unlock()

		if fail != 0 {
			writeError(w, fail, http.StatusText(fail), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddCollection registers a collection definition directly. def is anything
// that marshals to the collection JSON shape.
func (s *Server) AddCollection(t testing.TB, def any) {
	t.Helper()
	var cd collectionDef
	b, err := json.Marshal(def)
	if err != nil {
		t.Fatalf("marshal collection: %v", err)
	}
	if err := json.Unmarshal(b, &cd); err != nil {
		t.Fatalf("unmarshal collection: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, data := s.addCollectionLocked(cd); msg != "" {
		t.Fatalf("add collection %q: %s %v", cd.Name, msg, data)
	}
}

// HasCollection reports whether idOrName exists.
func (s *Server) HasCollection(idOrName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(idOrName) != nil
}

// Insert adds a record bypassing access rules and returns its stored form.
func (s *Server) Insert(t testing.TB, collectionName string, fields map[string]any) map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findLocked(collectionName)
	if c == nil {
		t.Fatalf("insert: unknown collection %q", collectionName)
	}
	m := s.buildLocked(c, nil, fields, nil)
	if len(m.errs) > 0 {
		t.Fatalf("insert into %q: %v", collectionName, m.errs)
	}
	s.commitLocked(c, m)
	return s.exportLocked(c, m.rec, nil, nil)
}

// Records returns a snapshot of the stored records of a collection.
func (s *Server) Records(collectionName string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findLocked(collectionName)
	if c == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, s.exportLocked(c, r, nil, nil))
	}
	return out
}

// File returns the bytes of a stored file.
func (s *Server) File(collectionName, recordID, filename string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findLocked(collectionName)
	if c == nil {
		return nil, false
	}
	b, ok := s.files[fileKey(c.def.ID, recordID, filename)]
	return b, ok
}

func (s *Server) findLocked(idOrName string) *collection {
	for _, c := range s.collections {
		if c.def.ID == idOrName || c.def.Name == idOrName {
			return c
		}
	}
	return nil
}

func (s *Server) addCollectionLocked(cd collectionDef) (string, map[string]fieldError) {
	if cd.Name == "" {
		return "Failed to create collection.", map[string]fieldError{"name": {"validation_required", "Cannot be blank."}}
	}
	if cd.ID == "" {
		cd.ID = "pbc_" + randomDigits(10)
	}
	if s.findLocked(cd.Name) != nil || s.findLocked(cd.ID) != nil {
		return "Failed to create collection.", map[string]fieldError{"name": {"validation_collection_name_exists", "Collection name must be unique (case insensitive)."}}
	}
	if cd.Type == "" {
		cd.Type = "base"
	}
	for _, f := range cd.Fields {
		if f.Type == "relation" && f.CollectionID != cd.ID && s.findLocked(f.CollectionID) == nil {
			return "Failed to create collection.", map[string]fieldError{"fields": {"validation_missing_collection", "Invalid relation collection."}}
		}
	}
	s.collections = append(s.collections, &collection{def: cd})
	return "", nil
}

func (s *Server) recordLocked(c *collection, id string) (int, record) {
	for i, r := range c.records {
		if r["id"] == id {
			return i, r
		}
	}
	return -1, nil
}

func (s *Server) existsLocked(collectionID, id string) bool {
	c := s.findLocked(collectionID)
	if c == nil {
		return false
	}
	_, r := s.recordLocked(c, id)
	return r != nil
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(dateLayout)
}

// resolverLocked resolves field paths of r, following single relations and
// @request.auth.* lookups.
func (s *Server) resolverLocked(c *collection, r record, auth *superuser) resolver {
	return func(path string) (any, error) {
		if strings.HasPrefix(path, "@request.auth.") {
			if auth == nil {
				return "", nil
			}
			switch strings.TrimPrefix(path, "@request.auth.") {
			case "id":
				return auth.id, nil
			case "email":
				return auth.email, nil
			case "collectionName":
				return superusersCollection, nil
			}
			return "", nil
		}

		parts := strings.Split(path, ".")
		cur, rec := c, r
		for i, p := range parts {
			v, known := lookup(cur, rec, p)
			if !known {
				return nil, fmt.Errorf("unknown field %q", path)
			}
			if i == len(parts)-1 {
				return v, nil
			}
			f, _ := cur.def.field(p)
			if f.Type != "relation" {
				return nil, fmt.Errorf("field %q is not a relation", p)
			}
			next := s.findLocked(f.CollectionID)
			if next == nil {
				return nil, fmt.Errorf("missing relation collection %q", f.CollectionID)
			}
			id, _ := v.(string)
			_, nextRec := s.recordLocked(next, id)
			if nextRec == nil {
				return nil, nil
			}
			cur, rec = next, nextRec
		}
		return nil, nil
	}
}

func lookup(c *collection, r record, name string) (any, bool) {
	switch name {
	case "id", "created", "updated":
		return r[name], true
	case "collectionId":
		return c.def.ID, true
	case "collectionName":
		return c.def.Name, true
	}
	f, ok := c.def.field(name)
	if !ok {
		return nil, false
	}
	if v, ok := r[name]; ok {
		return v, true
	}
	return zeroValue(f), true
}

// exportLocked renders r as the store would send it.
func (s *Server) exportLocked(c *collection, r record, expand []string, auth *superuser) map[string]any {
	out := map[string]any{
		"id":             r["id"],
		"collectionId":   c.def.ID,
		"collectionName": c.def.Name,
		"created":        r["created"],
		"updated":        r["updated"],
	}
	for _, f := range c.def.Fields {
		if v, ok := r[f.Name]; ok {
			out[f.Name] = v
		} else {
			out[f.Name] = zeroValue(f)
		}
	}

	if len(expand) == 0 {
		return out
	}
	expanded := map[string]any{}
	for _, name := range expand {
		name = strings.SplitN(strings.TrimSpace(name), ".", 2)[0]
		f, ok := c.def.field(name)
		if !ok || f.Type != "relation" {
			continue
		}
		target := s.findLocked(f.CollectionID)
		if target == nil || !ruleAllowsView(target, auth) {
			continue
		}
		var items []map[string]any
		for _, id := range stringList(r[name]) {
			if _, rel := s.recordLocked(target, id); rel != nil {
				items = append(items, s.exportLocked(target, rel, nil, auth))
			}
		}
		switch {
		case len(items) == 0:
		case f.single():
			expanded[name] = items[0]
		default:
			expanded[name] = items
		}
	}
	if len(expanded) > 0 {
		out["expand"] = expanded
	}
	return out
}

func ruleAllowsView(c *collection, auth *superuser) bool {
	if auth != nil {
		return true
	}
	return c.def.ViewRule != nil
}

func sortRecords(recs []record, sortBy string, res func(record) resolver) error {
	type key struct {
		field string
		desc  bool
	}
	var keys []key
	for _, part := range strings.Split(sortBy, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k := key{field: part}
		if strings.HasPrefix(part, "-") {
			k = key{field: part[1:], desc: true}
		} else if strings.HasPrefix(part, "+") {
			k.field = part[1:]
		}
		keys = append(keys, k)
	}

	var sortErr error
	sort.SliceStable(recs, func(i, j int) bool {
		for _, k := range keys {
			a, err := res(recs[i])(k.field)
			if err != nil {
				sortErr = err
				return false
			}
			b, err := res(recs[j])(k.field)
			if err != nil {
				sortErr = err
				return false
			}
			c := order(a, b)
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return sortErr
}

func fileKey(collectionID, recordID, filename string) string {
	return collectionID + "/" + recordID + "/" + filename
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomID(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b)
}

func randomDigits(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = '0' + b[i]%10
	}
	return string(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, data map[string]fieldError) {
	if data == nil {
		data = map[string]fieldError{}
	}
	writeJSON(w, status, map[string]any{"status": status, "message": message, "data": data})
}
