package storetest

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const maxPerPage = 1000

// mutation is a validated but not yet committed record change.
type mutation struct {
	rec  record
	errs map[string]fieldError
	put  map[string][]byte
	drop []string
}

func (s *Server) guardRule(w http.ResponseWriter, rule *string, auth *superuser) bool {
	if auth == nil && rule == nil {
		writeError(w, http.StatusForbidden, "Only superusers can perform this action.", nil)
		return false
	}
	return true
}

// ruleMatch evaluates a non-empty rule against rec for guests.
func (s *Server) ruleMatch(c *collection, rule *string, rec record, auth *superuser) (bool, error) {
	if auth != nil || rule == nil || *rule == "" {
		return true, nil
	}
	f, err := ParseFilter(*rule)
	if err != nil {
		return false, err
	}
	return f.match(s.resolverLocked(c, rec, auth))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findLocked(r.PathValue("collection"))
	if c == nil {
		writeError(w, http.StatusNotFound, "Missing collection context.", nil)
		return
	}
	auth := s.authLocked(r)
	if !s.guardRule(w, c.def.ListRule, auth) {
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	if perPage < 1 {
		perPage = 30
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	f, err := ParseFilter(q.Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter parameters.", nil)
		return
	}

	matched := make([]record, 0, len(c.records))
	for _, rec := range c.records {
		ok, err := s.ruleMatch(c, c.def.ListRule, rec, auth)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid list rule.", nil)
			return
		}
		if !ok {
			continue
		}
		ok, err = f.match(s.resolverLocked(c, rec, auth))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid filter parameters.", nil)
			return
		}
		if ok {
			matched = append(matched, rec)
		}
	}

	if sortBy := q.Get("sort"); sortBy != "" {
		err := sortRecords(matched, sortBy, func(rec record) resolver { return s.resolverLocked(c, rec, auth) })
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid sort parameters.", nil)
			return
		}
	}

	total := len(matched)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	expand := splitList(q.Get("expand"))
	items := make([]map[string]any, 0, end-start)
	for _, rec := range matched[start:end] {
		items = append(items, s.exportLocked(c, rec, expand, auth))
	}

	totalItems, totalPages := total, (total+perPage-1)/perPage
	if q.Get("skipTotal") != "" && q.Get("skipTotal") != "0" && q.Get("skipTotal") != "false" {
		totalItems, totalPages = -1, -1
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":       page,
		"perPage":    perPage,
		"totalItems": totalItems,
		"totalPages": totalPages,
		"items":      items,
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findLocked(r.PathValue("collection"))
	if c == nil {
		writeError(w, http.StatusNotFound, "Missing collection context.", nil)
		return
	}
	auth := s.authLocked(r)
	if !s.guardRule(w, c.def.ViewRule, auth) {
		return
	}
	_, rec := s.recordLocked(c, r.PathValue("id"))
	if rec == nil {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	if ok, _ := s.ruleMatch(c, c.def.ViewRule, rec, auth); !ok {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	writeJSON(w, http.StatusOK, s.exportLocked(c, rec, splitList(r.URL.Query().Get("expand")), auth))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findLocked(r.PathValue("collection"))
	if c == nil {
		writeError(w, http.StatusNotFound, "Missing collection context.", nil)
		return
	}
	auth := s.authLocked(r)
	if !s.guardRule(w, c.def.CreateRule, auth) {
		return
	}
	fields, uploads, err := decodeRecordBody(r, c)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load the submitted data due to invalid formatting.", nil)
		return
	}

	m := s.buildLocked(c, nil, fields, uploads)
	if len(m.errs) > 0 {
		writeError(w, http.StatusBadRequest, "Failed to create record.", m.errs)
		return
	}
	if ok, _ := s.ruleMatch(c, c.def.CreateRule, m.rec, auth); !ok {
		writeError(w, http.StatusBadRequest, "Failed to create record.", nil)
		return
	}
	s.commitLocked(c, m)
	writeJSON(w, http.StatusOK, s.exportLocked(c, m.rec, splitList(r.URL.Query().Get("expand")), auth))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findLocked(r.PathValue("collection"))
	if c == nil {
		writeError(w, http.StatusNotFound, "Missing collection context.", nil)
		return
	}
	auth := s.authLocked(r)
	if !s.guardRule(w, c.def.UpdateRule, auth) {
		return
	}
	_, existing := s.recordLocked(c, r.PathValue("id"))
	if existing == nil {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	if ok, _ := s.ruleMatch(c, c.def.UpdateRule, existing, auth); !ok {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	fields, uploads, err := decodeRecordBody(r, c)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load the submitted data due to invalid formatting.", nil)
		return
	}

	m := s.buildLocked(c, existing, fields, uploads)
	if len(m.errs) > 0 {
		writeError(w, http.StatusBadRequest, "Failed to update record.", m.errs)
		return
	}
	s.commitLocked(c, m)
	writeJSON(w, http.StatusOK, s.exportLocked(c, m.rec, splitList(r.URL.Query().Get("expand")), auth))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findLocked(r.PathValue("collection"))
	if c == nil {
		writeError(w, http.StatusNotFound, "Missing collection context.", nil)
		return
	}
	auth := s.authLocked(r)
	if !s.guardRule(w, c.def.DeleteRule, auth) {
		return
	}
	idx, rec := s.recordLocked(c, r.PathValue("id"))
	if rec == nil {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	if ok, _ := s.ruleMatch(c, c.def.DeleteRule, rec, auth); !ok {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	if !s.releaseReferencesLocked(c, rec["id"].(string)) {
		writeError(w, http.StatusBadRequest, "Failed to delete record. Make sure that the record is not part of a required relation reference.", nil)
		return
	}

	c.records = append(c.records[:idx], c.records[idx+1:]...)
	s.dropFilesLocked(c, rec)
	w.WriteHeader(http.StatusNoContent)
}

// releaseReferencesLocked clears optional relations pointing at id. It
// refuses when a required relation still points at it.
func (s *Server) releaseReferencesLocked(target *collection, id string) bool {
	type ref struct {
		c     *collection
		field fieldDef
	}
	var refs []ref
	for _, other := range s.collections {
		for _, f := range other.def.Fields {
			if f.Type == "relation" && (f.CollectionID == target.def.ID || f.CollectionID == target.def.Name) {
				refs = append(refs, ref{c: other, field: f})
			}
		}
	}
	for _, rf := range refs {
		if !rf.field.Required || rf.field.CascadeDelete {
			continue
		}
		for _, rec := range rf.c.records {
			for _, v := range stringList(rec[rf.field.Name]) {
				if v == id {
					return false
				}
			}
		}
	}
	for _, rf := range refs {
		for i, rec := range rf.c.records {
			ids := stringList(rec[rf.field.Name])
			kept := ids[:0]
			for _, v := range ids {
				if v != id {
					kept = append(kept, v)
				}
			}
			if len(kept) == len(ids) {
				continue
			}
			if rf.field.CascadeDelete {
				rf.c.records[i] = nil
				continue
			}
			if rf.field.single() {
				rec[rf.field.Name] = ""
			} else {
				rec[rf.field.Name] = kept
			}
		}
		live := rf.c.records[:0]
		for _, rec := range rf.c.records {
			if rec != nil {
				live = append(live, rec)
			}
		}
		rf.c.records = live
	}
	return true
}

func (s *Server) dropFilesLocked(c *collection, rec record) {
	for _, f := range c.def.Fields {
		if f.Type != "file" {
			continue
		}
		for _, name := range stringList(rec[f.Name]) {
			delete(s.files, fileKey(c.def.ID, rec["id"].(string), name))
		}
	}
}

func (s *Server) buildLocked(c *collection, existing record, fields map[string]any, uploads map[string][]upload) *mutation {
	m := &mutation{rec: record{}, errs: map[string]fieldError{}, put: map[string][]byte{}}
	ts := s.timestamp()

	if existing != nil {
		for k, v := range existing {
			m.rec[k] = v
		}
	} else {
		id, _ := fields["id"].(string)
		if id == "" {
			id = randomID(15)
		}
		if _, taken := s.recordLocked(c, id); taken != nil {
			m.errs["id"] = fieldError{"validation_invalid_id", "The model id is invalid or already exists."}
		}
		m.rec["id"] = id
		m.rec["created"] = ts
	}
	m.rec["updated"] = ts
	id := m.rec["id"].(string)

	for _, f := range c.def.Fields {
		if f.Type == "file" {
			s.applyFile(c, f, id, fields, uploads[f.Name], m)
			continue
		}
		v, provided := fields[f.Name]
		if !provided {
			if existing != nil {
				continue
			}
			v = nil
		}
		nv, fe := normalize(f, v, s.existsLocked)
		if fe != nil {
			m.errs[f.Name] = *fe
			continue
		}
		m.rec[f.Name] = nv
	}

	for _, cols := range c.def.uniqueColumns() {
		for _, other := range c.records {
			if other["id"] == id {
				continue
			}
			same := true
			for _, col := range cols {
				if toString(other[col]) != toString(m.rec[col]) {
					same = false
					break
				}
			}
			if same && len(cols) > 0 {
				m.errs[cols[0]] = fieldError{"validation_not_unique", "Value must be unique."}
			}
		}
	}

	if len(m.errs) == 0 {
		m.errs = nil
	}
	return m
}

func (s *Server) applyFile(c *collection, f fieldDef, recordID string, fields map[string]any, ups []upload, m *mutation) {
	current := stringList(m.rec[f.Name])
	if v, ok := fields[f.Name]; ok {
		keep := stringList(v)
		for _, name := range current {
			if !contains(keep, name) {
				m.drop = append(m.drop, name)
			}
		}
		current = intersect(current, keep)
	}

	for _, u := range ups {
		if fe := validateFile(f, u); fe != nil {
			m.errs[f.Name] = *fe
			return
		}
		name := storedFileName(u.name)
		m.put[name] = u.data
		if f.single() {
			m.drop = append(m.drop, current...)
			current = []string{name}
		} else {
			current = append(current, name)
		}
	}

	if f.Required && len(current) == 0 {
		m.errs[f.Name] = fieldError{"validation_required", "Cannot be blank."}
		return
	}
	if f.single() {
		if len(current) == 0 {
			m.rec[f.Name] = ""
		} else {
			m.rec[f.Name] = current[0]
		}
		return
	}
	m.rec[f.Name] = current
}

func (s *Server) commitLocked(c *collection, m *mutation) {
	id := m.rec["id"].(string)
	if idx, _ := s.recordLocked(c, id); idx >= 0 {
		c.records[idx] = m.rec
	} else {
		c.records = append(c.records, m.rec)
	}
	for _, name := range m.drop {
		delete(s.files, fileKey(c.def.ID, id, name))
	}
	for name, data := range m.put {
		s.files[fileKey(c.def.ID, id, name)] = data
	}
}

// decodeRecordBody reads a JSON or multipart record payload.
func decodeRecordBody(r *http.Request, c *collection) (map[string]any, map[string][]upload, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "multipart/form-data" {
		fields := map[string]any{}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, nil, err
		}
		if len(body) == 0 {
			return fields, nil, nil
		}
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, nil, err
		}
		return fields, nil, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, nil, err
	}
	fields := map[string]any{}
	for k, vals := range r.MultipartForm.Value {
		if k == "@jsonPayload" {
			for _, v := range vals {
				if err := json.Unmarshal([]byte(v), &fields); err != nil {
					return nil, nil, err
				}
			}
			continue
		}
		f, _ := c.def.field(k)
		var v any = vals[0]
		if len(vals) > 1 {
			list := make([]any, len(vals))
			for i, s := range vals {
				list[i] = s
			}
			v = list
		}
		if f.Type == "json" {
			var parsed any
			if json.Unmarshal([]byte(vals[0]), &parsed) == nil {
				v = parsed
			}
		}
		fields[k] = v
	}

	uploads := map[string][]upload{}
	for k, headers := range r.MultipartForm.File {
		for _, h := range headers {
			fh, err := h.Open()
			if err != nil {
				return nil, nil, err
			}
			data, err := io.ReadAll(fh)
			fh.Close()
			if err != nil {
				return nil, nil, err
			}
			uploads[k] = append(uploads[k], upload{name: h.Filename, data: data})
		}
	}
	return fields, uploads, nil
}

var unsafeName = regexp.MustCompile(`[^a-z0-9_]+`)

// storedFileName mimics the store's naming: snake-cased base name, a random
// suffix, lower-cased extension.
func storedFileName(original string) string {
	ext := strings.ToLower(path.Ext(original))
	base := strings.ToLower(strings.TrimSuffix(path.Base(original), path.Ext(original)))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "file"
	}
	return base + "_" + randomID(10) + ext
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c := s.findLocked(r.PathValue("collection"))
	var (
		data []byte
		ok   bool
	)
	if c != nil {
		data, ok = s.files[fileKey(c.def.ID, r.PathValue("id"), r.PathValue("filename"))]
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func intersect(a, b []string) []string {
	out := []string{}
	for _, v := range a {
		if contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}
