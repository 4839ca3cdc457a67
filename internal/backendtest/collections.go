package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Seed inserts documents into the collection at base (e.g. "/orders") and
// returns their IDs. Documents without "_id" get one.
func (s *Server) Seed(base string, docs ...map[string]any) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.mustCollection(base)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, c.insert(d))
	}
	return ids
}

// Doc returns a copy of a stored document.
func (s *Server) Doc(base, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, found := s.mustCollection(base).docs[id]
	if !found {
		return nil, false
	}
	return clone(d), true
}

// Count returns how many documents the collection at base holds.
func (s *Server) Count(base string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mustCollection(base).docs)
}

func (s *Server) mustCollection(base string) *collection {
	c, found := s.collections[base]
	if !found {
		panic(fmt.Sprintf("backendtest: unknown collection %q", base))
	}
	return c
}

func (c *collection) insert(d map[string]any) string {
	d = clone(d)
	id, _ := d["_id"].(string)
	if id == "" {
		c.seq++
		id = newID(c.prefix, c.seq)
		d["_id"] = id
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = d
	return id
}

func (c *collection) remove(id string) {
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func clone(d map[string]any) map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func (s *Server) mountCollection(r chi.Router, base, listPath string) {
	r.Get(listPath, s.listDocs(base))
	r.Post(base, s.createDoc(base))
	r.Get(base+"/{id}", s.getDoc(base))
	r.Put(base+"/{id}", s.updateDoc(base, false))
	r.Patch(base+"/{id}", s.updateDoc(base, true))
	r.Delete(base+"/{id}", s.deleteDoc(base))
}

func matches(d map[string]any, search, status string) bool {
	if status != "" && fmt.Sprint(d["status"]) != status {
		return false
	}
	if search == "" {
		return true
	}
	raw, _ := json.Marshal(d)
	return strings.Contains(strings.ToLower(string(raw)), strings.ToLower(search))
}

func (s *Server) listDocs(base string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		entries := atoiDefault(q.Get("entries"), 10)

		s.mu.Lock()
		c := s.mustCollection(base)
		listKey := c.listKey
		var all []map[string]any
		for _, id := range c.order {
			if d := c.docs[id]; matches(d, q.Get("search"), q.Get("status")) {
				all = append(all, clone(d))
			}
		}
		s.mu.Unlock()

		start := (page - 1) * entries
		end := start + entries
		if start > len(all) {
			start = len(all)
		}
		if end > len(all) {
			end = len(all)
		}
		result := all[start:end]
		if result == nil {
			result = []map[string]any{}
		}

		ok(w, http.StatusOK, map[string]any{
			listKey: result,
			"pagination": map[string]any{
				"page":         page,
				"entries":      entries,
				"totalEntries": len(all),
			},
		})
	}
}

func decodeDoc(r *http.Request) (map[string]any, error) {
	var d map[string]any
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Server) createDoc(base string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := decodeDoc(r)
		if err != nil {
			fail(w, http.StatusBadRequest, "invalid body")
			return
		}
		delete(d, "_id")

		s.mu.Lock()
		c := s.mustCollection(base)
		id := c.insert(d)
		out := clone(c.docs[id])
		s.mu.Unlock()

		ok(w, http.StatusCreated, map[string]any{c.itemKey: out})
	}
}

func (s *Server) getDoc(base string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		c := s.mustCollection(base)
		d, found := c.docs[id]
		var payload map[string]any
		if found {
			payload = map[string]any{c.itemKey: clone(d)}
			if base == "/users" {
				s.addUserDetail(payload, id)
			}
		}
		s.mu.Unlock()

		if !found {
			fail(w, http.StatusNotFound, "not found")
			return
		}
		ok(w, http.StatusOK, payload)
	}
}

// addUserDetail moves the stored address out of the user document and adds
// the orders whose userId is id, the way the user detail endpoint answers.
// Callers hold s.mu.
func (s *Server) addUserDetail(payload map[string]any, id string) {
	user := payload["user"].(map[string]any)
	if addr, found := user["address"]; found {
		payload["address"] = addr
		delete(user, "address")
	}
	history := []map[string]any{}
	orders := s.mustCollection("/orders")
	for _, oid := range orders.order {
		if o := orders.docs[oid]; fmt.Sprint(o["userId"]) == id {
			history = append(history, clone(o))
		}
	}
	payload["orderHistory"] = history
}

func (s *Server) updateDoc(base string, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		patch, err := decodeDoc(r)
		if err != nil {
			fail(w, http.StatusBadRequest, "invalid body")
			return
		}

		s.mu.Lock()
		c := s.mustCollection(base)
		d, found := c.docs[id]
		if !found {
			s.mu.Unlock()
			fail(w, http.StatusNotFound, "not found")
			return
		}
		if !partial {
			d = map[string]any{}
		}
		for k, v := range patch {
			d[k] = v
		}
		d["_id"] = id
		c.docs[id] = d
		out := clone(d)
		s.mu.Unlock()

		ok(w, http.StatusOK, map[string]any{c.itemKey: out})
	}
}

func (s *Server) deleteDoc(base string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		c := s.mustCollection(base)
		_, found := c.docs[id]
		if found {
			c.remove(id)
		}
		s.mu.Unlock()

		if !found {
			fail(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "deleted"})
	}
}
