package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
)

// SetDashboard replaces the dashboard payload.
func (s *Server) SetDashboard(d map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboard = d
}

// Settings returns a copy of the stored site settings.
func (s *Server) Settings() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.settings)
}

func (s *Server) getDashboard(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	d := clone(s.dashboard)
	s.mu.Unlock()
	ok(w, http.StatusOK, d)
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	ok(w, http.StatusOK, map[string]any{"result": s.Settings()})
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDoc(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	for k, v := range d {
		s.settings[k] = v
	}
	out := clone(s.settings)
	s.mu.Unlock()
	ok(w, http.StatusOK, map[string]any{"result": out})
}

func (s *Server) putShippingBulk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Shipping []map[string]any `json:"shipping"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Shipping) == 0 {
		fail(w, http.StatusBadRequest, "shipping is required")
		return
	}

	s.mu.Lock()
	c := s.mustCollection("/logistics/ship-costs")
	out := make([]map[string]any, 0, len(body.Shipping))
	for _, d := range body.Shipping {
		id := c.insert(d)
		out = append(out, clone(c.docs[id]))
	}
	s.mu.Unlock()

	ok(w, http.StatusOK, map[string]any{"result": out})
}

type uploaded struct {
	Name     string `json:"name"`
	Key      string `json:"key"`
	Location string `json:"location"`
}

func (s *Server) uploadSingle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		fail(w, http.StatusBadRequest, "multipart body required")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		fail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer f.Close()
	_, _ = io.Copy(io.Discard, f)

	ok(w, http.StatusOK, map[string]any{"file": stored(hdr.Filename)})
}

func (s *Server) uploadMultiple(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		fail(w, http.StatusBadRequest, "multipart body required")
		return
	}
	hdrs := r.MultipartForm.File["files"]
	if len(hdrs) == 0 {
		fail(w, http.StatusBadRequest, "files are required")
		return
	}
	out := make([]uploaded, 0, len(hdrs))
	for _, h := range hdrs {
		out = append(out, stored(h.Filename))
	}
	ok(w, http.StatusOK, map[string]any{"files": out})
}

func stored(name string) uploaded {
	return uploaded{Name: name, Key: "uploads/" + name, Location: "https://cdn.bindu.test/uploads/" + name}
}
