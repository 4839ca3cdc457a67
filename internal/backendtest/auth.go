package backendtest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// AddAccount registers a login. role "admin" grants back-office access.
func (s *Server) AddAccount(email, password, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = account{
		password: password,
		user: map[string]any{
			"_id":       "u-" + strconv.Itoa(len(s.accounts)+1),
			"firstName": "Test",
			"lastName":  "Operator",
			"email":     email,
			"role":      role,
		},
	}
}

// IssueTokens mints a valid token pair for email without a login call.
func (s *Server) IssueTokens(email string) (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mintAccess(email), s.mintRefresh(email)
}

// ExpireAccess invalidates every access token issued so far.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = make(map[string]string)
}

// RejectRefresh makes the refresh endpoint answer 401.
func (s *Server) RejectRefresh(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRefresh = reject
}

// RotateRefresh makes each refresh also return a new refresh token.
func (s *Server) RotateRefresh(rotate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotate = rotate
}

// SetRefreshDelay slows the refresh endpoint down so concurrent callers
// overlap.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

// RefreshCalls counts calls to the refresh endpoint.
func (s *Server) RefreshCalls() int {
	return len(s.CallsTo("/auth/regenerate-token"))
}

func (s *Server) mintAccess(email string) string {
	s.accessSeq++
	tok := "A" + strconv.Itoa(s.accessSeq)
	s.access[tok] = email
	return tok
}

func (s *Server) mintRefresh(email string) string {
	s.refreshSeq++
	tok := "R" + strconv.Itoa(s.refreshSeq)
	s.refresh[tok] = email
	return tok
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if tok, found := strings.CutPrefix(h, "Bearer "); found {
		return tok
	}
	return ""
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	acc, found := s.accounts[body.Email]
	if !found || acc.password != body.Password {
		s.mu.Unlock()
		fail(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	access, refresh := s.mintAccess(body.Email), s.mintRefresh(body.Email)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: refresh, Path: "/", HttpOnly: true})
	ok(w, http.StatusOK, map[string]any{
		"userInfo":     acc.user,
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

func (s *Server) regenerate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	tok := body.RefreshToken
	if tok == "" {
		tok = bearer(r)
	}

	s.mu.Lock()
	delay := s.refreshDelay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, valid := s.refresh[tok]
	if s.rejectRefresh || !valid {
		fail(w, http.StatusUnauthorized, "refresh token expired")
		return
	}

	resp := map[string]any{"accessToken": s.mintAccess(email)}
	if s.rotate {
		delete(s.refresh, tok)
		resp["refreshToken"] = s.mintRefresh(email)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		_, valid := s.access[bearer(r)]
		s.mu.Unlock()
		if !valid {
			fail(w, http.StatusUnauthorized, "jwt expired")
			return
		}
		next.ServeHTTP(w, r)
	})
}
