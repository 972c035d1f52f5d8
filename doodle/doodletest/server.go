// Package doodletest provides an in-process stand-in for the doodle.com API,
// for use in tests.
package doodletest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	RequestToken  = "request-token"
	RequestSecret = "request-secret"
	AccessToken   = "access-token"
	AccessSecret  = "access-secret"
)

// Request is a poll API call as seen by the server.
type Request struct {
	Method        string
	Path          string
	ContentType   string
	Key           string
	Authorization string
	Body          []byte
}

type Server struct {
	*httptest.Server

	mu              sync.Mutex
	requestTokens   int
	accessTokens    int
	requests        []Request
	tokenRequests   []Request
	polls           map[string]string
	keys            map[string]string
	failStatus      int
	rejectHandshake bool
	omitHeaders     bool
}

func NewServer() *Server {
	s := &Server{
		polls: make(map[string]string),
		keys:  make(map[string]string),
	}

	r := chi.NewRouter()
	r.Route("/api1", func(r chi.Router) {
		r.HandleFunc("/oauth/requesttoken", s.handleRequestToken)
		r.HandleFunc("/oauth/accesstoken", s.handleAccessToken)
		r.Post("/polls", s.handleCreatePoll)
		r.Get("/polls/{id}", s.handleGetPoll)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the API root to hand to doodle.WithBaseURL.
func (s *Server) BaseURL() string {
	return s.URL + "/api1"
}

// FailWith makes every poll call answer with status until reset with 0.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// RejectHandshake makes the token endpoints answer 401.
func (s *Server) RejectHandshake(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectHandshake = reject
}

// OmitCreateHeaders makes poll creation answer 201 without the
// Content-Location and X-DoodleKey headers.
func (s *Server) OmitCreateHeaders(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitHeaders = omit
}

// SetPoll registers a poll document served under id. A non-empty key makes
// the poll readable only with that X-DoodleKey.
func (s *Server) SetPoll(id, key, document string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[id] = document
	if key != "" {
		s.keys[id] = key
	}
}

// Handshakes returns how many request and access tokens were issued.
func (s *Server) Handshakes() (requestTokens, accessTokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestTokens, s.accessTokens
}

// TokenRequests returns the request and access token calls, in order.
func (s *Server) TokenRequests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.tokenRequests))
	copy(out, s.tokenRequests)
	return out
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) handleRequestToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenRequests = append(s.tokenRequests, tokenRequest(r))

	if s.rejectHandshake || !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
		http.Error(w, "invalid consumer", http.StatusUnauthorized)
		return
	}
	s.requestTokens++

	w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
	fmt.Fprintf(w, "oauth_token=%s&oauth_token_secret=%s", RequestToken, RequestSecret)
}

func (s *Server) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenRequests = append(s.tokenRequests, tokenRequest(r))

	auth := r.Header.Get("Authorization")
	if s.rejectHandshake || !strings.Contains(auth, `oauth_token="`+RequestToken+`"`) {
		http.Error(w, "invalid request token", http.StatusUnauthorized)
		return
	}
	s.accessTokens++

	w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
	fmt.Fprintf(w, "oauth_token=%s&oauth_token_secret=%s", AccessToken, AccessSecret)
}

func tokenRequest(r *http.Request) Request {
	return Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
	}
}

func (s *Server) record(r *http.Request) (Request, int) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()
	req := Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		ContentType:   r.Header.Get("Content-Type"),
		Key:           r.Header.Get("X-DoodleKey"),
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	}
	s.requests = append(s.requests, req)

	if !strings.Contains(req.Authorization, `oauth_token="`+AccessToken+`"`) {
		return req, http.StatusUnauthorized
	}
	return req, s.failStatus
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	req, status := s.record(r)
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	key := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	// Polls created through the API belong to the session and are readable
	// without their key.
	s.mu.Lock()
	s.polls[id] = string(req.Body)
	omit := s.omitHeaders
	s.mu.Unlock()

	if !omit {
		w.Header().Set("Content-Location", s.BaseURL()+"/polls/"+id)
		w.Header().Set("X-DoodleKey", key)
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	req, status := s.record(r)
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	id := chi.URLParam(r, "id")

	s.mu.Lock()
	doc, ok := s.polls[id]
	key, locked := s.keys[id]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "poll not found", http.StatusNotFound)
		return
	}
	if locked && req.Key != key {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	io.WriteString(w, doc)
}
