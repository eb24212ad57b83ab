// Package xhstest provides a scripted stand-in for the xiaohongshu web API.
package xhstest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// Response is one scripted reply
type Response struct {
	Status  int
	Success bool
	Msg     string
	Code    int
	Data    interface{}
	// Raw is written as is, bypassing the envelope
	Raw         string
	ContentType string
	Delay       time.Duration
}

// OK wraps data in a successful envelope
func OK(data interface{}) Response {
	return Response{Status: http.StatusOK, Success: true, Data: data}
}

// Fail is a 200 response whose envelope reports success=false
func Fail(code int, msg string) Response {
	return Response{Status: http.StatusOK, Success: false, Code: code, Msg: msg}
}

// Status is an empty response with the given HTTP status
func Status(code int) Response {
	return Response{Status: code, Raw: http.StatusText(code)}
}

// Raw is a 200 response with a literal body
func Raw(body, contentType string) Response {
	return Response{Status: http.StatusOK, Raw: body, ContentType: contentType}
}

// Recorded is a request the server received
type Recorded struct {
	Method   string
	Path     string
	Query    url.Values
	RawQuery string
	Header   http.Header
	Body     map[string]interface{}
}

// Server replays scripted responses per path. Each request consumes the next
// response for its path; the last one repeats once the script runs out.
type Server struct {
	server       *httptest.Server
	mu           sync.Mutex
	scripts      map[string][]Response
	served       map[string]int
	requests     []Recorded
	requestCount int32
}

// NewServer starts a server; call Close when done
func NewServer() *Server {
	s := &Server{
		scripts: make(map[string][]Response),
		served:  make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the base URL of the server
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down
func (s *Server) Close() {
	s.server.Close()
}

// Script queues responses for path
func (s *Server) Script(path string, responses ...Response) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[path] = append(s.scripts[path], responses...)
	return s
}

// Requests returns the requests received for path, in order
func (s *Server) Requests(path string) []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Recorded
	for _, r := range s.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Calls returns how many requests hit path
func (s *Server) Calls(path string) int {
	return len(s.Requests(path))
}

// RequestCount returns the number of requests across all paths
func (s *Server) RequestCount() int {
	return int(atomic.LoadInt32(&s.requestCount))
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)

	rec := Recorded{
		Method:   r.Method,
		Path:     r.URL.Path,
		Query:    r.URL.Query(),
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
	}
	if r.Body != nil {
		if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	script := s.scripts[r.URL.Path]
	n := s.served[r.URL.Path]
	s.served[r.URL.Path] = n + 1
	s.mu.Unlock()

	if len(script) == 0 {
		http.Error(w, "no scripted response for "+r.URL.Path, http.StatusNotFound)
		return
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	s.write(w, script[n])
}

func (s *Server) write(w http.ResponseWriter, resp Response) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	if resp.Raw != "" || status != http.StatusOK {
		ct := resp.ContentType
		if ct == "" {
			ct = "text/plain; charset=utf-8"
		}
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp.Raw)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": resp.Success,
		"msg":     resp.Msg,
		"code":    resp.Code,
		"data":    resp.Data,
	})
}
