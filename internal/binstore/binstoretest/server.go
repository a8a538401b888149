// Package binstoretest provides an in-memory stand-in for the remote bin
// store, for package tests. It speaks the same wire protocol as the real
// store: GET /{bin}/latest returns {"record": ...} with an ETag, PUT /{bin}
// replaces the document and honors If-Match.
package binstoretest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/karinderya/go-storefront/internal/binstore"
)

// Bin IDs used by NewClient; one per collection.
const (
	ProductsBin = "bin-products"
	OrdersBin   = "bin-orders"
	TrackingBin = "bin-tracking"
	StatusBin   = "bin-status"
	LogBin      = "bin-log"
)

// Server is the fake store. FailGet/FailPut force 500s per bin to exercise
// degraded paths.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	docs    map[string]json.RawMessage
	revs    map[string]int
	FailGet map[string]bool
	FailPut map[string]bool

	// PutCount counts successful replaces per bin.
	PutCount map[string]int
}

// New starts a fake store with every standard bin holding an empty list.
func New() *Server {
	s := &Server{
		docs:     map[string]json.RawMessage{},
		revs:     map[string]int{},
		FailGet:  map[string]bool{},
		FailPut:  map[string]bool{},
		PutCount: map[string]int{},
	}
	for _, bin := range []string{ProductsBin, OrdersBin, TrackingBin, StatusBin, LogBin} {
		s.docs[bin] = json.RawMessage(`[]`)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// NewClient returns a fake store plus a binstore.Client wired to it with the
// standard collection-to-bin mapping.
func NewClient() (*Server, *binstore.Client) {
	s := New()
	c := binstore.New(s.Server.Client(), s.URL, "test-key", map[binstore.Collection]string{
		binstore.Products:      ProductsBin,
		binstore.Orders:        OrdersBin,
		binstore.OrderTracking: TrackingBin,
		binstore.SystemStatus:  StatusBin,
		binstore.SystemLog:     LogBin,
	})
	return s, c
}

// Seed overwrites a bin's document.
func (s *Server) Seed(bin string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[bin] = raw
	s.revs[bin]++
}

// Doc decodes a bin's current document into out.
func (s *Server) Doc(bin string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[bin]
	if !ok {
		return fmt.Errorf("no such bin %q", bin)
	}
	return json.Unmarshal(doc, out)
}

func (s *Server) etag(bin string) string {
	return fmt.Sprintf(`"rev-%d"`, s.revs[bin])
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Header.Get("X-Master-Key") == "" {
		http.Error(w, `{"message":"missing key"}`, http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		bin := strings.TrimSuffix(strings.Trim(r.URL.Path, "/"), "/latest")
		if s.FailGet[bin] {
			http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
			return
		}
		doc, ok := s.docs[bin]
		if !ok {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", s.etag(bin))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"record":%s}`, doc)

	case http.MethodPut:
		bin := strings.Trim(r.URL.Path, "/")
		if s.FailPut[bin] {
			http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
			return
		}
		if _, ok := s.docs[bin]; !ok {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		if match := r.Header.Get("If-Match"); match != "" && match != s.etag(bin) {
			http.Error(w, `{"message":"precondition failed"}`, http.StatusPreconditionFailed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil || !json.Valid(body) {
			http.Error(w, `{"message":"bad body"}`, http.StatusBadRequest)
			return
		}
		s.docs[bin] = body
		s.revs[bin]++
		s.PutCount[bin]++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"record":%s}`, body)

	default:
		http.Error(w, `{"message":"method not allowed"}`, http.StatusMethodNotAllowed)
	}
}
