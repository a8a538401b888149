package binstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Collection is the logical name of one whole-document bin in the remote store.
type Collection string

const (
	Products      Collection = "PRODUCTS"
	Orders        Collection = "ORDERS"
	OrderTracking Collection = "ORDER_TRACKING"
	SystemStatus  Collection = "SYSTEM_STATUS"
	SystemLog     Collection = "SYSTEM_LOG"
)

var (
	// ErrCollectionUnknown means no bin ID is configured for the collection.
	ErrCollectionUnknown = errors.New("unknown collection")

	// ErrConflict means a conditional replace lost to a concurrent writer.
	ErrConflict = errors.New("document changed since read")
)

// Doer is the slice of http.Client the store client needs. Tests inject fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads and replaces whole JSON documents in the remote bin store.
// Every call is a live round trip; there is no caching.
type Client struct {
	http     Doer
	endpoint string
	apiKey   string
	bins     map[Collection]string
	defaults map[Collection]json.RawMessage
}

// New returns a Client bound to the given endpoint and per-collection bin IDs.
// All collections start with an empty-list default; callers that own a richer
// default (catalog, availability) register it with RegisterDefault.
func New(httpc Doer, endpoint, apiKey string, bins map[Collection]string) *Client {
	defaults := make(map[Collection]json.RawMessage, len(bins))
	for col := range bins {
		defaults[col] = json.RawMessage(`[]`)
	}
	return &Client{
		http:     httpc,
		endpoint: endpoint,
		apiKey:   apiKey,
		bins:     bins,
		defaults: defaults,
	}
}

// RegisterDefault sets the value Fetch substitutes when a read of col fails.
func (c *Client) RegisterDefault(col Collection, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal default for %s: %w", col, err)
	}
	c.defaults[col] = raw
	return nil
}

// envelope is the store's response wrapper for both reads and writes.
type envelope struct {
	Record json.RawMessage `json:"record"`
}

// Fetch reads the collection into out. On any failure (transport error,
// non-success status, malformed body) it decodes the registered default into
// out and returns nil: reads are idempotent and the storefront must stay
// usable when the store is down. Callers that need to distinguish a real read
// from a fallback use FetchStrict.
func (c *Client) Fetch(ctx context.Context, col Collection, out interface{}) error {
	_, err := c.FetchStrict(ctx, col, out)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCollectionUnknown) {
		return err
	}
	def, ok := c.defaults[col]
	if !ok {
		return err
	}
	logrus.WithFields(logrus.Fields{"collection": col, "error": err}).
		Warn("bin fetch failed, using built-in default")
	if derr := json.Unmarshal(def, out); derr != nil {
		return fmt.Errorf("decode default for %s: %w", col, derr)
	}
	return nil
}

// FetchStrict reads the collection into out and surfaces every failure.
// It returns the document's ETag (empty when the server sends none) for use
// in conditional replaces.
func (c *Client) FetchStrict(ctx context.Context, col Collection, out interface{}) (string, error) {
	bin, ok := c.bins[col]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCollectionUnknown, col)
	}

	url := fmt.Sprintf("%s/%s/latest", c.endpoint, bin)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", col, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: unexpected status %d", col, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("decode %s response: %w", col, err)
	}
	if err := json.Unmarshal(env.Record, out); err != nil {
		return "", fmt.Errorf("decode %s record: %w", col, err)
	}
	return resp.Header.Get("ETag"), nil
}

// Replace overwrites the whole collection document with v. Write failures are
// always surfaced: a caller that queued a state change needs to know it did
// not persist.
func (c *Client) Replace(ctx context.Context, col Collection, v interface{}) error {
	return c.replace(ctx, col, v, "")
}

// replace performs the PUT; when etag is non-empty the write is conditional
// and a 412 maps to ErrConflict.
func (c *Client) replace(ctx context.Context, col Collection, v interface{}, etag string) error {
	bin, ok := c.bins[col]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionUnknown, col)
	}

	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", col, err)
	}

	url := fmt.Sprintf("%s/%s", c.endpoint, bin)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	if etag != "" {
		req.Header.Set("If-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("replace %s: %w", col, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusPreconditionFailed {
		return fmt.Errorf("replace %s: %w", col, ErrConflict)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("replace %s: unexpected status %d", col, resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-Master-Key", c.apiKey)
}
