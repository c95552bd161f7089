// Package authoring talks to the stateful 3D authoring service over its
// XML-over-HTTP protocol.
//
// Every call is an HTTP POST of a single XML request element in the
// urn:authoringsystem_v2 namespace to a method path under the service's
// versioned base URL. The service answers 200 for calls it accepted, but a
// 2xx status alone proves nothing: each response carries a returnVal the
// caller must validate against what was requested. Request types own that
// validation in their ReadResponse methods.
//
// The client retries transport failures only. A call the service already
// answered is never repeated, since most methods mutate scene state.
package authoring

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/plmtools/lookconf/pkg/errors"
	"github.com/plmtools/lookconf/pkg/httputil"
)

// Namespace is the XML namespace of all protocol request elements.
const Namespace = "urn:authoringsystem_v2"

// Defaults for Config fields left zero.
const (
	DefaultPort       = 1234
	DefaultAPIVersion = "v2"
	DefaultTimeout    = 10 * time.Second
	DefaultRetries    = 4
)

// Config describes how to reach the authoring service.
type Config struct {
	Host       string
	Port       int
	APIVersion string
	Timeout    time.Duration
	Retries    int

	// BaseURL overrides Host/Port when set (used against test servers).
	BaseURL string
}

// Request is one protocol call: it knows its method path, renders its own
// envelope and validates its own response.
type Request interface {
	// MethodPath is the path below the base URL, e.g. "node/set/visible".
	MethodPath() string
	// Envelope returns the XML-marshalable request element.
	Envelope() any
	// ReadResponse parses and validates the raw response body.
	ReadResponse(data []byte) error
}

// Client executes protocol requests against one authoring service.
type Client struct {
	http    *http.Client
	base    string
	timeout time.Duration
	retries int
}

// NewClient creates a client for the given service. Zero config fields get
// protocol defaults.
func NewClient(cfg Config) *Client {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries == 0 {
		cfg.Retries = DefaultRetries
	}

	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	}
	// The service routes methods below a triple slash after the API version.
	base = strings.TrimRight(base, "/") + "/" + cfg.APIVersion + "///"

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		base:    base,
		timeout: cfg.Timeout,
		retries: cfg.Retries,
	}
}

// BaseURL returns the resolved base URL including the method-path prefix.
func (c *Client) BaseURL() string { return c.base }

// Do executes one request: marshal, POST, validate. Transport failures are
// retried with backoff up to the configured attempt count; protocol
// rejections are returned as-is.
func (c *Client) Do(ctx context.Context, req Request) error {
	body, err := xml.Marshal(req.Envelope())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s request", req.MethodPath())
	}
	payload := append([]byte(xml.Header), body...)

	var raw []byte
	err = httputil.Retry(ctx, c.retries, time.Second, func() error {
		raw, err = c.post(ctx, req.MethodPath(), payload)
		return err
	})
	if err != nil {
		return err
	}

	return req.ReadResponse(raw)
}

func (c *Client) post(ctx context.Context, methodPath string, payload []byte) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.base+methodPath, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build %s request", methodPath)
	}
	httpReq.Header.Set("Content-Type", "application/xml")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &httputil.RetryableError{
			Err: errors.Wrap(errors.ErrCodeConnectionFailed, err, "POST %s", methodPath),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{
			Err: errors.Wrap(errors.ErrCodeConnectionFailed, err, "read %s response", methodPath),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(errors.ErrCodeRemoteRejected, "%s: status %d: %s",
			methodPath, resp.StatusCode, bodySnippet(raw))
	}

	return trimToXML(raw), nil
}

// trimToXML drops anything the service wrote before the first '<'. Some
// service builds prepend BOMs or log noise to otherwise valid responses.
func trimToXML(raw []byte) []byte {
	if i := bytes.IndexByte(raw, '<'); i > 0 {
		return raw[i:]
	}
	return raw
}

// bodySnippet bounds a response body for inclusion in error messages.
func bodySnippet(raw []byte) string {
	const limit = 500
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		s = "(empty body)"
	}
	return s
}
