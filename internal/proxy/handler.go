// Package proxy relays browser data requests to the upstream condominium API.
//
// The handler forwards the caller's bearer token and passes the upstream
// status code and JSON body through untouched. Anything that goes wrong on the
// way is logged and reported as a generic 500.
package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"condoPortal/internal/logging"
	"condoPortal/internal/utils"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"
)

// DefaultMaxBodyBytes caps how much of an upstream response is relayed
const DefaultMaxBodyBytes = 10 << 20

// ErrBodyTooLarge is returned for upstream bodies above the relay cap
var ErrBodyTooLarge = errors.New("upstream body exceeds size limit")

// Handler proxies GET requests for one upstream resource
type Handler struct {
	target    string
	transport http.RoundTripper
	timeout   time.Duration
	maxBody   int64
	logger    *logging.Logger
}

// Option configures a Handler
type Option func(*Handler)

// WithTimeout bounds each upstream call; zero means no limit beyond the
// inbound request's context.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithTransport replaces the base transport under the bearer transport
func WithTransport(rt http.RoundTripper) Option {
	return func(h *Handler) { h.transport = rt }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// New builds a handler for baseURL + resource, e.g. "/payments"
func New(baseURL, resource string, opts ...Option) (*Handler, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid upstream url %q: scheme and host are required", baseURL)
	}

	h := &Handler{
		target:    strings.TrimRight(base.String(), "/") + "/" + strings.TrimLeft(resource, "/"),
		transport: http.DefaultTransport,
		maxBody:   DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Target returns the upstream URL the handler forwards to
func (h *Handler) Target() string {
	return h.target
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		utils.UnauthorizedError(w)
		return
	}

	status, body, err := h.forward(r, token)
	if err != nil {
		log := h.logger.ForContext(r.Context()).WithFields(map[string]interface{}{
			"path":     r.URL.Path,
			"upstream": h.target,
		})
		if errors.Is(err, ErrBodyTooLarge) {
			log.WithField("limit_bytes", h.maxBody).Error("Upstream response too large")
		} else {
			log.WithError(err).Error("Upstream request failed")
		}
		utils.InternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func (h *Handler) forward(r *http.Request, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, h.upstreamURL(r), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{
		Timeout: h.timeout,
		Transport: &oauth2.Transport{
			Base:   h.transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("call upstream: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return 0, nil, fmt.Errorf("read upstream body: %w", err)
	}
	if int64(len(body)) > h.maxBody {
		return 0, nil, fmt.Errorf("%w (%d bytes, status %d)", ErrBodyTooLarge, h.maxBody, resp.StatusCode)
	}
	if !json.Valid(body) {
		return 0, nil, fmt.Errorf("upstream returned non-JSON body (status %d)", resp.StatusCode)
	}

	return resp.StatusCode, body, nil
}

// upstreamURL appends the {id} route variable and the inbound query string
func (h *Handler) upstreamURL(r *http.Request) string {
	target := h.target
	if id, ok := mux.Vars(r)["id"]; ok && id != "" {
		target += "/" + url.PathEscape(id)
	}
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}
