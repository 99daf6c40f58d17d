package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// responseState tracks the response builder lifecycle.
type responseState uint8

const (
	statePending responseState = iota
	stateSent
)

// Response is a single-assignment response accumulator. Handlers and
// middleware mutate it any number of times while pending; exactly one
// terminal mutator (JSON, Send, HTML, Text, Redirect, End) transitions
// it to sent and captures the final status, header set, and payload.
// Nothing reaches the wire until the dispatch root finalizes it.
//
// Every mutation after the terminal one fails with ErrAlreadySent.
// Terminal mutators report it as their return value; chainable mutators
// record it as a sticky error observable via Err.
//
// A mutex keeps the builder safe when a middleware (e.g. a timeout)
// runs the rest of the chain on another goroutine.
type Response struct {
	header      http.Header
	cookies     []*http.Cookie
	body        []byte
	stickyErr   error
	status      int
	state       responseState
	passthrough bool
	mu          sync.Mutex
}

// NewResponse creates a pending response builder.
func NewResponse() *Response {
	return &Response{header: make(http.Header)}
}

// --- Chainable mutators -------------------------------------------------

// Status sets the response status code.
func (r *Response) Status(code int) *Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectSentLocked() {
		return r
	}
	r.status = code
	return r
}

// Header sets a response header, replacing any existing value.
func (r *Response) Header(name, value string) *Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectSentLocked() {
		return r
	}
	r.header.Set(name, value)
	return r
}

// Headers sets multiple response headers at once.
func (r *Response) Headers(h map[string]string) *Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectSentLocked() {
		return r
	}
	for name, value := range h {
		r.header.Set(name, value)
	}
	return r
}

// Cookie adds a Set-Cookie header for the given name and value.
func (r *Response) Cookie(name, value string, opts ...CookieOption) *Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectSentLocked() {
		return r
	}

	ck := &http.Cookie{Name: name, Value: value, Path: "/"}
	for _, opt := range opts {
		opt(ck)
	}
	r.cookies = append(r.cookies, ck)
	return r
}

// ClearCookie instructs the client to delete a cookie.
func (r *Response) ClearCookie(name string) *Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectSentLocked() {
		return r
	}
	r.cookies = append(r.cookies, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
	return r
}

// Type sets the Content-Type header.
func (r *Response) Type(mime string) *Response {
	return r.Header("Content-Type", mime)
}

// Attachment sets Content-Disposition to attachment, optionally with a
// filename.
func (r *Response) Attachment(filename string) *Response {
	if filename == "" {
		return r.Header("Content-Disposition", "attachment")
	}
	return r.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Vary appends a header name to the Vary header without duplicating an
// already-present token.
func (r *Response) Vary(name string) *Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectSentLocked() {
		return r
	}

	canonical := http.CanonicalHeaderKey(strings.TrimSpace(name))
	if canonical == "" {
		return r
	}

	existing := r.header.Get("Vary")
	if existing == "" {
		r.header.Set("Vary", canonical)
		return r
	}

	for tok := range strings.SplitSeq(existing, ",") {
		if http.CanonicalHeaderKey(strings.TrimSpace(tok)) == canonical {
			return r
		}
	}
	r.header.Set("Vary", existing+", "+canonical)
	return r
}

// --- Terminal mutators --------------------------------------------------

// JSON serializes v and sends it as the response body.
// A serialization failure leaves the response pending.
func (r *Response) JSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode json response: %w", err)
	}
	return r.send(data, "application/json")
}

// Text sends a plain text body.
func (r *Response) Text(s string) error {
	return r.send([]byte(s), "text/plain")
}

// HTML sends an HTML body.
func (r *Response) HTML(s string) error {
	return r.send([]byte(s), "text/html; charset=utf-8")
}

// Send dispatches on the value's type: strings, numbers, and booleans
// become a text/plain body via string coercion; []byte is sent as-is;
// everything else is JSON-serialized.
func (r *Response) Send(v any) error {
	switch data := v.(type) {
	case string:
		return r.Text(data)
	case []byte:
		return r.send(data, "application/octet-stream")
	case bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return r.Text(fmt.Sprint(data))
	default:
		return r.JSON(v)
	}
}

// Redirect sends a redirect to location. The status code defaults to
// 302 Found when not provided.
func (r *Response) Redirect(location string, code ...int) error {
	status := http.StatusFound
	if len(code) > 0 {
		status = code[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateSent {
		r.stickyErr = ErrAlreadySent
		return ErrAlreadySent
	}

	r.header.Set("Location", location)
	r.status = status
	r.state = stateSent
	return nil
}

// End finalizes the response with the accumulated status and headers
// and no additional body.
func (r *Response) End() error {
	return r.send(nil, "")
}

// send captures the payload and transitions to sent. The content type
// is applied only when none was set, so an earlier Type call survives.
func (r *Response) send(body []byte, contentType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateSent {
		r.stickyErr = ErrAlreadySent
		return ErrAlreadySent
	}

	if contentType != "" && r.header.Get("Content-Type") == "" {
		r.header.Set("Content-Type", contentType)
	}
	r.body = body
	r.state = stateSent
	return nil
}

// rejectSentLocked records the sticky error for a chainable mutator
// called after the terminal one. Caller must hold the mutex.
func (r *Response) rejectSentLocked() bool {
	if r.state == stateSent {
		r.stickyErr = ErrAlreadySent
		return true
	}
	return false
}

// --- Introspection ------------------------------------------------------

// Sent reports whether a terminal mutator has run.
func (r *Response) Sent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateSent
}

// Err returns the sticky error recorded by chainable mutators, if any.
func (r *Response) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stickyErr
}

// StatusCode returns the effective status code: the accumulated value,
// or 200 when none was set.
func (r *Response) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Body returns the captured payload.
func (r *Response) Body() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body
}

// HeaderValue returns a single accumulated header value.
func (r *Response) HeaderValue(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Get(name)
}

// HeaderMap returns the accumulated header set. The map is shared;
// callers must treat it as read-only.
func (r *Response) HeaderMap() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header
}

// Cookies returns the accumulated Set-Cookie entries.
func (r *Response) Cookies() []*http.Cookie {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cookies
}

// --- Finalization -------------------------------------------------------

// Passthrough flushes the accumulated headers and cookies to w, marks
// the response sent, and excludes it from finalization. Used by mounted
// http.Handlers and WebSocket upgrades that write to the wire directly.
func (r *Response) Passthrough(w http.ResponseWriter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateSent {
		r.stickyErr = ErrAlreadySent
		return ErrAlreadySent
	}

	for name, values := range r.header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	for _, ck := range r.cookies {
		http.SetCookie(w, ck)
	}

	r.state = stateSent
	r.passthrough = true
	return nil
}

// finalize writes the accumulated response to the wire. A response
// still pending here becomes the deliberate default: accumulated status
// (200 when unset) with an empty body.
func (r *Response) finalize(w http.ResponseWriter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.passthrough {
		return nil
	}

	for name, values := range r.header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	for _, ck := range r.cookies {
		http.SetCookie(w, ck)
	}
	if len(r.body) > 0 {
		w.Header().Set("Content-Length", strconv.Itoa(len(r.body)))
	}

	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(r.body) > 0 {
		if _, err := w.Write(r.body); err != nil {
			return fmt.Errorf("write response body: %w", err)
		}
	}

	r.state = stateSent
	return nil
}

// CookieOption configures a cookie added with Response.Cookie.
type CookieOption func(*http.Cookie)

// CookieMaxAge sets the cookie Max-Age in seconds.
func CookieMaxAge(seconds int) CookieOption {
	return func(c *http.Cookie) { c.MaxAge = seconds }
}

// CookiePath sets the cookie path. Defaults to "/".
func CookiePath(path string) CookieOption {
	return func(c *http.Cookie) { c.Path = path }
}

// CookieDomain sets the cookie domain.
func CookieDomain(domain string) CookieOption {
	return func(c *http.Cookie) { c.Domain = domain }
}

// CookieSecure sets the Secure flag.
func CookieSecure(secure bool) CookieOption {
	return func(c *http.Cookie) { c.Secure = secure }
}

// CookieHTTPOnly sets the HttpOnly flag.
func CookieHTTPOnly(httpOnly bool) CookieOption {
	return func(c *http.Cookie) { c.HttpOnly = httpOnly }
}

// CookieSameSite sets the SameSite attribute.
func CookieSameSite(ss http.SameSite) CookieOption {
	return func(c *http.Cookie) { c.SameSite = ss }
}
