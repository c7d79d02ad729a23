package adaptapi

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// responseBuffer captures everything the downstream handler writes so the
// body can be downgraded before anything reaches the client.
type responseBuffer struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
	limit       int64
	err         error
}

func newResponseBuffer(limit int64) *responseBuffer {
	return &responseBuffer{
		header: make(http.Header),
		status: http.StatusOK,
		limit:  limit,
	}
}

func (rb *responseBuffer) Header() http.Header {
	return rb.header
}

func (rb *responseBuffer) WriteHeader(status int) {
	if rb.wroteHeader {
		return
	}
	rb.status = status
	rb.wroteHeader = true
}

func (rb *responseBuffer) Write(p []byte) (int, error) {
	if !rb.wroteHeader {
		rb.WriteHeader(http.StatusOK)
	}
	if rb.err != nil {
		return 0, rb.err
	}
	if int64(rb.body.Len()+len(p)) > rb.limit {
		rb.err = fmt.Errorf("%w: response larger than %d bytes", ErrBodyTooLarge, rb.limit)
		return 0, rb.err
	}
	return rb.body.Write(p)
}

// Flush is a no-op; the body is released only after downgrading.
func (rb *responseBuffer) Flush() {}

// isJSON reports whether a Content-Type value denotes JSON. An empty value is
// treated as JSON.
func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// writeBuffered copies the captured headers and status to w with body, fixing
// up the length framing.
func writeBuffered(w http.ResponseWriter, rb *responseBuffer, body []byte) error {
	dst := w.Header()
	for k, vv := range rb.header {
		dst[k] = append([]string(nil), vv...)
	}
	dst.Del("Transfer-Encoding")
	if bodyAllowed(rb.status) {
		dst.Set("Content-Length", strconv.Itoa(len(body)))
	} else {
		dst.Del("Content-Length")
		body = nil
	}
	w.WriteHeader(rb.status)
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
