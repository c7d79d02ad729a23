package adaptapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bhatti/adaptapi-go/internal/jsoncodec"
)

// readChunkSize is how much ReadBody asks for between cancellation checks.
const readChunkSize = 32 * 1024

// ReadBody buffers r to EOF and returns the bytes. It checks ctx between reads
// and fails with ErrBodyTooLarge once more than limit bytes arrive. A limit of
// zero or less means DefaultMaxBodyBytes. On error the partial data is
// discarded.
func ReadBody(ctx context.Context, r io.Reader, limit int64) ([]byte, error) {
	if r == nil || r == http.NoBody {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			if int64(buf.Len()+n) > limit {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
			}
			buf.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("adaptapi: read body: %w", err)
		}
	}
}

// DecodeBody parses raw as JSON. An empty body is not JSON and fails with
// ErrEmptyBody.
func DecodeBody(raw []byte) (Data, error) {
	if jsoncodec.IsBlank(raw) {
		return nil, &BodyDecodeError{Err: ErrEmptyBody}
	}
	var d Data
	if err := jsoncodec.Unmarshal(raw, &d); err != nil {
		return nil, &BodyDecodeError{Err: err}
	}
	return d, nil
}

// EncodeBody serializes d as compact JSON.
func EncodeBody(d Data) ([]byte, error) {
	return jsoncodec.Marshal(d)
}

// RewriteBody decodes raw, applies fn and re-encodes the result. Invalid JSON,
// an empty body included, yields a *BodyDecodeError; a failing or panicking fn
// is returned as is when it is already a *TransformError and wrapped in one
// otherwise.
func RewriteBody(raw []byte, fn TransformFunc) ([]byte, error) {
	d, err := DecodeBody(raw)
	if err != nil {
		return nil, err
	}

	out, err := callTransform(fn, d)
	if err != nil {
		var te *TransformError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &TransformError{Err: err}
	}

	encoded, err := EncodeBody(out)
	if err != nil {
		return nil, &TransformError{Err: fmt.Errorf("encode result: %w", err)}
	}
	return encoded, nil
}
