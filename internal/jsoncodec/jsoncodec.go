// Package jsoncodec centralizes JSON encoding for request and response bodies.
package jsoncodec

import (
	"bytes"
	"io"

	"github.com/bytedance/sonic"
)

// bodyConfig mirrors sonic.ConfigStd but keeps numbers as json.Number so that
// integers wider than 53 bits survive a decode/encode round trip.
var bodyConfig = sonic.Config{
	EscapeHTML:       true,
	SortMapKeys:      true,
	CompactMarshaler: true,
	CopyString:       true,
	ValidateString:   true,
	UseNumber:        true,
}.Froze()

func Marshal(v any) ([]byte, error) {
	return bodyConfig.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return bodyConfig.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return bodyConfig.Unmarshal(data, v)
}

// IsBlank reports whether data holds nothing but JSON whitespace.
func IsBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}

func Encode(w io.Writer, v any) error {
	enc := bodyConfig.NewEncoder(w)
	return enc.Encode(v)
}

func Decode(r io.Reader, v any) error {
	dec := bodyConfig.NewDecoder(r)
	return dec.Decode(v)
}
