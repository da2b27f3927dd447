package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

type Format string

const (
	JSON    Format = "json"
	Msgpack Format = "msgpack"
)

var ErrUnknownFormat = errors.New("unknown report format")

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case JSON, "":
		return JSON, nil
	case Msgpack:
		return Msgpack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Encode writes v to w. Msgpack output reuses the json field names so both
// formats carry the same keys.
func Encode(w io.Writer, v any, f Format) error {
	switch f {
	case JSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case Msgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		enc.SetOmitEmpty(true)
		return enc.Encode(v)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func Marshal(v any, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a msgpack or json report into v.
func Decode(r io.Reader, v any, f Format) error {
	switch f {
	case JSON, "":
		return json.NewDecoder(r).Decode(v)
	case Msgpack:
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		return dec.Decode(v)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
