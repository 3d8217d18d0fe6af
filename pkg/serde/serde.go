// Package serde holds the codecs that turn cached values into the strings
// stored by a host store.
package serde

import (
	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"
)

var ErrDecode = errors.New("decode failed")

// Codec encodes structured values to strings and back.
type Codec interface {
	Encode(v any) (string, error)
	Decode(data string, out any) error
}

type jsonCodec struct{}

// JSON is the default codec.
var JSON Codec = jsonCodec{}

func (jsonCodec) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "json encode")
	}
	return string(b), nil
}

// Decode reports every failure, including a nil or non-pointer out, as ErrDecode.
func (jsonCodec) Decode(data string, out any) error {
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return errors.Mark(errors.Wrap(err, "json decode"), ErrDecode)
	}
	return nil
}
