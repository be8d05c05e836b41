package client

import (
	"bytes"

	json "github.com/goccy/go-json"

	apperrors "github.com/vanderheijden86/otpdeck/internal/errors"
	"github.com/vanderheijden86/otpdeck/pkg/model"
)

// Shape is the detected layout of a list response.
type Shape int

const (
	ShapeArray    Shape = iota // [ {...}, ... ]
	ShapeEnvelope              // { "<key>": [ {...}, ... ] }
)

func (s Shape) String() string {
	if s == ShapeEnvelope {
		return "envelope"
	}
	return "array"
}

// EnvelopeKeys are the object keys a list may be wrapped under, in lookup
// order.
var EnvelopeKeys = []string{"items", "data", "totps", "codes", "results"}

// Listing is a normalized list response.
type Listing struct {
	Entries []model.TotpEntry
	Shape   Shape
	Key     string // envelope key, empty for ShapeArray
}

// Normalize decodes a list body into ordered entries. A bare array and an
// object wrapping the array under one of EnvelopeKeys are accepted;
// anything else is a transport.bad_shape error.
func Normalize(body []byte) (Listing, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Listing{}, badShape("empty body", nil)
	}

	switch body[0] {
	case '[':
		entries, err := decodeEntries(body)
		if err != nil {
			return Listing{}, err
		}
		return Listing{Entries: entries, Shape: ShapeArray}, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return Listing{}, badShape("malformed object", err)
		}
		for _, key := range EnvelopeKeys {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			raw = bytes.TrimSpace(raw)
			if len(raw) == 0 || raw[0] != '[' {
				return Listing{}, badShape("envelope key "+key+" is not an array", nil)
			}
			entries, err := decodeEntries(raw)
			if err != nil {
				return Listing{}, err
			}
			return Listing{Entries: entries, Shape: ShapeEnvelope, Key: key}, nil
		}
		return Listing{}, badShape("no known envelope key", nil)
	}
	return Listing{}, badShape("unexpected JSON value", nil)
}

func decodeEntries(raw []byte) ([]model.TotpEntry, error) {
	var entries []model.TotpEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, badShape("malformed entries", err)
	}
	if entries == nil {
		entries = []model.TotpEntry{}
	}
	return entries, nil
}

func badShape(why string, cause error) error {
	return apperrors.Wrap(apperrors.CodeTransportBadShape, "unrecognized response shape: "+why, cause)
}
