package cascade

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags the outcome of a single candidate request.
type Kind int

const (
	// KindOK means the body was a list, or an object with a "results" list.
	KindOK Kind = iota
	// KindMalformed means the request succeeded but the body had another shape.
	KindMalformed
	// KindTransportError means the request itself failed (network or non-2xx).
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindMalformed:
		return "malformed"
	case KindTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrMalformed is wrapped by every KindMalformed result.
var ErrMalformed = errors.New("unexpected response shape")

// Result is one candidate's outcome.
type Result struct {
	Kind  Kind
	Items []json.RawMessage
	Err   error
}

func OK(items []json.RawMessage) Result {
	if items == nil {
		items = []json.RawMessage{}
	}
	return Result{Kind: KindOK, Items: items}
}

func Malformed(reason string) Result {
	return Result{Kind: KindMalformed, Err: fmt.Errorf("%w: %s", ErrMalformed, reason)}
}

func TransportError(err error) Result {
	return Result{Kind: KindTransportError, Err: err}
}

// Classify turns a transport outcome into a Result. A body is usable when it
// is a JSON array or an object exposing an array under "results".
func Classify(body []byte, err error) Result {
	if err != nil {
		return TransportError(err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Malformed("empty body")
	}

	switch body[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return Malformed("invalid JSON array")
		}
		return OK(items)
	case '{':
		var wrapped struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return Malformed("invalid JSON object")
		}
		results := bytes.TrimSpace(wrapped.Results)
		if len(results) == 0 || results[0] != '[' {
			return Malformed("object without a results list")
		}
		var items []json.RawMessage
		if err := json.Unmarshal(results, &items); err != nil {
			return Malformed("invalid results list")
		}
		return OK(items)
	default:
		return Malformed("body is neither a list nor an object")
	}
}

// Decode unmarshals each item into T. Items that do not decode are skipped so
// one bad record cannot hide the rest of a list.
func Decode[T any](items []json.RawMessage) ([]T, int) {
	out := make([]T, 0, len(items))
	skipped := 0
	for _, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}
