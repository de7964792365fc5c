package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ID is a backend identifier. The API is inconsistent about whether ids are
// sent as numbers or numeric strings, so both decode to the same value.
type ID int64

// ParseID normalizes a number or numeric string into an ID.
func ParseID(v any) (ID, error) {
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	if s, ok := v.(string); ok {
		return parseDecimalID(s)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("parse id %v: %w", v, err)
	}
	return checkID(n, v)
}

// parseDecimalID reads s as base 10, so leading zeros never switch the base.
func parseDecimalID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}
	return checkID(n, s)
}

func checkID(n int64, raw any) (ID, error) {
	if n < 0 {
		return 0, fmt.Errorf("parse id %v: negative", raw)
	}
	return ID(n), nil
}

func (id ID) IsZero() bool {
	return id == 0
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("unmarshal id: %w", err)
	}
	parsed, err := ParseID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
