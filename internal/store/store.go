package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrNotFound is returned when a key has no value in the store.
var ErrNotFound = errors.New("store: key not found")

// Reader provides read access to one user's slice of the signal store.
// Values are raw JSON as written by the identity SDK. Every read is
// individually fallible; callers decide what default stands in for a
// missing or malformed value.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// JSON reads key and decodes it into v.
func JSON(ctx context.Context, r Reader, key string, v any) error {
	raw, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	return nil
}

// Values reads key as a JSON array of arbitrary scalars.
func Values(ctx context.Context, r Reader, key string) ([]any, error) {
	var vals []any
	if err := JSON(ctx, r, key, &vals); err != nil {
		return nil, err
	}
	return vals, nil
}

// Strings reads key as a JSON array and coerces every element to a
// string identifier. Numbers are stringified; elements of any other
// type are dropped.
func Strings(ctx context.Context, r Reader, key string) ([]string, error) {
	vals, err := Values(ctx, r, key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := CoerceString(v); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// CoerceString converts a decoded JSON scalar to a string identifier.
// The second return is false for non-scalar values.
func CoerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}
