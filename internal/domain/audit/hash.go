// Package audit holds the data-integrity domain model: canonical content
// hashing, field-level diffs and the immutable audit records the
// integrity service appends.
package audit

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/verdantis/peaproc/internal/domain/errors"
)

// CanonicalHash computes the SHA-256 hash of a key-sorted canonical JSON
// serialization of data. Two logically equal documents hash identically
// regardless of map iteration order.
func CanonicalHash(data map[string]interface{}) (string, error) {
	canonical, err := canonicalize(data)
	if err != nil {
		return "", err
	}

	jsonBytes, err := json.Marshal(canonical)
	if err != nil {
		return "", errors.NewInternalError("failed to marshal hash data").WithCause(err)
	}

	hash := sha256.Sum256(jsonBytes)
	return fmt.Sprintf("%x", hash), nil
}

// canonicalize normalizes a value for deterministic serialization:
// maps keep string keys (encoding/json sorts them), nested structures are
// normalized recursively, and numeric types collapse to float64 the way a
// JSON round trip would.
func canonicalize(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case nil, bool, string, float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int32:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, inner := range value {
			norm, err := canonicalize(inner)
			if err != nil {
				return nil, err
			}
			out[k] = norm
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, inner := range value {
			norm, err := canonicalize(inner)
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil
	default:
		// Structs, typed maps and the rest go through a JSON round trip.
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, errors.NewValidationError("UNHASHABLE_VALUE",
				fmt.Sprintf("value of type %T cannot be canonicalized", v)).WithCause(err)
		}
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, errors.NewInternalError("failed to decode canonical form").WithCause(err)
		}
		return decoded, nil
	}
}

// DiffFields computes the field-level differences between two documents,
// ordered by field name.
func DiffFields(oldData, newData map[string]interface{}) ([]FieldChange, error) {
	fields := make(map[string]struct{}, len(oldData)+len(newData))
	for k := range oldData {
		fields[k] = struct{}{}
	}
	for k := range newData {
		fields[k] = struct{}{}
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var changes []FieldChange
	for _, name := range names {
		oldValue, hadOld := oldData[name]
		newValue, hasNew := newData[name]

		switch {
		case !hadOld:
			changes = append(changes, FieldChange{Field: name, Kind: FieldAdded, New: newValue})
		case !hasNew:
			changes = append(changes, FieldChange{Field: name, Kind: FieldRemoved, Old: oldValue})
		default:
			same, err := valuesEqual(oldValue, newValue)
			if err != nil {
				return nil, err
			}
			if !same {
				changes = append(changes, FieldChange{Field: name, Kind: FieldModified, Old: oldValue, New: newValue})
			}
		}
	}

	return changes, nil
}

func valuesEqual(a, b interface{}) (bool, error) {
	normA, err := canonicalize(a)
	if err != nil {
		return false, err
	}
	normB, err := canonicalize(b)
	if err != nil {
		return false, err
	}

	rawA, err := json.Marshal(normA)
	if err != nil {
		return false, errors.NewInternalError("failed to compare values").WithCause(err)
	}
	rawB, err := json.Marshal(normB)
	if err != nil {
		return false, errors.NewInternalError("failed to compare values").WithCause(err)
	}

	return string(rawA) == string(rawB), nil
}
