package manifest

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMissingMetadata is returned for meta-data keys the application does not declare.
var ErrMissingMetadata = errors.New("missing application meta-data")

// Metadata maps application <meta-data> names to their values.
type Metadata map[string]string

// String ...
func (md Metadata) String(key string) (string, error) {
	if md == nil {
		return "", fmt.Errorf("%w: no meta-data loaded", ErrMissingMetadata)
	}
	value, ok := md[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingMetadata, key)
	}
	return value, nil
}

// Bool reads a boolean meta-data value. An undeclared key reads as false.
func (md Metadata) Bool(key string) (bool, error) {
	if md == nil {
		return false, fmt.Errorf("%w: no meta-data loaded", ErrMissingMetadata)
	}
	value, ok := md[key]
	if !ok || value == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean meta-data %s (%s): %w", key, value, err)
	}
	return b, nil
}
