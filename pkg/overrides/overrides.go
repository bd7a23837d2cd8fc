// Package overrides layers configuration values the way every Finalize/Merge
// pair in the service does: built-in defaults first, then a file overlay, then
// environment variables. Empty environment variable names are skipped, so a
// nil-safe Env struct can leave any field unmapped.
package overrides

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default sets *dst to value when *dst is the zero value.
func Default[T comparable](dst *T, value T) {
	var zero T
	if *dst == zero {
		*dst = value
	}
}

// Overlay sets *dst to value when value is not the zero value.
func Overlay[T comparable](dst *T, value T) {
	var zero T
	if value != zero {
		*dst = value
	}
}

// OverlaySlice sets *dst to value when value is non-nil. An explicitly empty
// overlay list clears the base list.
func OverlaySlice[T any](dst *[]T, value []T) {
	if value != nil {
		*dst = value
	}
}

func lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v := os.Getenv(name)
	return v, v != ""
}

// Env sets *dst from the named environment variable when it is set.
func Env(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

// EnvInt sets *dst from the named environment variable when it holds an integer.
func EnvInt(dst *int, name string) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// EnvBool sets *dst from the named environment variable when it holds a boolean.
func EnvBool(dst *bool, name string) {
	if v, ok := lookup(name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// EnvList sets *dst from a comma-separated environment variable, dropping
// blank entries.
func EnvList(dst *[]string, name string) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	items := make([]string, 0, strings.Count(v, ",")+1)
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

// Duration parses value as a positive duration, naming the field in the error.
func Duration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", field)
	}
	return d, nil
}

// MustDuration returns value as a duration, or zero when it does not parse.
// Use it only on fields Duration has already validated.
func MustDuration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
