package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// Attribute helpers use the empty Attr pattern for nil safety.
// A call like log.Info("msg", logger.Error(err)) needs no nil check.

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// ============================================================================
// Error Handling
// ============================================================================

// Errors groups multiple non-nil errors under the key "errors".
// Uses index-based keys to preserve error order. Returns empty Attr for all nil errors.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// ============================================================================
// Network and HTTP
// ============================================================================

// Method creates an attribute for HTTP methods.
func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// Path creates an attribute for URL paths.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// StatusCode creates an attribute for HTTP status codes.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// ============================================================================
// Context isolation
// ============================================================================

// Identifier creates an attribute for a namespace identifier.
// Returns empty Attr for an empty identifier.
func Identifier(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("identifier", id)
}

// Identifiers creates an attribute listing several namespace identifiers.
func Identifiers(ids []string) slog.Attr {
	if len(ids) == 0 {
		return slog.Attr{}
	}
	return slog.String("identifiers", strings.Join(ids, ","))
}

// Label creates an attribute for the label a namespace is stored under.
func Label(label string) slog.Attr {
	return slog.String("label", label)
}

// ============================================================================
// Generic Metadata
// ============================================================================

// Component creates an attribute for component names.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Count creates a generic counter attribute.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}
