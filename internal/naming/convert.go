package naming

import (
	"strings"

	domainerrors "github.com/tillpoint/tillpoint-server/internal/errors"
)

// Result is the outcome of a single conversion.
type Result struct {
	Value string
	Err   error
}

// OK reports whether the conversion succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Or returns the converted value, or fallback when the conversion failed.
func (r Result) Or(fallback string) string {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}

func lookup(name string, table map[string]string, direction string) Result {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Result{Err: domainerrors.Validation("product name must be a non-empty string")}
	}
	v, ok := table[trimmed]
	if !ok {
		return Result{Err: domainerrors.Mappingf("no %s mapping for product name %q", direction, trimmed)}
	}
	return Result{Value: v}
}

// OldToNew converts a legacy name to its short code.
func OldToNew(name string) Result {
	return lookup(name, oldToNew, "old-to-new")
}

// NewToOld converts a short code back to its legacy name.
func NewToOld(code string) Result {
	return lookup(code, newToOld, "new-to-old")
}

// ConvertOldToNewName returns the short code for a legacy name.
// Blank input is a validation error; an unknown name is a mapping error.
func ConvertOldToNewName(name string) (string, error) {
	r := OldToNew(name)
	return r.Value, r.Err
}

// ConvertNewToOldName returns the legacy name for a short code.
func ConvertNewToOldName(code string) (string, error) {
	r := NewToOld(code)
	return r.Value, r.Err
}

// SafeConvertOldToNewName never fails. It returns the short code, or the
// first fallback when given, or name unchanged.
func SafeConvertOldToNewName(name string, fallback ...string) string {
	return OldToNew(name).Or(fallbackFor(name, fallback))
}

// SafeConvertNewToOldName is the reverse of SafeConvertOldToNewName.
func SafeConvertNewToOldName(code string, fallback ...string) string {
	return NewToOld(code).Or(fallbackFor(code, fallback))
}

func fallbackFor(input string, fallback []string) string {
	if len(fallback) > 0 {
		return fallback[0]
	}
	return input
}

// IsValidOldProductName reports whether name is a legacy name.
func IsValidOldProductName(name string) bool {
	_, ok := oldToNew[strings.TrimSpace(name)]
	return ok
}

// IsValidNewProductName reports whether name is a short code.
func IsValidNewProductName(name string) bool {
	_, ok := newToOld[strings.TrimSpace(name)]
	return ok
}

// IsValidProductName reports whether name is known in either form.
func IsValidProductName(name string) bool {
	return IsValidOldProductName(name) || IsValidNewProductName(name)
}

// ValidateAndNormalizeProductName returns name trimmed if it is known in
// either form.
func ValidateAndNormalizeProductName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", domainerrors.Validation("product name must be a non-empty string")
	}
	if !IsValidProductName(trimmed) {
		return "", domainerrors.Validationf("unknown product name %q", trimmed)
	}
	return trimmed, nil
}

// GetPreferredProductName returns the short-code form of name, accepting
// either form.
func GetPreferredProductName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if IsValidNewProductName(trimmed) {
		return trimmed, nil
	}
	return ConvertOldToNewName(trimmed)
}

// BatchResult is the per-name outcome of a batch conversion.
type BatchResult struct {
	OriginalName  string `json:"original_name"`
	ConvertedName string `json:"converted_name,omitempty"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

// BatchConvertOldToNewNames converts every name independently. A failure is
// recorded on its own result and never affects the others.
func BatchConvertOldToNewNames(names []string) []BatchResult {
	results := make([]BatchResult, len(names))
	for i, name := range names {
		r := OldToNew(name)
		results[i] = BatchResult{OriginalName: name, Success: r.OK()}
		if r.OK() {
			results[i].ConvertedName = r.Value
		} else {
			results[i].Error = r.Err.Error()
		}
	}
	return results
}
