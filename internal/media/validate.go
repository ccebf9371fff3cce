package media

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
)

// ValidationError reports a media URL rejected before submission.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validator checks media URLs against the supported format whitelist.
type Validator struct {
	supported map[string]bool
	formats   []string
}

// NewValidator creates a validator for the configured format set.
func NewValidator(formats []string) *Validator {
	supported := make(map[string]bool, len(formats))
	list := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimPrefix(f, "."))
		if f == "" || supported[f] {
			continue
		}
		supported[f] = true
		list = append(list, f)
	}
	sort.Strings(list)

	return &Validator{
		supported: supported,
		formats:   list,
	}
}

// Validate reports whether the URL names a supported media format. The
// second return value carries the rejection reason for caller responses.
func (v *Validator) Validate(mediaURL string) (bool, string) {
	ext := FormatFromURL(mediaURL)
	if ext == "" {
		return false, "Could not determine file format"
	}
	if !v.supported[ext] {
		return false, fmt.Sprintf("Unsupported file format: %s. Supported formats: %s",
			ext, strings.Join(v.formats, ", "))
	}
	return true, ""
}

// FormatFromURL extracts the lowercase extension from the URL path,
// ignoring any query string.
func FormatFromURL(mediaURL string) string {
	p := mediaURL
	if u, err := url.Parse(mediaURL); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	return strings.TrimPrefix(ext, ".")
}
