package manifest

import (
	"fmt"
	"strings"
)

// FieldError describes one missing or invalid manifest field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError aggregates every field error found in one pass.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Message)
	}
	return fmt.Sprintf("%s is invalid: %s", FileName, strings.Join(parts, "; "))
}

type requirement struct {
	key     string
	message string
}

var baseRequirements = []requirement{
	{KeyName, "Package name cannot be empty."},
	{KeyVersion, "Version cannot be empty."},
	{KeyDisplayName, "Display name cannot be empty."},
	{KeyDescription, "Description cannot be empty."},
	{KeyAuthor, "Author cannot be empty."},
}

var assetPackageRequirements = []requirement{
	{KeyDestinationFolder, "Unity package destination folder cannot be empty."},
	{KeyDestinationFolderMetas, "Unity package destination folder metas cannot be empty."},
}

// Validate checks required keys and returns one FieldError per violation,
// in declaration order. An empty result means the manifest is valid.
func Validate(m *Manifest, requireAssetPackageFields bool) []FieldError {
	var errs []FieldError
	if m == nil {
		m = New()
	}

	check := func(reqs []requirement) {
		for _, req := range reqs {
			if strings.TrimSpace(m.Text(req.key)) == "" {
				errs = append(errs, FieldError{Field: req.key, Message: req.message})
			}
		}
	}
	check(baseRequirements)
	if requireAssetPackageFields {
		check(assetPackageRequirements)
	}

	// name and version become output file names.
	for _, key := range []string{KeyName, KeyVersion} {
		if value := m.Text(key); value != "" && strings.ContainsAny(value, `/\`) {
			errs = append(errs, FieldError{Field: key, Message: fmt.Sprintf("%s must not contain path separators.", key)})
		}
	}

	if requireAssetPackageFields && m.Has(KeyDestinationFolderMetas) {
		if _, err := m.StringMap(KeyDestinationFolderMetas); err != nil {
			errs = append(errs, FieldError{Field: KeyDestinationFolderMetas, Message: "Unity package destination folder metas must map folder paths to GUID strings."})
		}
	}
	return errs
}
