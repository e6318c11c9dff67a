package dataset

import "fmt"

// ManifestError reports a manifest file that is missing, unreadable or
// malformed. It is returned at construction time and is fatal to the
// whole data-loading session.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// MissingFileError reports an image or mask path that does not exist on
// the filesystem at access time. Existence is checked per access, never
// at construction.
type MissingFileError struct {
	Kind string // "image" or "mask"
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("the %s file %s does not exist", e.Kind, e.Path)
}

// DecodeError reports an image or mask file that exists but could not
// be decoded (corrupt file, unsupported format).
type DecodeError struct {
	Kind string
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s file %s: %v", e.Kind, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
