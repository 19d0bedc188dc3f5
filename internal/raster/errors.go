package raster

import "fmt"

// MalformedRasterError reports structural defects in the input imagery,
// such as bands with mismatched dimensions or a truncated read.
type MalformedRasterError struct {
	Path   string
	Detail string
}

func (e *MalformedRasterError) Error() string {
	return fmt.Sprintf("malformed raster %q: %s", e.Path, e.Detail)
}

// MissingGeoreferenceError reports an absent or unusable spatial
// reference: no geotransform, a degenerate geotransform, or no CRS.
type MissingGeoreferenceError struct {
	Path   string
	Detail string
}

func (e *MissingGeoreferenceError) Error() string {
	return fmt.Sprintf("missing georeference in %q: %s", e.Path, e.Detail)
}

// UnsupportedFormatError reports that the raster encoding could not be
// recognized by any registered driver.
type UnsupportedFormatError struct {
	Path string
	Err  error
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported raster format %q: %v", e.Path, e.Err)
}

func (e *UnsupportedFormatError) Unwrap() error { return e.Err }
