package loader

import (
	"errors"
	"fmt"
)

// ErrVerifyMissing is matched by errors.Is for any verification failure,
// whether the script was just fetched or claimed loaded earlier.
var ErrVerifyMissing = errors.New("verification target missing")

// FetchError reports that the fetch primitive failed for a resource.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %q: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// VerifyError reports that a load's verification path did not resolve.
// Loaded distinguishes a resource that claimed loaded from a prior request
// but whose namespace is gone, from a fresh load whose script never
// registered the expected namespace.
type VerifyError struct {
	URL    string
	Path   string
	Loaded bool
}

func (e *VerifyError) Error() string {
	if e.Loaded {
		return fmt.Sprintf("resource %q claims loaded but %q is not present", e.URL, e.Path)
	}
	return fmt.Sprintf("resource %q loaded but did not register %q", e.URL, e.Path)
}

func (e *VerifyError) Unwrap() error { return ErrVerifyMissing }
