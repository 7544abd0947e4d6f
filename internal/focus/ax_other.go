//go:build !darwin || !cgo

package focus

// NewSystemAccessibility reports ErrUnsupported off macOS.
func NewSystemAccessibility() (Accessibility, error) {
	return nil, ErrUnsupported
}
