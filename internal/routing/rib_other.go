//go:build !darwin

package routing

// FetchRIB is only implemented on Darwin.
func FetchRIB() ([]byte, error) {
	return nil, ErrUnsupported
}
