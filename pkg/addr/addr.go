// Package addr normalizes entity forwarding addresses against a namespace
// base address.
package addr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidAddress reports an address that cannot be interpreted as a URI
// reference, or a base address without a scheme.
var ErrInvalidAddress = errors.New("invalid address")

// Normalize resolves target against baseAddress and returns the canonical
// absolute form. An already absolute target is returned in canonical form
// without consulting the base. A relative target, such as a bare entity
// name, is resolved below the base address; the base is treated as a
// directory, so a missing trailing slash is added before resolution.
//
// Normalize is idempotent: feeding a result back in returns it unchanged.
func Normalize(target, baseAddress string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, target, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	if !strings.HasSuffix(baseAddress, "/") {
		baseAddress += "/"
	}
	base, err := url.Parse(baseAddress)
	if err != nil {
		return "", fmt.Errorf("%w: base %q: %v", ErrInvalidAddress, baseAddress, err)
	}
	if !base.IsAbs() {
		return "", fmt.Errorf("%w: base %q has no scheme", ErrInvalidAddress, baseAddress)
	}

	return base.ResolveReference(ref).String(), nil
}
