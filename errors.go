package sndpcm

import (
	"errors"
	"fmt"
	"syscall"
)

// SND_ERROR_INCOMPATIBLE_VERSION is the legacy error code for a protocol mismatch.
// Library specific codes start above the errno range.
const SND_ERROR_INCOMPATIBLE_VERSION = 500000

// ErrIncompatibleVersion is matched by errors.Is when a device speaks an unsupported protocol.
var ErrIncompatibleVersion = errors.New("incompatible protocol version")

// VersionError reports the protocol version of a device the library cannot drive.
type VersionError struct {
	Path    string
	Device  int32
	Library int32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%s: device protocol %d.%d.%d is not compatible with %d.%d.%d", e.Path,
		ProtocolMajor(e.Device), ProtocolMinor(e.Device), ProtocolSubminor(e.Device),
		ProtocolMajor(e.Library), ProtocolMinor(e.Library), ProtocolSubminor(e.Library))
}

// Is makes errors.Is(err, ErrIncompatibleVersion) hold for any *VersionError.
func (e *VersionError) Is(target error) bool {
	return target == ErrIncompatibleVersion
}

// errInvalid builds an argument error. It is detected before any I/O.
func errInvalid(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, syscall.EINVAL)...)
}

// ErrorCode returns the legacy negative error code for err, or 0 for nil.
// OS errors map to their negated errno. Errors without an errno map to -EIO.
func ErrorCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, ErrIncompatibleVersion) {
		return -SND_ERROR_INCOMPATIBLE_VERSION
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return -int(errno)
	}

	return -int(syscall.EIO)
}
