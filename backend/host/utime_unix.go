//go:build !windows && !plan9 && !js

package host

import (
	"time"

	"golang.org/x/sys/unix"
)

// chtimes sets both atime and mtime on name via unix.UtimesNanoAt,
// mirroring backend/local's lchtimes_unix.go rather than os.Chtimes, so
// the call sits directly on golang.org/x/sys/unix.
func chtimes(name string, mtime time.Time) error {
	utimes := [2]unix.Timespec{
		unix.NsecToTimespec(mtime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	return unix.UtimesNanoAt(unix.AT_FDCWD, name, utimes[:], 0)
}
