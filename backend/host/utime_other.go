//go:build windows || plan9 || js

package host

import (
	"os"
	"time"
)

// chtimes falls back to os.Chtimes on platforms without the unix
// syscall package, mirroring backend/local's lchtimes.go no-op split.
func chtimes(name string, mtime time.Time) error {
	return os.Chtimes(name, mtime, mtime)
}
