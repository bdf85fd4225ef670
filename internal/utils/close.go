package utils

import (
	"io"
)

// maxDrain bounds how much of an unread body is discarded before closing.
const maxDrain = 4096

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}

// DrainClose discards a bounded amount of what is left in rc, then closes it,
// so the underlying connection can be reused.
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxDrain))
	Close(rc)
}
