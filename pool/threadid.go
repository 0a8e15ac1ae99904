package pool

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID parses the header line of runtime.Stack, e.g.
// "goroutine 37 [running]:", to recover the calling goroutine's id. This
// mirrors internal/parallel's own goroutineID (see its gid.go): Go has no
// public API for this and the retrieval pack carries no goroutine-id
// library with retrievable source, so each package that needs a
// goroutine-scoped identity implements the same small stdlib parse rather
// than reaching across an internal package boundary for an unexported
// helper.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
