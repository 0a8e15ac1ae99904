package parallel

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the calling goroutine's id by parsing the header
// line of runtime.Stack, e.g. "goroutine 37 [running]:". Go has no public
// API for this and no OS-thread-local storage tied to a goroutine the way
// C++ has thread_local tied to std::thread; this is the standard fallback
// used to approximate a thread-local marker (see DESIGN.md's Open Question
// note on why this is stdlib-only rather than a third-party dependency).
// It is called on the section acquire path and by the profiler's log calls
// (only while profiling is enabled), never on the per-iteration hot path.
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
		// Should be unreachable given runtime.Stack's documented format;
		// fall back to 0 so callers still get deterministic (if
		// over-conservative) non-nesting behaviour instead of crashing.
		return 0
	}
	return id
}
