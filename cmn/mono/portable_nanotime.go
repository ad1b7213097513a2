//go:build !mono

package mono

import "time"

var start = time.Now()

// NanoTime is the portable fallback for the linkname'd runtime.nanotime
// used under the "mono" build tag: nanoseconds since package initialization,
// measured with time.Since, which uses the monotonic component time.Now()
// carries on every platform Go supports.
func NanoTime() int64 { return int64(time.Since(start)) }
