//go:build debug

// Package debug provides assertion utilities that compile to no-ops unless
// the binary is built with -tags debug.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"fmt"
	"sync"

	"github.com/aie-pathfinder/router/cmn/nlog"
)

func ON() bool { return true }

func Infof(format string, args ...any) { nlog.InfoDepth(1, fmt.Sprintf(format, args...)) }

func Func(f func()) { f() }

func Assert(cond bool, args ...any) {
	if !cond {
		panic(fmt.Sprintln(append([]any{"assertion failed:"}, args...)...))
	}
}

func AssertFunc(f func() bool, args ...any) { Assert(f(), args...) }

func AssertNoErr(err error) {
	if err != nil {
		panic("assertion failed: " + err.Error())
	}
}

func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic("assertion failed: " + fmt.Sprintf(format, args...))
	}
}

// AssertMutexLocked and AssertRWMutexLocked are best-effort: Go mutexes don't
// expose ownership, so these only catch the trivially-unlocked case.
func AssertMutexLocked(m *sync.Mutex) {
	if m.TryLock() {
		m.Unlock()
		Assert(false, "mutex not locked")
	}
}

func AssertRWMutexLocked(m *sync.RWMutex) {
	if m.TryLock() {
		m.Unlock()
		Assert(false, "rwmutex not locked")
	}
}
