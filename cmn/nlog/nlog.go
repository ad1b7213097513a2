// Package nlog is the router's logger: buffered, timestamped, severity-leveled,
// with optional rotation to a log directory.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

const maxLineSize = 2 * 1024

var sevChar = [...]byte{'I', 'W', 'E'}

type writer struct {
	mu        sync.Mutex
	w         *bufio.Writer
	file      *os.File
	written   int64
	lastFlush time.Time
}

var (
	toStderr     bool
	alsoToStderr bool
	logDir       string
	role         string
	title        string

	infoW = &writer{}
	errW  = &writer{}

	onceInit sync.Once

	// MaxSize is the size, in bytes, past which a log file is rotated.
	MaxSize int64 = 4 * 1024 * 1024
)

func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", false, "log to standard error instead of files")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as files")
}

func SetLogDirRole(dir, r string) { logDir, role = dir, r }
func SetTitle(s string)           { title = s }

func InfoLogName() string { return sname() + ".INFO" }
func ErrLogName() string  { return sname() + ".ERROR" }

func InfoDepth(depth int, args ...any)    { logv(sevInfo, depth+1, "", args...) }
func Infoln(args ...any)                  { logv(sevInfo, 1, "", args...) }
func Infof(format string, args ...any)    { logv(sevInfo, 1, format, args...) }
func Warningln(args ...any)               { logv(sevWarn, 1, "", args...) }
func Warningf(format string, args ...any) { logv(sevWarn, 1, format, args...) }
func ErrorDepth(depth int, args ...any)   { logv(sevErr, depth+1, "", args...) }
func Errorln(args ...any)                 { logv(sevErr, 1, "", args...) }
func Errorf(format string, args ...any)   { logv(sevErr, 1, format, args...) }

func logv(sev severity, depth int, format string, args ...any) {
	onceInit.Do(initFiles)

	line := render(sev, depth+1, format, args...)

	if toStderr || alsoToStderr || sev >= sevWarn {
		os.Stderr.WriteString(line)
	}
	if toStderr {
		return
	}
	infoW.writeLine(line)
	if sev >= sevWarn {
		errW.writeLine(line)
	}
}

func render(sev severity, depth int, format string, args ...any) string {
	var b strings.Builder
	b.WriteByte(sevChar[sev])
	b.WriteByte(' ')
	b.WriteString(time.Now().Format("15:04:05.000000"))
	b.WriteByte(' ')
	if _, fn, ln, ok := runtime.Caller(depth + 1); ok {
		if idx := strings.LastIndexByte(fn, filepath.Separator); idx >= 0 {
			fn = fn[idx+1:]
		}
		b.WriteString(fn)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(ln))
		b.WriteByte(' ')
	}
	if format == "" {
		fmt.Fprintln(&b, args...)
	} else {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	return b.String()
}

func initFiles() {
	if toStderr || logDir == "" {
		return
	}
	infoW.open("INFO")
	errW.open("ERROR")
}

func (w *writer) open(tag string) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		alsoToStderr = true
		return
	}
	name := filepath.Join(logDir, fmt.Sprintf("%s.%s.%d.log", sname(), tag, os.Getpid()))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		alsoToStderr = true
		return
	}
	w.mu.Lock()
	w.file = f
	w.w = bufio.NewWriterSize(f, 32*1024)
	if title != "" {
		w.w.WriteString(title + "\n")
	}
	w.mu.Unlock()
}

func (w *writer) writeLine(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return
	}
	n, _ := w.w.WriteString(line)
	w.written += int64(n)
	if time.Since(w.lastFlush) > time.Second {
		w.w.Flush()
		w.lastFlush = time.Now()
	}
	if w.written >= MaxSize {
		w.rotate()
	}
}

// under w.mu
func (w *writer) rotate() {
	w.w.Flush()
	w.file.Close()
	w.written = 0
	name := w.file.Name()
	rotated := fmt.Sprintf("%s.%s", name, time.Now().Format("20060102-150405"))
	os.Rename(name, rotated)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return
	}
	w.file = f
	w.w = bufio.NewWriterSize(f, 32*1024)
}

func sname() string {
	host, _ := os.Hostname()
	if role == "" {
		return host
	}
	return host + "." + role
}

func Flush(exit ...bool) {
	ex := len(exit) > 0 && exit[0]
	for _, w := range []*writer{infoW, errW} {
		w.mu.Lock()
		if w.w != nil {
			w.w.Flush()
			if ex {
				w.file.Sync()
				w.file.Close()
			}
		}
		w.mu.Unlock()
	}
}
