// Package nlog - basis logger, provides buffering, timestamping, writing,
// and flushing/rotating for coordinator, unit, and launcher processes.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"time"

	"github.com/basislabs/basis/cmn/mono"
)

var MaxSize int64 = 4 * 1024 * 1024

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth, "", args...) }
func Infoln(args ...any)                  { log(sevInfo, 0, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, 0, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 0, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func ErrorDepth(depth int, args ...any)   { log(sevErr, depth, "", args...) }
func Errorln(args ...any)                 { log(sevErr, 0, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }

// SetLogDirRole configures the log directory and process role (e.g. "coordinator",
// a unit's name, or "launcher"); until called, all output goes to stderr.
func SetLogDirRole(dir, role string) {
	logDir, aisrole = dir, role
	toStderr = dir == ""
}

func SetTitle(s string) { title = s }

func InfoLogName() string { return sname() + "." + sevText[sevInfo] }
func ErrLogName() string  { return sname() + "." + sevText[sevErr] }

// Flush writes any buffered lines to disk now, regardless of the size threshold.
// Pass exit=true to additionally close the underlying files (process shutdown).
func Flush(exit ...bool) {
	ex := len(exit) > 0 && exit[0]
	for _, n := range nlogs[:sevErr+1] {
		n.mw.Lock()
		if n.buf.Len() > 0 || ex {
			n.doFlush()
		}
		if ex && n.file != nil {
			n.file.Sync()
			n.file.Close()
			n.file = nil
		}
		n.mw.Unlock()
	}
}

// Since returns the longer of the info and error logs' times since their
// last on-disk flush.
func Since() time.Duration {
	now := mono.NanoTime()
	a, b := nlogs[sevInfo].since(now), nlogs[sevErr].since(now)
	if a > b {
		return a
	}
	return b
}

// OOB reports whether either severity has buffered content waiting to be flushed.
func OOB() bool {
	return nlogs[sevInfo].oob.Load() || nlogs[sevErr].oob.Load()
}
