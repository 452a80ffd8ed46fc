// Package nlog provides the buffered, leveled logger used across basis
// processes (coordinator, units, launcher): independent of the standard
// "log" package, it timestamps, buffers, and rotates to a per-severity
// file, with an "also to stderr" escape hatch for development.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/basislabs/basis/cmn/mono"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevChar = [...]byte{sevInfo: 'I', sevWarn: 'W', sevErr: 'E'}
var sevText = [...]string{sevInfo: "INFO", sevWarn: "WARNING", sevErr: "ERROR"}

const maxLineSize = 2 * 1024

type nlogger struct {
	mw      sync.Mutex
	buf     bytes.Buffer
	file    *os.File
	last    atomic.Int64
	written atomic.Int64
	oob     atomic.Bool
	erred   atomic.Bool
	sev     severity
}

var (
	nlogs   [3]*nlogger
	logDir  string
	aisrole string // process role: "coordinator", "<unit-name>", "launcher"
	title   string

	toStderr     bool
	alsoToStderr bool

	host, _ = os.Hostname()
	pid     = os.Getpid()
)

func init() {
	for s := sevInfo; s <= sevErr; s++ {
		nlogs[s] = &nlogger{sev: s}
	}
	toStderr = true // until SetLogDirRole is called
}

func (n *nlogger) since(now int64) time.Duration { return time.Duration(now - n.last.Load()) }

// caller must hold n.mw
func (n *nlogger) write(line []byte) {
	n.buf.Write(line)
	if n.buf.Len() < maxLineSize {
		n.oob.Store(true)
		return
	}
	n.doFlush()
}

// caller must hold n.mw
func (n *nlogger) doFlush() {
	if n.file == nil {
		if err := n.open(); err != nil {
			n.erred.Store(true)
			return
		}
	}
	if n.erred.Load() {
		os.Stderr.Write(n.buf.Bytes())
	} else {
		nw, err := n.file.Write(n.buf.Bytes())
		if err != nil {
			n.erred.Store(true)
		}
		n.written.Add(int64(nw))
		n.last.Store(mono.NanoTime())
	}
	n.buf.Reset()
	n.oob.Store(false)

	if n.written.Load() >= MaxSize {
		n.file.Close()
		n.file = nil
	}
}

func (n *nlogger) open() error {
	if logDir == "" {
		return fmt.Errorf("no log directory configured")
	}
	name, link := logfname(sevText[n.sev], time.Now())
	path := filepath.Join(logDir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	linkPath := filepath.Join(logDir, link)
	os.Remove(linkPath)
	os.Symlink(name, linkPath) //nolint:errcheck // best-effort convenience symlink
	n.file = f
	n.written.Store(0)
	s := fmt.Sprintf("host %s, %s for %s/%s\n", host, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if title == "" {
		f.WriteString("Started up at " + time.Now().Format("2006/01/02 15:04:05") + ", " + s)
	} else {
		f.WriteString(title + "\n" + s)
	}
	return nil
}

func logfname(tag string, t time.Time) (name, link string) {
	s := sname()
	name = fmt.Sprintf("%s.%s.%s.%02d%02d-%02d%02d%02d.%d",
		s, host, tag, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), pid)
	return name, s + "." + tag
}

func sname() string {
	if aisrole == "" {
		return "basis"
	}
	return "basis." + aisrole
}

func formatHdr(sev severity, depth int, buf *bytes.Buffer) {
	_, fn, ln, ok := runtime.Caller(3 + depth)
	buf.WriteByte(sevChar[sev])
	buf.WriteByte(' ')
	buf.WriteString(time.Now().Format("15:04:05.000000"))
	buf.WriteByte(' ')
	if !ok {
		return
	}
	if idx := strings.LastIndexByte(fn, filepath.Separator); idx >= 0 {
		fn = fn[idx+1:]
	}
	buf.WriteString(fn)
	buf.WriteByte(':')
	buf.WriteString(strconv.Itoa(ln))
	buf.WriteByte(' ')
}

func sprintf(sev severity, depth int, format string, args ...any) []byte {
	var buf bytes.Buffer
	formatHdr(sev, depth+1, &buf)
	if format == "" {
		fmt.Fprintln(&buf, args...)
	} else {
		fmt.Fprintf(&buf, format, args...)
		if buf.Len() == 0 || buf.Bytes()[buf.Len()-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// main entry point for every Info/Warning/Error call above
func log(sev severity, depth int, format string, args ...any) {
	line := sprintf(sev, depth+1, format, args...)

	if toStderr || alsoToStderr || sev >= sevErr {
		os.Stderr.Write(line)
		if toStderr {
			return
		}
	}

	if sev >= sevWarn {
		werr := nlogs[sevErr]
		werr.mw.Lock()
		werr.write(line)
		werr.mw.Unlock()
	}
	info := nlogs[sevInfo]
	info.mw.Lock()
	info.write(line)
	info.mw.Unlock()
}
