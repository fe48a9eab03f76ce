package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseError reports an unparseable trace line (spec.md §7): non-fatal, the
// caller is expected to silently skip the line.
type ParseError struct {
	Line  string
	cause error
}

func (e *ParseError) Error() string { return "parse error: " + e.cause.Error() + ": " + e.Line }
func (e *ParseError) Unwrap() error { return e.cause }

func newParseError(line string, format string, args ...any) *ParseError {
	return &ParseError{Line: line, cause: errors.Errorf(format, args...)}
}

// Parse consumes one logical trace line. ok reports whether an Event was
// produced; it is false both for a deliberately-skipped line (blank, or
// starting with '#') and for a malformed line, in which case err holds the
// *ParseError describing why (useful for debug logging — the caller is
// still expected to skip silently, per spec.md §4.10 / §7).
func Parse(raw string) (ev Event, ok bool, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Event{}, false, nil
	}
	fields := strings.Fields(trimmed)
	if len(fields) < 3 { // type, addr, size at minimum
		return Event{}, false, newParseError(raw, "too few fields")
	}

	ev.ThreadID = 1

	kindToken := fields[0]
	if err := applyKind(&ev, kindToken); err != nil {
		return Event{}, false, newParseError(raw, "%s", err.Error())
	}

	idx := 1
	address, err := parseHex(fields[idx])
	if err != nil {
		return Event{}, false, newParseError(raw, "bad address %q: %s", fields[idx], err.Error())
	}
	ev.Address = address
	idx++

	if ev.IsMemcpy || ev.IsMemmove {
		if idx >= len(fields) {
			return Event{}, false, newParseError(raw, "memcpy/memmove requires a source address")
		}
		src, err := parseHex(fields[idx])
		if err != nil {
			return Event{}, false, newParseError(raw, "bad src address %q: %s", fields[idx], err.Error())
		}
		ev.HasSrc = true
		ev.SrcAddress = src
		idx++
	}

	if idx >= len(fields) {
		return Event{}, false, newParseError(raw, "missing size field")
	}
	size, err := strconv.ParseUint(fields[idx], 10, 32)
	if err != nil {
		return Event{}, false, newParseError(raw, "bad size %q: %s", fields[idx], err.Error())
	}
	if size == 0 {
		return Event{}, false, newParseError(raw, "size must be >= 1")
	}
	ev.Size = uint32(size)
	idx++

	for ; idx < len(fields); idx++ {
		tok := fields[idx]
		if tid, matched, err := parseThreadToken(tok); matched {
			if err != nil {
				return Event{}, false, newParseError(raw, "bad thread field %q: %s", tok, err.Error())
			}
			ev.ThreadID = tid
			continue
		}
		file, line, err := parseFileLineToken(tok)
		if err != nil {
			return Event{}, false, newParseError(raw, "bad file:line field %q: %s", tok, err.Error())
		}
		ev.File = file
		ev.Line = line
	}

	return ev, true, nil
}

// applyKind sets the event's flavor flags from the leading type token,
// dispatching on the single ASCII letter (and optional prefetch hint digit)
// of spec.md §6.1.
func applyKind(ev *Event, token string) error {
	if token == "" {
		return errors.New("empty type token")
	}
	c := token[0]
	switch c {
	case 'L', 'l', 'R', 'r':
		// plain load
	case 'S', 's':
		ev.IsWrite = true
	case 'I', 'i':
		ev.IsICache = true
	case 'P', 'p':
		ev.IsPrefetch = true
		if len(token) > 1 {
			d := token[1]
			if d < '0' || d > '3' || len(token) != 2 {
				return errors.Errorf("invalid prefetch hint in %q", token)
			}
			ev.PrefetchHint = d - '0'
		}
	case 'V':
		ev.IsVector = true
	case 'U':
		ev.IsVector = true
		ev.IsWrite = true
	case 'A':
		ev.IsAtomic = true
	case 'X':
		ev.IsAtomic = true
		ev.IsRMW = true
		ev.IsWrite = true
	case 'C':
		ev.IsAtomic = true
		ev.IsCmpxchg = true
		ev.IsWrite = true
	case 'Z':
		ev.IsMemset = true
		ev.IsWrite = true
	case 'M':
		ev.IsMemcpy = true
	case 'O':
		ev.IsMemmove = true
	default:
		return errors.Errorf("unknown event type %q", token)
	}
	if c != 'P' && c != 'p' && len(token) != 1 {
		return errors.Errorf("unexpected trailing characters in type token %q", token)
	}
	return nil
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, errors.New("empty address")
	}
	return strconv.ParseUint(s, 16, 64)
}

// parseThreadToken recognizes T<tid>/t<tid>. matched is false if tok does
// not begin with T/t at all, in which case it is not a thread field.
func parseThreadToken(tok string) (tid uint32, matched bool, err error) {
	if len(tok) < 2 || (tok[0] != 'T' && tok[0] != 't') {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(tok[1:], 10, 32)
	if err != nil {
		return 0, true, err
	}
	return uint32(v), true, nil
}

// parseFileLineToken splits "file:line"; the line number is the text after
// the last ':' so paths containing ':' (rare, but seen on Windows-style
// traces) still parse.
func parseFileLineToken(tok string) (file string, line uint32, err error) {
	i := strings.LastIndexByte(tok, ':')
	if i < 0 {
		return "", 0, errors.Errorf("missing ':' separator")
	}
	file = tok[:i]
	lineStr := tok[i+1:]
	v, err := strconv.ParseUint(lineStr, 10, 32)
	if err != nil {
		return "", 0, errors.Wrap(err, "bad line number")
	}
	return file, uint32(v), nil
}
