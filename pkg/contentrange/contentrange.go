// Package contentrange builds HTTP Range request values and parses
// Content-Range response headers (see RFC 7233).
package contentrange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrParse            = errors.New("content-range parse error")
	ErrUnsupportedUnit  = errors.New("unsupported unit")
	ErrUnsupportedField = errors.New("unsupported field")
)

// Parse parse content of a Content-Range header.
//
//	Content-Range: bytes 42-1233/1234
//	Content-Range: bytes 42-1233/*
//	Content-Range: bytes */1234
//
// Unknown positions are returned as -1.
func Parse(str string) (first, last, length int64, err error) {
	rng, size, err := split(str)
	if err != nil {
		return -1, -1, -1, err
	}

	length = -1
	if size != "*" {
		length, err = parseInt(size)
		if err != nil {
			return -1, -1, -1, fmt.Errorf("%w: can't parse length: %w", ErrParse, err)
		}
	}

	if rng == "*" {
		if length < 0 {
			return -1, -1, -1, ErrParse
		}
		return -1, -1, length, nil
	}

	lo, hi, ok := strings.Cut(rng, "-")
	if !ok {
		return -1, -1, -1, ErrUnsupportedField
	}
	first, err = parseInt(lo)
	if err != nil {
		return -1, -1, -1, fmt.Errorf("%w: can't parse first: %w", ErrParse, err)
	}
	last, err = parseInt(hi)
	if err != nil {
		return -1, -1, -1, fmt.Errorf("%w: can't parse last: %w", ErrParse, err)
	}
	if last < first || (length >= 0 && last >= length) {
		return -1, -1, -1, ErrParse
	}
	return first, last, length, nil
}

// Length returns only the complete length of a Content-Range header, or -1
// if it is "*". It accepts a malformed range part, such as the
// "bytes 0--1/0" that net/http sends for an empty resource.
func Length(str string) (int64, error) {
	_, size, err := split(str)
	if err != nil {
		return -1, err
	}
	if size == "*" {
		return -1, nil
	}
	n, err := parseInt(size)
	if err != nil {
		return -1, fmt.Errorf("%w: can't parse length: %w", ErrParse, err)
	}
	return n, nil
}

// split separates "bytes <range>/<length>" into its range and length.
func split(str string) (rng, size string, err error) {
	unit, rest, ok := strings.Cut(strings.TrimSpace(str), " ")
	if unit == "" {
		return "", "", ErrParse
	}
	if unit != "bytes" {
		return "", "", ErrUnsupportedUnit
	}
	if !ok {
		return "", "", ErrParse
	}
	rng, size, ok = strings.Cut(strings.TrimLeft(rest, " "), "/")
	if !ok || rng == "" || size == "" {
		return "", "", ErrUnsupportedField
	}
	return rng, size, nil
}

// parseInt accepts plain decimal digits only, without a sign.
func parseInt(s string) (int64, error) {
	n, err := strconv.ParseUint(s, 10, 63)
	return int64(n), err
}
