package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"mime"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type (
	ContextKey        string
	invalidFieldError string
)

const (
	RequestIDPrefix      string     = "r"
	ContextRequestID     ContextKey = "request.id"
	ContextRequestNumber ContextKey = "request.number"

	MaxRequestBodySize int64 = 1 << 20
)

var ErrInvalidBookPayload = errors.New("invalid book payload")

func (f invalidFieldError) Error() string {
	return string(f) + " has an invalid value"
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(ContextRequestNumber).(uint64); ok {
		return val
	}
	return 0
}

// ParseBookID converts a path parameter into a book id. Anything
// which is not a positive integer cannot match a stored book.
func ParseBookID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// DecodeBookFieldsRequestBody reads the book attributes present in a creation or
// update request. It supports json and url-encoded form bodies. Other content
// types are read as an empty body.
func DecodeBookFieldsRequestBody(w http.ResponseWriter, r *http.Request) (BookFields, error) {
	fields := BookFields{}
	if r.Body == nil || r.Body == http.NoBody {
		return fields, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fields, ErrInvalidBookPayload
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		return decodeBookForm(r, fields)
	case "application/json", "":
		return decodeBookJSON(r.Body, fields)
	default:
		return fields, nil
	}
}

func decodeBookForm(r *http.Request, fields BookFields) (BookFields, error) {
	if err := r.ParseForm(); err != nil {
		return fields, ErrInvalidBookPayload
	}
	for _, column := range []string{BookAutor, BookEditorial} {
		if values, ok := r.PostForm[column]; ok && len(values) > 0 {
			fields[column] = values[0]
		}
	}
	for _, column := range []string{BookISBN, BookPaginas} {
		if values, ok := r.PostForm[column]; ok && len(values) > 0 {
			v, err := parseIntString(values[0])
			if err != nil {
				return fields, invalidFieldError(column)
			}
			fields[column] = v
		}
	}
	return fields, nil
}

func decodeBookJSON(body io.Reader, fields BookFields) (BookFields, error) {
	raw := map[string]json.RawMessage{}
	dec := json.NewDecoder(body)
	err := dec.Decode(&raw)
	if errors.Is(err, io.EOF) {
		return fields, nil
	}
	if err != nil {
		return fields, ErrInvalidBookPayload
	}
	// the body must hold a single json value.
	if _, err = dec.Token(); !errors.Is(err, io.EOF) {
		return fields, ErrInvalidBookPayload
	}

	for _, column := range []string{BookAutor, BookEditorial} {
		if value, ok := raw[column]; ok {
			v, err := textFromJSON(value)
			if err != nil {
				return fields, invalidFieldError(column)
			}
			fields[column] = v
		}
	}
	for _, column := range []string{BookISBN, BookPaginas} {
		if value, ok := raw[column]; ok {
			v, err := intFromJSON(value)
			if err != nil {
				return fields, invalidFieldError(column)
			}
			fields[column] = v
		}
	}
	return fields, nil
}

// textFromJSON accepts strings and stores numbers or booleans as their literal.
func textFromJSON(value json.RawMessage) (interface{}, error) {
	value = bytes.TrimSpace(value)
	switch {
	case bytes.Equal(value, []byte("null")):
		return nil, nil
	case len(value) > 0 && value[0] == '"':
		var s string
		err := json.Unmarshal(value, &s)
		return s, err
	case len(value) > 0 && (value[0] == '{' || value[0] == '['):
		return nil, ErrInvalidBookPayload
	default:
		return string(value), nil
	}
}

// intFromJSON accepts integral numbers and numeric strings.
func intFromJSON(value json.RawMessage) (interface{}, error) {
	value = bytes.TrimSpace(value)
	if bytes.Equal(value, []byte("null")) {
		return nil, nil
	}
	if len(value) > 0 && value[0] == '"' {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, err
		}
		return parseIntString(s)
	}
	var n json.Number
	if err := json.Unmarshal(value, &n); err != nil {
		return nil, err
	}
	return parseIntString(n.String())
}

// parseIntString converts a decimal text into int64. An empty text means null.
func parseIntString(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f >= 1<<63 || f < -1<<63 {
		return nil, ErrInvalidBookPayload
	}
	return int64(f), nil
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	for _, ip := range strings.Split(ips, ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	if net.ParseIP(ip) != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
