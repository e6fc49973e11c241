package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseBookID(t *testing.T) {
	testCases := []struct {
		input string
		id    uint
		ok    bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.5", 0, false},
		{"", 0, false},
	}
	for _, tc := range testCases {
		id, ok := ParseBookID(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, tc.id, id, tc.input)
	}
}

//nolint:funlen
func TestDecodeBookFieldsRequestBody(t *testing.T) {
	testCases := []struct {
		name        string
		contentType string
		body        string
		fields      BookFields
		err         string
	}{
		{"json all attributes", "application/json", `{"autor":"Orwell","isbn":451,"editorial":"Secker","paginas":328}`,
			BookFields{BookAutor: "Orwell", BookISBN: int64(451), BookEditorial: "Secker", BookPaginas: int64(328)}, ""},
		{"json with charset", "application/json; charset=utf-8", `{"autor":"Orwell"}`, BookFields{BookAutor: "Orwell"}, ""},
		{"json without content type", "", `{"paginas":"328"}`, BookFields{BookPaginas: int64(328)}, ""},
		{"json explicit null", "application/json", `{"editorial":null,"isbn":null}`, BookFields{BookEditorial: nil, BookISBN: nil}, ""},
		{"json numeric autor", "application/json", `{"autor":1984}`, BookFields{BookAutor: "1984"}, ""},
		{"json integral float", "application/json", `{"paginas":328.0}`, BookFields{BookPaginas: int64(328)}, ""},
		{"json unknown attributes", "application/json", `{"id":5,"createdAt":"x","title":"y"}`, BookFields{}, ""},
		{"json empty body", "application/json", ``, BookFields{}, ""},
		{"json fractional paginas", "application/json", `{"paginas":1.5}`, nil, "paginas has an invalid value"},
		{"json object autor", "application/json", `{"autor":{"name":"x"}}`, nil, "autor has an invalid value"},
		{"json not an object", "application/json", `[1,2]`, nil, "invalid book payload"},
		{"json malformed", "application/json", `{"autor"`, nil, "invalid book payload"},
		{"json trailing data", "application/json", `{"autor":"a"} garbage`, nil, "invalid book payload"},
		{"json two objects", "application/json", `{"autor":"a"}{"autor":"b"}`, nil, "invalid book payload"},
		{"json trailing whitespace", "application/json", "{\"autor\":\"a\"}\n ", BookFields{BookAutor: "a"}, ""},
		{"json isbn above int64", "application/json", `{"isbn":9223372036854775808}`, nil, "isbn has an invalid value"},
		{"json isbn below int64", "application/json", `{"isbn":-9223372036854775809}`, nil, "isbn has an invalid value"},
		{"json isbn max int64", "application/json", `{"isbn":9223372036854775807}`, BookFields{BookISBN: int64(9223372036854775807)}, ""},
		{"form isbn above int64", "application/x-www-form-urlencoded", `isbn=9223372036854775808`, nil, "isbn has an invalid value"},
		{"form attributes", "application/x-www-form-urlencoded", `autor=Orwell&isbn=451&paginas=`,
			BookFields{BookAutor: "Orwell", BookISBN: int64(451), BookPaginas: nil}, ""},
		{"form invalid isbn", "application/x-www-form-urlencoded", `isbn=abc`, nil, "isbn has an invalid value"},
		{"other content type", "text/plain", `autor=Orwell`, BookFields{}, ""},
		{"bad content type", "application/", `{}`, nil, "invalid book payload"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/book", strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			fields, err := DecodeBookFieldsRequestBody(httptest.NewRecorder(), req)
			if tc.err != "" {
				assert.EqualError(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.fields, fields)
		})
	}

	t.Run("oversized body", func(t *testing.T) {
		body := `{"autor":"` + strings.Repeat("a", int(MaxRequestBodySize)) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/book", strings.NewReader(body))
		_, err := DecodeBookFieldsRequestBody(httptest.NewRecorder(), req)
		assert.ErrorIs(t, err, ErrInvalidBookPayload)
	})
}

func TestParseIntString(t *testing.T) {
	v, err := parseIntString("-9223372036854775808")
	require.NoError(t, err)
	assert.Equal(t, int64(-9223372036854775808), v)

	v, err = parseIntString("9.2e18")
	require.NoError(t, err)
	assert.Equal(t, int64(9200000000000000000), v)

	for _, input := range []string{"9223372036854775808", "9.3e18", "-9.3e18", "1e19"} {
		_, err = parseIntString(input)
		assert.ErrorIs(t, err, ErrInvalidBookPayload, input)
	}
}

func TestBookFieldsApply(t *testing.T) {
	book := orwellBook()
	BookFields{BookAutor: "Blair", BookEditorial: nil, "title": "ignored"}.Apply(&book)
	assert.Equal(t, "Blair", *book.Autor)
	assert.Nil(t, book.Editorial)
	assert.Equal(t, int64(451), *book.ISBN)
}

func TestGetRequestSourceIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	assert.Equal(t, "10.0.0.1", GetRequestSourceIP(req))

	req.Header.Set("X-FORWARDED-FOR", "bad, 10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetRequestSourceIP(req))

	req.Header.Set("X-REAL-IP", "10.0.0.3")
	assert.Equal(t, "10.0.0.3", GetRequestSourceIP(req))
}

func TestIDsHandler(t *testing.T) {
	id := NewIDsHandler().Generate(RequestIDPrefix)
	assert.True(t, strings.HasPrefix(id, "r:"))
	assert.Len(t, id, len("r:")+36)
	assert.NotEqual(t, id, NewIDsHandler().Generate(RequestIDPrefix))
}

func TestCreateLogFilePath(t *testing.T) {
	ts := time.Date(2023, 7, 2, 13, 4, 5, 0, time.UTC)
	assert.Equal(t, filepath.Join("logs", "20230702.130405.prod.log"), CreateLogFilePath("logs", true, ts))
	assert.Equal(t, filepath.Join("logs", "20230702.130405.dev.log"), CreateLogFilePath("logs", false, ts))
}

func TestRSyncWriteAndLogging(t *testing.T) {
	folder := t.TempDir()
	config := &Config{IsProduction: true, LogFolder: folder, LogMaxSize: 1}
	clock := NewMockClocker()
	w := NewRSyncWriter(config, clock)
	defer w.Close()

	logger, flush := SetupLogging(config, w, NewTickClock(clock))
	logger.Info("book created", zap.Uint("book.id", 1))
	require.NoError(t, flush())

	data, err := os.ReadFile(CreateLogFilePath(folder, true, clock.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"book created"`)
	assert.Contains(t, string(data), `"book.id":1`)
	assert.Contains(t, string(data), `"ts":"2023-07-02T00:00:00.000Z"`)

	_, err = w.Write(make([]byte, 2*megabyte))
	assert.Error(t, err)
}
