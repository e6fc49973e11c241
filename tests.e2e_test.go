package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestServer runs the full api over a fresh database file.
func newTestServer(t *testing.T, mirror BookMirror, queue Queuer) *httptest.Server {
	t.Helper()
	config := newTestSQLiteConfig(t)
	config.OpsEndpointsEnable = true
	clock := NewMockClocker()
	db, err := GetSQLiteClient(config, zap.NewNop(), clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseSQLiteClient(db) })

	bs := NewBookService(zap.NewNop(), config, NewSQLiteBookStorage(zap.NewNop(), db), queue)
	api := NewAPIHandler(zap.NewNop(), config, &Statistics{started: clock.Now()}, clock, NewIDsHandler(), bs, mirror)
	srv := httptest.NewServer(NewHTTPHandler(api, config.Server.RequestTimeout))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, contentType, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(data)
}

//nolint:funlen
func TestBooksAPI_EndToEnd(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	const jsonType = "application/json"

	t.Run("empty store lists nothing", func(t *testing.T) {
		status, body := doRequest(t, http.MethodGet, srv.URL+"/book", "", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `[]`, body)
	})

	t.Run("create then read back", func(t *testing.T) {
		status, body := doRequest(t, http.MethodPost, srv.URL+"/book", jsonType,
			`{"autor":"Orwell","isbn":451,"editorial":"Secker","paginas":328}`)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, orwellJSON, body)

		status, body = doRequest(t, http.MethodGet, srv.URL+"/book/1", "", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, orwellJSON, body)
	})

	t.Run("create from form", func(t *testing.T) {
		form := url.Values{"autor": {"Huxley"}, "paginas": {"311"}}
		status, body := doRequest(t, http.MethodPost, srv.URL+"/book", "application/x-www-form-urlencoded", form.Encode())
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"id":2,"autor":"Huxley","isbn":null,"editorial":null,"paginas":311,`+
			`"createdAt":"2023-07-02T00:00:00Z","updatedAt":"2023-07-02T00:00:00Z"}`, body)
	})

	t.Run("list in store order", func(t *testing.T) {
		status, body := doRequest(t, http.MethodGet, srv.URL+"/book", "", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Less(t, strings.Index(body, `"id":1`), strings.Index(body, `"id":2`))
	})

	t.Run("partial update keeps other attributes", func(t *testing.T) {
		status, body := doRequest(t, http.MethodPut, srv.URL+"/book/1", jsonType, `{"paginas":300}`)
		assert.Equal(t, http.StatusOK, status)
		expected := strings.Replace(orwellJSON, `"paginas":328`, `"paginas":300`, 1)
		assert.JSONEq(t, expected, body)

		_, body = doRequest(t, http.MethodGet, srv.URL+"/book/1", "", "")
		assert.JSONEq(t, expected, body)
	})

	t.Run("invalid payload is rejected", func(t *testing.T) {
		status, body := doRequest(t, http.MethodPut, srv.URL+"/book/1", jsonType, `{"isbn":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"message":"isbn has an invalid value"}`, body)
	})

	t.Run("out of range isbn is rejected", func(t *testing.T) {
		status, body := doRequest(t, http.MethodPut, srv.URL+"/book/1", jsonType, `{"isbn":9223372036854775808}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"message":"isbn has an invalid value"}`, body)

		_, body = doRequest(t, http.MethodGet, srv.URL+"/book/1", "", "")
		assert.Contains(t, body, `"isbn":451`)
	})

	t.Run("trailing data is rejected", func(t *testing.T) {
		status, body := doRequest(t, http.MethodPost, srv.URL+"/book", jsonType, `{"autor":"a"} garbage`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"message":"invalid book payload"}`, body)
	})

	t.Run("update missing book", func(t *testing.T) {
		status, body := doRequest(t, http.MethodPut, srv.URL+"/book/99", jsonType, `{"paginas":1}`)
		assert.Equal(t, http.StatusNotFound, status)
		assert.JSONEq(t, `{"message":"Book not found"}`, body)

		_, body = doRequest(t, http.MethodGet, srv.URL+"/book/99", "", "")
		assert.JSONEq(t, `null`, body)
	})

	t.Run("delete then read", func(t *testing.T) {
		status, body := doRequest(t, http.MethodDelete, srv.URL+"/book/2", "", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"message":"Book deleted"}`, body)

		status, body = doRequest(t, http.MethodGet, srv.URL+"/book/2", "", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `null`, body)

		status, body = doRequest(t, http.MethodDelete, srv.URL+"/book/2", "", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.JSONEq(t, `{"message":"Book not found"}`, body)
	})

	t.Run("stats count the requests", func(t *testing.T) {
		status, body := doRequest(t, http.MethodGet, srv.URL+"/ops/stats", "", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"404":`)
	})
}

// TestBooksAPI_Replication ensures changes reach the mirror through the queue.
func TestBooksAPI_Replication(t *testing.T) {
	events := make(chan queued, 16)
	queue := &MockQueuer{
		PushFunc: func(ctx context.Context, qid string, book Book) error {
			events <- queued{qid: qid, book: book}
			return nil
		},
		PopFunc: func(ctx context.Context, qids ...string) (string, Book, error) {
			select {
			case e := <-events:
				return e.qid, e.book, nil
			case <-ctx.Done():
				return "", Book{}, ctx.Err()
			}
		},
	}
	mirror := NewMockBookMirror()
	srv := newTestServer(t, mirror, queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = NewMirrorConsumer(zap.NewNop(), queue, mirror).Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue)
	}()

	doRequest(t, http.MethodPost, srv.URL+"/book", "application/json", `{"autor":"Orwell"}`)
	doRequest(t, http.MethodPost, srv.URL+"/book", "application/json", `{"autor":"Huxley"}`)
	doRequest(t, http.MethodPut, srv.URL+"/book/1", "application/json", `{"paginas":328}`)
	doRequest(t, http.MethodDelete, srv.URL+"/book/2", "", "")

	require.Eventually(t, func() bool {
		_, body := doRequest(t, http.MethodGet, srv.URL+"/ops/replica/books", "", "")
		return strings.Contains(body, `"paginas":328`) && !strings.Contains(body, "Huxley")
	}, 2*time.Second, 20*time.Millisecond)
}

// TestNewHTTPHandler_ProfilerWithoutTimeout ensures profiling captures are not
// cut by the request timeout.
func TestNewHTTPHandler_ProfilerWithoutTimeout(t *testing.T) {
	api := newTestRouterAPI(&Config{OpsEndpointsEnable: true, ProfilerEndpointsEnable: true})
	handler := NewHTTPHandler(api, time.Nanosecond)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/profile?seconds=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.Bytes())

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/cmdline", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
