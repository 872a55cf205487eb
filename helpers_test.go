package httpclient_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
)

// newQuietLogger keeps retry warnings out of the spec output unless a spec fails.
func newQuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// dropConnection hijacks the connection and closes it without writing a
// response, which the client observes as a transport-level failure.
func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic("test server does not support hijacking")
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(err)
	}
	conn.Close()
}

// unreachableURL returns a URL whose port refuses connections.
func unreachableURL() string {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()
	return server.URL
}

// flakyServer fails the first failures requests at the transport level and
// then answers 200 with a JSON body. It counts every request it receives.
func flakyServer(failures int, jsonBody string) (*httptest.Server, *atomic.Int32) {
	var count atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if int(count.Add(1)) <= failures {
			dropConnection(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(jsonBody))
	}))
	return server, &count
}

// countingServer answers every request with the given status and body and
// counts the requests it receives.
func countingServer(status int, contentType, body string) (*httptest.Server, *atomic.Int32) {
	var count atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	return server, &count
}
