// Package testing holds the doubles shared by MovieMate tests. Import it as tu.
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
)

var (
	ErrWriteFailed = errors.New("write failed")
	ErrReadFailed  = errors.New("read failed")
)

// BrokenWriter fails every write.
type BrokenWriter struct{}

func (BrokenWriter) Write([]byte) (int, error) {
	return 0, ErrWriteFailed
}

// QuotaWriter forwards the first n writes to its target and fails the rest.
type QuotaWriter struct {
	quota  int
	target io.Writer
}

func NewQuotaWriter(n int, target io.Writer) *QuotaWriter {
	return &QuotaWriter{quota: n, target: target}
}

func (q *QuotaWriter) Write(p []byte) (int, error) {
	if q.quota <= 0 {
		return 0, ErrWriteFailed
	}
	q.quota--
	return q.target.Write(p)
}

// BrokenBody is a response body whose reads fail.
type BrokenBody struct{}

func (BrokenBody) Read([]byte) (int, error) { return 0, ErrReadFailed }
func (BrokenBody) Close() error             { return nil }

// RoundTripFunc adapts a function to [http.RoundTripper].
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// StubClient returns a client whose transport always answers with resp and err.
func StubClient(resp *http.Response, err error) *http.Client {
	return &http.Client{Transport: RoundTripFunc(func(*http.Request) (*http.Response, error) {
		return resp, err
	})}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		t.Errorf("file does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(content)
}
