package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves the handful of path-style S3 calls MinIOSink makes.
type fakeS3 struct {
	mu       sync.Mutex
	buckets  map[string]bool
	objects  map[string][]byte
	types    map[string]string
	denyPuts bool
}

func newFakeS3(t *testing.T) (*fakeS3, string) {
	t.Helper()
	f := &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, strings.TrimPrefix(srv.URL, "http://")
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && r.URL.Query().Has("location"):
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>`+
			`<LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && key == "":
		f.buckets[bucket] = true
	case r.Method == http.MethodPut:
		if f.denyPuts || !f.buckets[bucket] {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
			return
		}
		data, err := readPayload(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.objects[bucket+"/"+key] = data
		f.types[bucket+"/"+key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

// readPayload returns the object body, undoing aws-chunked framing when the
// client streams a signed payload.
func readPayload(r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		return io.ReadAll(r.Body)
	}
	br := bufio.NewReader(r.Body)
	var out []byte
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		n, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
		chunk := make([]byte, n+2)
		if _, err := io.ReadFull(br, chunk); err != nil {
			return nil, err
		}
		out = append(out, chunk[:n]...)
	}
}

func (f *fakeS3) object(key string) ([]byte, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, f.types[key], ok
}

func (f *fakeS3) hasBucket(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buckets[name]
}

func (f *fakeS3) setup(bucket string, denyPuts bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = true
	f.denyPuts = denyPuts
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "a.jpg", (&MinIOSink{}).ObjectKey("a.jpg"))
	assert.Equal(t, "certs/2025/a.jpg", (&MinIOSink{prefix: "certs/2025"}).ObjectKey("a.jpg"))
}

func TestMinIOSinkPut(t *testing.T) {
	s3, endpoint := newFakeS3(t)
	ctx := context.Background()
	sink, err := NewMinIOSink(ctx, MinIOConfig{
		Endpoint:        endpoint,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		Bucket:          "certgen-test",
		Prefix:          "/run-1/",
	})
	require.NoError(t, err)
	assert.True(t, s3.hasBucket("certgen-test"), "missing bucket is created")

	require.NoError(t, sink.Put(ctx, "a.jpg", "image/jpeg", []byte("first")))
	require.NoError(t, sink.Put(ctx, "a.jpg", "image/jpeg", []byte("second")))

	data, contentType, ok := s3.object("certgen-test/run-1/a.jpg")
	require.True(t, ok)
	assert.Equal(t, "second", string(data))
	assert.Equal(t, "image/jpeg", contentType)
}

func TestMinIOSinkPutError(t *testing.T) {
	s3, endpoint := newFakeS3(t)
	s3.setup("certgen-test", true)

	ctx := context.Background()
	sink, err := NewMinIOSink(ctx, MinIOConfig{Endpoint: endpoint, AccessKeyID: "k", SecretAccessKey: "s", Bucket: "certgen-test"})
	require.NoError(t, err)

	err = sink.Put(ctx, "a.pdf", "application/pdf", []byte("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a.pdf"`)
}
