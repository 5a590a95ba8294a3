package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erpsystem/doccheck/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a path-style S3 endpoint holding objects in memory.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(p, "/")
	switch {
	case key == "" && r.Method == http.MethodPut:
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[p] = data
		f.types[p] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		data, ok := f.objects[p]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Content-Type", f.types[p])
		w.Header().Set("Last-Modified", time.Date(2026, 1, 23, 10, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T, expiry time.Duration) (*MinIOStorage, *fakeS3) {
	t.Helper()
	f := newFakeS3()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	mc, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4("minio", "minio123", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	s, err := newStorage(context.Background(), mc, "doccheck-samples", expiry)
	require.NoError(t, err)
	return s, f
}

func TestNewMinIOStorageNotConfigured(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), config.MinIOConfig{Bucket: "x"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewStorageCreatesBucket(t *testing.T) {
	s, f := newTestStorage(t, 0)
	assert.Equal(t, "doccheck-samples", s.Bucket())
	assert.True(t, f.buckets["doccheck-samples"])
	assert.Equal(t, defaultURLExpiry, s.expiry)
}

func TestUploadAndStat(t *testing.T) {
	s, f := newTestStorage(t, 0)
	ctx := context.Background()
	pdf := []byte("%PDF-1.7 sample")

	require.NoError(t, s.UploadFile(ctx, "samples/invoice.pdf", pdf, "application/pdf"))
	assert.Equal(t, pdf, f.objects["doccheck-samples/samples/invoice.pdf"])

	info, err := s.Stat(ctx, "samples/invoice.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(len(pdf)), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)
	assert.Equal(t, 2026, info.LastModified.Year())
}

func TestStatMissing(t *testing.T) {
	s, _ := newTestStorage(t, 0)
	_, err := s.Stat(context.Background(), "samples/none.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minio stat samples/none.pdf")
}

func TestGetPresignedURL(t *testing.T) {
	s, _ := newTestStorage(t, 15*time.Minute)

	raw, err := s.GetPresignedURL(context.Background(), "samples/invoice.pdf")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/doccheck-samples/samples/invoice.pdf", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}
