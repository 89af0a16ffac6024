package statement

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the path-style bucket and object calls the client makes.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != f.bucket {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch {
	case key == "" && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3(t *testing.T) (*fakeS3, *Config) {
	fake := &fakeS3{bucket: "edupay", objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, &Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		BucketName:      "edupay",
		EndpointURL:     srv.URL,
		Prefix:          "statements",
		Enabled:         true,
	}
}

func TestNewClientDisabled(t *testing.T) {
	_, err := NewClient(context.Background(), &Config{})
	assert.Error(t, err)
}

func TestClientPutAndExists(t *testing.T) {
	fake, cfg := newFakeS3(t)
	ctx := context.Background()

	client, err := NewClient(ctx, cfg)
	require.NoError(t, err)

	exists, err := client.Exists(ctx, "statements/u1/p1.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, client.Put(ctx, "statements/u1/p1.json", []byte(`{"ok":true}`), "application/json"))
	assert.Equal(t, `{"ok":true}`, string(fake.objects["statements/u1/p1.json"]))
	assert.Equal(t, "application/json", fake.types["statements/u1/p1.json"])

	exists, err = client.Exists(ctx, "statements/u1/p1.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewClientMissingBucket(t *testing.T) {
	_, cfg := newFakeS3(t)
	cfg.BucketName = "other"

	_, err := NewClient(context.Background(), cfg)
	assert.Error(t, err)
}
