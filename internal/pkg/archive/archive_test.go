package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresCredentialsWhenEnabled(t *testing.T) {
	t.Setenv("EXPORT_ARCHIVE_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_BUCKET_NAME", "exports")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled())
}

func TestObjectKey(t *testing.T) {
	cfg := &Config{}
	key := cfg.ObjectKey(7, "abc", "../financial-data-2025-03-01.csv", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "exports/7/2025/03/abc-financial-data-2025-03-01.csv", key)
}

func TestArchiveUploadsToBucket(t *testing.T) {
	var mu sync.Mutex
	var putPath, putBody, putType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			putPath, putBody, putType = r.URL.Path, string(b), r.Header.Get("Content-Type")
			mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), &Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		BucketName:      "exports",
		EndpointURL:     srv.URL,
		Enabled:         true,
	})
	require.NoError(t, err)

	res, err := client.Archive(context.Background(), 3, "financial-data-2025-03-01.csv", []byte("Type,Date\n"))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, strings.HasPrefix(putPath, "/exports/exports/3/"), putPath)
	assert.True(t, strings.HasSuffix(putPath, "-financial-data-2025-03-01.csv"), putPath)
	assert.Contains(t, putBody, "Type,Date")
	assert.Equal(t, "text/csv", putType)
	assert.Equal(t, "exports", res.BucketName)
	assert.Equal(t, int64(10), res.Size)
}

func TestNewClientDisabled(t *testing.T) {
	_, err := NewClient(context.Background(), &Config{})
	assert.Error(t, err)
}
