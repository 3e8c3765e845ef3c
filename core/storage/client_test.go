package storage_test

import (
	"errors"
	"fmt"
	"testing"

	"prefmodel/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{name: "plain endpoint", cfg: storage.Config{Endpoint: "localhost:9000", Bucket: "netflix-prize"}},
		{name: "http scheme stripped", cfg: storage.Config{Endpoint: "http://localhost:9000/"}},
		{name: "https with region", cfg: storage.Config{Endpoint: "https://s3.amazonaws.com", UseSSL: true, Region: "us-east-1"}},
		{name: "default timeout", cfg: storage.Config{Endpoint: "localhost:9000", TimeoutSeconds: 0}},
		{name: "empty endpoint", cfg: storage.Config{Endpoint: "https://"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := storage.NewClient(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Implements(t, (*storage.Client)(nil), client)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, storage.IsNotFound(nil))
	assert.False(t, storage.IsNotFound(errors.New("connection refused")))
	assert.True(t, storage.IsNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, storage.IsNotFound(minio.ErrorResponse{Code: "NoSuchBucket"}))
	assert.True(t, storage.IsNotFound(fmt.Errorf("open: %w", minio.ErrorResponse{Code: "NoSuchKey"})))
}
