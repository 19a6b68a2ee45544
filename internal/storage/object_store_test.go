package storage

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saman-dev12/civic/internal/config"
)

func TestNewObjectStoreParsesURLEndpoint(t *testing.T) {
	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:       "https://minio.example.com:9000",
		AccessKey:      "key",
		SecretKey:      "secret",
		SettingsBucket: "civic-config",
	})
	require.NoError(t, err)
	assert.Equal(t, "minio.example.com:9000", store.client.EndpointURL().Host)
	assert.Equal(t, "https", store.client.EndpointURL().Scheme)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchBucket"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("dial tcp: refused")))
}
