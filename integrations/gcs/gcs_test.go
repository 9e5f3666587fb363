package gcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		url, bucket, object string
	}{
		{"gs://statements/2024/hdfc.pdf", "statements", "2024/hdfc.pdf"},
		{"gs://statements/2024/", "statements", "2024/"},
		{"gs://statements", "statements", ""},
	}
	for _, tt := range tests {
		b, o, err := Split(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.bucket, b)
		assert.Equal(t, tt.object, o)
	}

	_, _, err := Split("/tmp/x.pdf")
	assert.Error(t, err)
	_, _, err = Split("gs:///x.pdf")
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("gs://b/o"))
	assert.False(t, IsURL("statements/hdfc.pdf"))
}
