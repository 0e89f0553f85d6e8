package storage

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKey(t *testing.T) {
	resolver := NewKeyResolver("http://localhost:9000/photos/")

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"aws url", "https://bucket.s3.region.amazonaws.com/foo%20bar.png", "foo bar.png"},
		{"bare key", "foo bar.png", "foo bar.png"},
		{"encoded bare key", "foo%20bar.png", "foo bar.png"},
		{"surrounding whitespace", "  key.png\t", "key.png"},
		{"plus is kept", "a+b.png", "a+b.png"},
		{"first marker occurrence", "https://b.s3.amazonaws.com/x-amazonaws.com/y.png", "x-amazonaws.com/y.png"},
		{"configured public base", "http://localhost:9000/photos/1-2-cat.png", "1-2-cat.png"},
		{"nested key", "https://b.s3.eu-west-1.amazonaws.com/dir/file.png", "dir/file.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveKeyIsIdempotent(t *testing.T) {
	resolver := NewKeyResolver()

	first, err := resolver.Resolve("https://bucket.s3.region.amazonaws.com/foo%20bar.png")
	require.NoError(t, err)
	second, err := resolver.Resolve(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveKeyRejectsInvalidInput(t *testing.T) {
	resolver := NewKeyResolver()

	for _, raw := range []string{"", "   ", "https://bucket.s3.amazonaws.com/", "bad%zzkey"} {
		_, err := resolver.Resolve(raw)
		assert.True(t, errors.Is(err, ErrInvalidKey), "raw=%q err=%v", raw, err)
	}
}

func TestNewObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	key := NewObjectKey("cat photo.png", now)

	assert.Regexp(t, regexp.MustCompile(`^1700000000123-\d{1,9}-cat photo\.png$`), key)
	assert.NotEqual(t, key, NewObjectKey("cat photo.png", now.Add(time.Millisecond)))
}

func TestObjectMetadata(t *testing.T) {
	uploadedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	meta := ObjectMetadata("my cat.png", 2048, uploadedAt)

	assert.Equal(t, "my%20cat.png", meta["original-name"])
	assert.Equal(t, "2024-05-01T10:00:00Z", meta["upload-date"])
	assert.Equal(t, "2048", meta["file-size"])
}

func TestJoinURLEscapesKey(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a%20b.png", JoinURL("https://cdn.example.com/", "a b.png"))
	assert.Equal(t, "https://cdn.example.com/a%2Bb.png", JoinURL("https://cdn.example.com", "a+b.png"))
}

func TestJoinURLRoundTripsThroughResolver(t *testing.T) {
	r := NewKeyResolver("https://cdn.example.com")
	for _, key := range []string{"1-2-a+b.png", "1-2-my cat.png", "1-2-100%.png", "1-2-ünï.png"} {
		got, err := r.Resolve(JoinURL("https://cdn.example.com", key))
		require.NoError(t, err)
		assert.Equal(t, key, got)
	}
}
