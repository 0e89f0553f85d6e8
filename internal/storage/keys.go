package storage

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"
)

// AWSHostMarker precedes the object key in every public S3 URL.
const AWSHostMarker = "amazonaws.com/"

// ErrInvalidKey is returned when a deletion identifier cannot be resolved.
var ErrInvalidKey = errors.New("invalid object key")

// NewObjectKey derives a fresh key: upload time in milliseconds, a random
// number below 1e9, then the original file name.
func NewObjectKey(originalName string, now time.Time) string {
	return fmt.Sprintf("%d-%d-%s", now.UnixMilli(), rand.Int64N(1_000_000_000), originalName)
}

// ObjectMetadata is the user metadata stored alongside every upload.
func ObjectMetadata(originalName string, size int64, uploadedAt time.Time) map[string]string {
	return map[string]string{
		"original-name": url.PathEscape(originalName),
		"upload-date":   uploadedAt.UTC().Format(time.RFC3339Nano),
		"file-size":     fmt.Sprintf("%d", size),
	}
}

// JoinURL appends an escaped key to a public base URL. "+" is escaped too so
// the URL survives being passed back unencoded in a query string.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.ReplaceAll(url.PathEscape(key), "+", "%2B")
}

// KeyResolver turns a client-supplied identifier, either a bare key or a
// public URL, into a storage key.
type KeyResolver struct {
	markers []string
}

// NewKeyResolver recognises AWSHostMarker plus any extra public base URLs.
func NewKeyResolver(publicBases ...string) KeyResolver {
	markers := []string{AWSHostMarker}
	for _, base := range publicBases {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base == "" {
			continue
		}
		markers = append(markers, base+"/")
	}
	return KeyResolver{markers: markers}
}

// Resolve strips everything up to and including the earliest marker, then
// percent-decodes and trims the remainder.
func (r KeyResolver) Resolve(raw string) (string, error) {
	key := raw
	start, end := -1, 0
	for _, marker := range r.markers {
		idx := strings.Index(raw, marker)
		if idx < 0 {
			continue
		}
		if start < 0 || idx < start || (idx == start && idx+len(marker) > end) {
			start, end = idx, idx+len(marker)
		}
	}
	if start >= 0 {
		key = raw[end:]
	}

	decoded, err := url.PathUnescape(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	return decoded, nil
}
