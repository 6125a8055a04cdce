package gcs

import (
	"fmt"
	"strings"
)

// Parse splits gs://bucket/path/to/object (the scheme and the leading slash are optional)
// into the bucket and the object name expected by the storage client.
func Parse(gsUri string) (bucket, object string, err error) {
	rest, found := strings.CutPrefix(gsUri, "gs://")
	if !found {
		rest = strings.TrimPrefix(rest, "/")
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" {
		return "", "", fmt.Errorf("Parse(%s): missing bucket or object", gsUri)
	}
	return bucket, object, nil
}
