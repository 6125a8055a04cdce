package uri

import (
	"fmt"
	pathPkg "path"
	"regexp"
	"strings"

	"github.com/airbusgeo/georef/internal/utils"
)

var (
	BadUriErr = fmt.Errorf("badly formatted storage uri")
	uriRegex  = regexp.MustCompile("^(?P<Protocol>[a-zA-Z0-9]+)://(?P<BucketName>[^/]*)(/(?P<Path>(?:.*/)*(?P<FileName>.*)))?$")
)

// Uri of a file: protocol://bucket/path or a local path
type Uri struct {
	protocol string
	bucket   string
	path     string
	fileName string
}

// ParseUri parse a storage uri (e.g. gs://bucket-name/path/to/file, file:///path/to/file or /path/to/file)
func ParseUri(rawURI string) (Uri, error) {
	if strings.HasPrefix(rawURI, "/") {
		//local path
		return Uri{
			path:     rawURI,
			fileName: pathPkg.Base(rawURI),
		}, nil
	}
	matches, err := utils.FindRegexGroups(uriRegex, rawURI)
	if err != nil {
		return Uri{}, BadUriErr
	}

	protocol := strings.ToLower(matches["Protocol"])
	bucket, path, fileName := matches["BucketName"], matches["Path"], matches["FileName"]

	if protocol == "file" {
		if bucket != "" {
			return Uri{}, fmt.Errorf("file uri must be absolute (file:///path): %w", BadUriErr)
		}
		return Uri{protocol: protocol, path: "/" + path, fileName: fileName}, nil
	}
	if bucket == "" || fileName == "" {
		return Uri{}, fmt.Errorf("missing bucket or object: %w", BadUriErr)
	}
	return Uri{
		protocol: protocol,
		bucket:   bucket,
		path:     path,
		fileName: fileName,
	}, nil
}

func (u Uri) Protocol() string {
	return u.protocol
}

func (u Uri) Bucket() string {
	return u.bucket
}

func (u Uri) Path() string {
	return u.path
}

func (u Uri) FileName() string {
	return u.fileName
}

// IsLocal returns true for local paths and file:// uris
func (u Uri) IsLocal() bool {
	return u.protocol == "" || u.protocol == "file"
}

func (u Uri) String() string {
	switch {
	case u.protocol == "":
		return u.path
	case u.protocol == "file":
		return "file://" + u.path
	}
	return fmt.Sprintf("%s://%s/%s", u.protocol, u.bucket, u.path)
}
