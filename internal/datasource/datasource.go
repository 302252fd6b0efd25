// Package datasource opens catalog source files by location. A location is
// either a local path or an http(s) URL.
package datasource

import (
	"context"
	"io"
	"strings"

	"catalogetl/internal/datasource/file"
	"catalogetl/internal/datasource/httpds"
)

// Source is something a catalog file can be read from.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Location() string
}

// IsURL reports whether loc names an http or https resource.
func IsURL(loc string) bool {
	l := strings.ToLower(loc)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// New returns the Source for loc. URLs are fetched with client; a nil client
// is replaced by one with default settings.
func New(loc string, client *httpds.Client) Source {
	if IsURL(loc) {
		if client == nil {
			client = httpds.NewClient(httpds.Config{})
		}
		return httpds.NewRemote(client, loc)
	}
	return file.NewLocal(loc)
}
