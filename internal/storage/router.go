// Package storage implements storage-related functionality.
package storage

import (
	"fmt"
	"time"

	"github.com/detkit/framestats/pkg/export"
)

// Ensure implementation satisfies interface.
var _ export.Router = (*DefaultRouter)(nil)

// DefaultRouter implements Hive-style date partitioning for snapshot paths.
type DefaultRouter struct {
	protocol string
	bucket   string
	basePath string
}

// NewRouter creates a new snapshot router.
func NewRouter(protocol, bucket, basePath string) *DefaultRouter {
	return &DefaultRouter{
		protocol: protocol,
		bucket:   bucket,
		basePath: basePath,
	}
}

// Route returns the storage path prefix for a snapshot taken at the given
// Unix timestamp (seconds).
// Format: protocol://bucket/basePath/dt=YYYY-MM-DD/
func (r *DefaultRouter) Route(timestamp int64) string {
	t := time.Unix(timestamp, 0).UTC()
	date := t.Format("2006-01-02")

	return fmt.Sprintf("%s://%s/%s/dt=%s/",
		r.protocol,
		r.bucket,
		r.basePath,
		date,
	)
}
