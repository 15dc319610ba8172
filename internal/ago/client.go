package ago

import (
	"context"

	"github.com/muniworks/land-office/internal/domain"
)

// Client is the outbound ArcGIS Online feature-sync port.
type Client interface {
	Sync(ctx context.Context, req SyncRequest) (*SyncResult, error)
}

// SyncRequest carries the property payload pushed to the hosted feature layer.
type SyncRequest struct {
	EntityID      string
	ReferenceCode string
	Kind          domain.EntityKind
	Name          string
	Attributes    map[string]string
	// ObjectID is set when updating a previously synced feature.
	ObjectID string
}

// SyncResult stores feature service call metadata for audit and persistence.
type SyncResult struct {
	ObjectID   string
	StatusCode int
	Body       string
}
