package favorites

import "context"

// StorageKey is the single namespaced key the favorites set persists under.
const StorageKey = "transitcast:favorites"

// Repository persists the favorites set as one value under StorageKey.
// Save always rewrites the whole set; there are no partial updates.
type Repository interface {
	// Load reads the persisted stop ids in stored order. A missing key
	// yields an empty slice, not an error.
	Load(ctx context.Context) ([]string, error)

	// Save rewrites the full persisted value.
	Save(ctx context.Context, ids []string) error
}
