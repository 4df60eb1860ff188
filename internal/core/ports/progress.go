package ports

import "context"

// ProgressCache tracks the completed video and task sets for the current
// identity. Mark operations are optimistic: the id is visible in the set
// before the confirming call resolves and removed again if it fails.
// Item ids are accepted in any wire representation ("7", "vid-7", "7 ")
// and canonicalized before membership checks.
type ProgressCache interface {
	MarkVideoCompleted(ctx context.Context, id string) error
	MarkTaskCompleted(ctx context.Context, id string) error
	IsVideoCompleted(id string) bool
	IsTaskCompleted(id string) bool
	Refresh(ctx context.Context) error
}
