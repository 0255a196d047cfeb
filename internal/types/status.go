package types

// Status is the soft-delete lifecycle of a persisted row. It is independent of
// any business state (e.g. a plan being exhausted) and only decides whether a
// row takes part in queries.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)
