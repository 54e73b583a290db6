package review

import "time"

type Kind string

const (
	KindAmbiguousMatch    Kind = "ambiguous_match"
	KindRejectedCandidate Kind = "rejected_candidate"
	KindStoreFailure      Kind = "store_failure"
	KindMergeCollision    Kind = "merge_collision"
	KindMergeConflict     Kind = "merge_conflict"
	KindScoreConflict     Kind = "score_conflict"
)

// Item is queued for manual follow-up. SubjectKey makes reruns idempotent:
// the same kind and subject are queued once.
type Item struct {
	ID         string
	Kind       Kind
	SubjectKey string
	SubjectIDs []string
	Reason     string
	RunID      string
	Resolved   bool
	CreatedAt  time.Time
}
