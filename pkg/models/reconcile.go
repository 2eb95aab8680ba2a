package models

// MatchProposal is an ephemeral value produced by a matching operation before
// commit. It is never persisted; the caller either commits or discards it.
// The master id is allocated at commit time, never here.
type MatchProposal struct {
	MemberRecordIDs []string `json:"member_record_ids"`
	Warnings        []string `json:"warnings"`
}

// RecordMutation is one pending change to a supplier record. Engines return
// mutation sets; the reconcile service applies them inside a transaction.
type RecordMutation struct {
	RecordID   string
	MasterID   *string
	Status     RecordStatus
	Confidence *int
}

// AutoMatchResult reports what a corpus-wide auto-match pass did
type AutoMatchResult struct {
	MappedCount   int      `json:"mapped_count"`
	GroupsMatched int      `json:"groups_matched"`
	GroupsSkipped int      `json:"groups_skipped"`
	Warnings      []string `json:"warnings"`
}

// CommitResult reports what a manual-match commit did
type CommitResult struct {
	MasterID    string   `json:"master_id"`
	MappedCount int      `json:"mapped_count"`
	Warnings    []string `json:"warnings"`
}

// BatchCommitResult reports per-selection outcomes of a batch commit.
// Selections are independent transactions; one failing does not roll back
// the others.
type BatchCommitResult struct {
	Committed []CommitResult `json:"committed"`
	Failed    []BatchFailure `json:"failed,omitempty"`
}

// BatchFailure records one selection that could not be committed
type BatchFailure struct {
	RecordIDs []string `json:"record_ids"`
	Error     string   `json:"error"`
}

// ManualMatchRequest selects records (within one group) to match together
type ManualMatchRequest struct {
	RecordIDs []string `json:"record_ids" validate:"required"`
}

// BatchCommitRequest carries one selection per group for a single confirm-all
type BatchCommitRequest struct {
	Selections []ManualMatchRequest `json:"selections" validate:"required,dive"`
}

// UnmatchRequest selects mapped records to revert to pending
type UnmatchRequest struct {
	RecordIDs []string `json:"record_ids" validate:"required"`
}

// MoveRequest reassigns one record to an explicitly chosen master record
type MoveRequest struct {
	RecordID       string `json:"record_id" validate:"required"`
	TargetMasterID string `json:"target_master_id" validate:"required"`
}

// AutoMatchRequest scopes an auto-match pass to one taxonomy
type AutoMatchRequest struct {
	Taxonomy Taxonomy `json:"taxonomy" validate:"required"`
}
