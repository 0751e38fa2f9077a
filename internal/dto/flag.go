package dto

// FlagRequest disputes a missing classification. The note is optional context
// for the teacher reviewing the queue.
type FlagRequest struct {
	Note *string `json:"note" validate:"omitempty,max=2000"`
}

// VerifyFlagRequest resolves one pending flag.
type VerifyFlagRequest struct {
	SubmissionID uint   `json:"submission_id" validate:"required"`
	Approved     *bool  `json:"approved" validate:"required"`
	VerifiedBy   string `json:"verified_by" validate:"required,max=255"`
}
