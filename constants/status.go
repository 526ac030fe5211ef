package constants

// RecordStatus is the canonical status for rows in processing_record.
type RecordStatus string

// Stable values (store these exact strings in DB).
const (
	RecordStatusProcessing RecordStatus = "processing" // pipeline started for the file
	RecordStatusCompleted  RecordStatus = "completed"  // terminal success
	RecordStatusFailed     RecordStatus = "failed"     // terminal failure
)
