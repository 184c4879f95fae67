package model

// JobStatus represents the status of a download job
type JobStatus string

const (
	// JobStatusPending means the job is created but not started
	JobStatusPending JobStatus = "Pending"

	// JobStatusRunning means the download is in progress
	JobStatusRunning JobStatus = "Running"

	// JobStatusCompleted means the job finished successfully
	JobStatusCompleted JobStatus = "Completed"

	// JobStatusFailed means the job failed with an error
	JobStatusFailed JobStatus = "Failed"

	// JobStatusCancelled means the job was cancelled by the user
	JobStatusCancelled JobStatus = "Cancelled"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true if the job is in a non-terminal state
func (js JobStatus) IsActive() bool {
	return js == JobStatusPending || js == JobStatusRunning
}

// IsFinished returns true if the job is in a terminal state (completed, failed, or cancelled)
func (js JobStatus) IsFinished() bool {
	return js == JobStatusCompleted || js == JobStatusFailed || js == JobStatusCancelled
}
