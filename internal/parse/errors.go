package parse

import "fmt"

// Reason classifies why a resolution attempt failed.
type Reason string

const (
	// ReasonUnsupportedPlatform means the URL matched no known platform
	ReasonUnsupportedPlatform Reason = "unsupported_platform"

	// ReasonBackendFailure means the backend API rejected or failed the request
	ReasonBackendFailure Reason = "backend_failure"

	// ReasonUnparseableID means no BV- or AV-id could be read from the URL
	ReasonUnparseableID Reason = "unparseable_id"

	// ReasonUpstreamFailure means a direct platform endpoint failed
	ReasonUpstreamFailure Reason = "upstream_failure"
)

// ResolutionError is the failure type of the metadata fetcher.
type ResolutionError struct {
	Reason Reason
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolution failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("resolution failed (%s)", e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
