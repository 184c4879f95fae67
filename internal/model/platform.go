package model

// PlatformID identifies a supported video platform.
type PlatformID string

const (
	// PlatformDouyin is the Douyin short-video platform
	PlatformDouyin PlatformID = "douyin"

	// PlatformBilibili is the Bilibili video platform
	PlatformBilibili PlatformID = "bilibili"
)

// String returns the string representation of PlatformID
func (p PlatformID) String() string {
	return string(p)
}

// DisplayName returns the human-readable platform name
func (p PlatformID) DisplayName() string {
	switch p {
	case PlatformDouyin:
		return "Douyin"
	case PlatformBilibili:
		return "Bilibili"
	default:
		return string(p)
	}
}
