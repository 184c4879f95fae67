package model

// RenditionKind classifies a selectable rendition entry.
type RenditionKind string

const (
	// RenditionVideo is a video stream; for DASH it still needs the
	// companion audio stream muxed in.
	RenditionVideo RenditionKind = "video"

	// RenditionAudio is the synthesized best-audio entry of a DASH payload
	RenditionAudio RenditionKind = "audio"

	// RenditionAudioOnly is an explicit audio-only download request
	RenditionAudioOnly RenditionKind = "audio_only"
)

// RenditionOption is one selectable quality entry derived from a
// metadata record. Quality is the numeric rank (0 for audio entries)
// and Bandwidth a bytes-per-second estimate (0 if unknown).
type RenditionOption struct {
	Kind       RenditionKind
	Quality    int
	Label      string
	Width      int
	Height     int
	FrameRate  string
	Codecs     string
	Bandwidth  int
	URL        string
	BackupURLs []string

	// Audio references the best-matching audio stream when this option
	// is a video-only DASH stream. Nil for combined streams.
	Audio *RenditionOption
}

// IsAudio reports whether the option downloads audio without video.
func (r *RenditionOption) IsAudio() bool {
	return r.Kind == RenditionAudio || r.Kind == RenditionAudioOnly
}

// NeedsMux reports whether the option requires a separate audio leg
// and a mux step after download.
func (r *RenditionOption) NeedsMux() bool {
	return r.Kind == RenditionVideo && r.Audio != nil
}
