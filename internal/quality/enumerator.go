// Package quality derives the ranked list of selectable renditions
// from a metadata record's platform payload.
package quality

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/markqq/vidflow-desktop/internal/model"
)

// AudioLabel is the display label of the synthesized audio option
const AudioLabel = "Audio"

// DefaultLegacyQuality is assumed when a legacy payload omits its rank
const DefaultLegacyQuality = 32

// qualityLabels maps Bilibili quality ranks to display labels
var qualityLabels = map[int]string{
	120: "4K",
	116: "1080P60",
	112: "1080P+",
	80:  "1080P",
	74:  "720P60",
	64:  "720P",
	48:  "720P",
	32:  "480P",
	16:  "360P",
	6:   "240P",
}

// Label returns the display label for a quality rank, falling back to
// a generic form for unmapped ranks.
func Label(rank int) string {
	if label, ok := qualityLabels[rank]; ok {
		return label
	}
	return fmt.Sprintf("quality %d", rank)
}

// Options derives the selectable rendition list from a metadata
// record: video options descending by quality rank, the audio option
// (if any) last. An empty slice means nothing is downloadable.
func Options(meta *model.VideoMetadata) []model.RenditionOption {
	switch {
	case meta.Platform == model.PlatformDouyin:
		return douyinOptions(meta.DouyinOptions, meta.AudioURL)
	case meta.Play != nil && meta.Play.Dash != nil:
		return dashOptions(meta.Play.Dash)
	case meta.Play != nil && len(meta.Play.Durl) > 0:
		return durlOptions(meta.Play)
	default:
		return nil
	}
}

// douyinOptions maps the backend's pre-built option list 1:1 and
// appends an audio-extract option when the backend exposes a
// soundtrack URL. The backend already orders the video entries; only
// the rank derivation is local.
func douyinOptions(entries []model.DouyinOption, audioURL string) []model.RenditionOption {
	options := make([]model.RenditionOption, 0, len(entries)+1)
	for _, entry := range entries {
		options = append(options, model.RenditionOption{
			Kind:      model.RenditionVideo,
			Quality:   resolutionRank(entry.Resolution),
			Label:     entry.Resolution,
			FrameRate: strconv.Itoa(entry.FPS),
			Codecs:    entry.Encoding,
			URL:       entry.URL,
		})
	}

	if audioURL != "" {
		options = append(options, model.RenditionOption{
			Kind:  model.RenditionAudioOnly,
			Label: AudioLabel,
			URL:   audioURL,
		})
	}
	return options
}

// dashOptions builds one video option per DASH video stream plus a
// single synthesized best-audio option. Every video option shares a
// reference to the best audio stream for the later mux step.
func dashOptions(dash *model.DashInfo) []model.RenditionOption {
	options := make([]model.RenditionOption, 0, len(dash.Video)+1)

	audio := BestAudio(dash.Audio)

	for _, stream := range dash.Video {
		options = append(options, model.RenditionOption{
			Kind:       model.RenditionVideo,
			Quality:    stream.ID,
			Label:      Label(stream.ID),
			Width:      stream.Width,
			Height:     stream.Height,
			FrameRate:  stream.FrameRate,
			Codecs:     stream.Codecs,
			Bandwidth:  stream.Bandwidth,
			URL:        stream.BaseURL,
			BackupURLs: stream.BackupURL,
			Audio:      audio,
		})
	}

	if audio != nil {
		options = append(options, *audio)
	}

	sortOptions(options)
	return options
}

// durlOptions builds the single combined-stream option of a legacy
// payload. No audio option exists; the stream already carries both.
func durlOptions(play *model.PlayInfo) []model.RenditionOption {
	rank := play.Quality
	if rank == 0 {
		rank = DefaultLegacyQuality
	}

	segment := play.Durl[0]
	return []model.RenditionOption{{
		Kind:       model.RenditionVideo,
		Quality:    rank,
		Label:      Label(rank),
		Codecs:     "H.264",
		URL:        segment.URL,
		BackupURLs: segment.BackupURL,
	}}
}

// BestAudio selects the audio stream with the highest bandwidth,
// breaking ties in favor of the first encountered. Nil when the list
// is empty.
func BestAudio(streams []model.DashStream) *model.RenditionOption {
	if len(streams) == 0 {
		return nil
	}

	best := streams[0]
	for _, stream := range streams[1:] {
		if stream.Bandwidth > best.Bandwidth {
			best = stream
		}
	}

	return &model.RenditionOption{
		Kind:       model.RenditionAudio,
		Quality:    0,
		Label:      AudioLabel,
		Codecs:     best.Codecs,
		Bandwidth:  best.Bandwidth,
		URL:        best.BaseURL,
		BackupURLs: best.BackupURL,
	}
}

// sortOptions orders video options descending by rank and keeps audio
// entries after every video entry regardless of rank.
func sortOptions(options []model.RenditionOption) {
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].IsAudio() != options[j].IsAudio() {
			return !options[i].IsAudio()
		}
		return options[i].Quality > options[j].Quality
	})
}

// resolutionRank derives a numeric rank from the leading digits of a
// resolution label such as "1080p" or "720p60". Unparseable labels
// rank 0.
func resolutionRank(resolution string) int {
	end := 0
	for end < len(resolution) && resolution[end] >= '0' && resolution[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	rank, _ := strconv.Atoi(resolution[:end])
	return rank
}
