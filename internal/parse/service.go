// Package parse implements the metadata fetcher: it turns a canonical
// share URL into a normalized VideoMetadata record. Douyin always goes
// through the backend API; Bilibili goes through the backend when no
// valid session exists and talks to the platform directly when one
// does.
package parse

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/markqq/vidflow-desktop/internal/backend"
	"github.com/markqq/vidflow-desktop/internal/bilibili"
	"github.com/markqq/vidflow-desktop/internal/credential"
	"github.com/markqq/vidflow-desktop/internal/model"
)

// hashtagPattern matches #token hashtags in a Douyin caption
var hashtagPattern = regexp.MustCompile(`#[^\s#]+`)

// Service resolves share URLs into video metadata.
type Service struct {
	backend *backend.Client
	bili    *bilibili.Client
	creds   *credential.Store
}

// NewService creates a metadata fetcher.
func NewService(backendClient *backend.Client, biliClient *bilibili.Client, creds *credential.Store) *Service {
	return &Service{
		backend: backendClient,
		bili:    biliClient,
		creds:   creds,
	}
}

// Resolve fetches and normalizes metadata for a classified URL. Every
// failure surfaces as a *ResolutionError.
func (s *Service) Resolve(ctx context.Context, url string, platform model.PlatformID) (*model.VideoMetadata, error) {
	switch platform {
	case model.PlatformDouyin:
		return s.resolveDouyin(ctx, url)
	case model.PlatformBilibili:
		return s.resolveBilibili(ctx, url)
	default:
		return nil, &ResolutionError{Reason: ReasonUnsupportedPlatform}
	}
}

// resolveDouyin asks the backend to parse the video and derives the
// hashtag list from the caption.
func (s *Service) resolveDouyin(ctx context.Context, url string) (*model.VideoMetadata, error) {
	video, err := s.backend.ParseDouyin(ctx, url)
	if err != nil {
		return nil, &ResolutionError{Reason: ReasonBackendFailure, Err: err}
	}

	title := video.Description
	if title == "" {
		title = video.Caption
	}
	cover := video.CoverURL
	if cover == "" {
		cover = video.DynamicCoverURL
	}

	meta := &model.VideoMetadata{
		Platform:    model.PlatformDouyin,
		Title:       title,
		Description: video.Caption,
		Author: model.Author{
			Name:      video.AuthorName,
			AvatarURL: video.AuthorAvatar,
			Verified:  video.AuthorVerified,
			Followers: video.AuthorFans,
			Signature: video.AuthorSignature,
		},
		Stats: model.Stats{
			Likes:     video.LikeCount,
			Comments:  video.CommentCount,
			Shares:    video.ShareCount,
			Favorites: video.CollectCount,
		},
		CoverURL:      cover,
		Tags:          ScanHashtags(video.Caption),
		DouyinOptions: video.QualityOptions,
		AudioURL:      video.AudioURL,
	}
	if video.UpdateTime > 0 {
		meta.PublishedAt = time.Unix(video.UpdateTime, 0)
	}
	return meta, nil
}

// resolveBilibili picks the authenticated or unauthenticated branch
// based on a live session probe. A failed probe silently downgrades to
// the backend path; it is never surfaced.
func (s *Service) resolveBilibili(ctx context.Context, url string) (*model.VideoMetadata, error) {
	if bundle, ok := s.creds.Load(); ok {
		if _, valid := s.bili.CheckSession(ctx, bundle); valid {
			return s.resolveBilibiliDirect(ctx, url, bundle)
		}
	}

	view, err := s.backend.ParseBilibili(ctx, url)
	if err != nil {
		return nil, &ResolutionError{Reason: ReasonBackendFailure, Err: err}
	}
	return viewToMetadata(view), nil
}

// resolveBilibiliDirect is the three-step authenticated path: id
// extraction, video view, playback info. The playback step is
// non-fatal; metadata without renditions is still returned and the
// quality enumerator yields an empty option list.
func (s *Service) resolveBilibiliDirect(ctx context.Context, url string, bundle *credential.Bundle) (*model.VideoMetadata, error) {
	id, ok := bilibili.ExtractVideoID(url)
	if !ok {
		return nil, &ResolutionError{Reason: ReasonUnparseableID}
	}

	view, err := s.bili.VideoView(ctx, bundle, id)
	if err != nil {
		return nil, &ResolutionError{Reason: ReasonUpstreamFailure, Err: err}
	}

	if len(view.Pages) > 0 {
		play, err := s.bili.PlayInfo(ctx, bundle, view.BVID, view.Pages[0].CID)
		if err != nil {
			log.Printf("Playback info fetch failed for %s, returning metadata without renditions: %v", view.BVID, err)
		} else {
			view.Play = play
		}
	}

	return viewToMetadata(view), nil
}

// viewToMetadata normalizes a Bilibili video-view record (from either
// the backend or the platform) into the shared metadata shape.
func viewToMetadata(view *bilibili.VideoView) *model.VideoMetadata {
	meta := &model.VideoMetadata{
		Platform:    model.PlatformBilibili,
		Title:       view.Title,
		Description: view.Desc,
		Author: model.Author{
			Name:      view.Owner.Name,
			AvatarURL: view.Owner.Face,
		},
		Stats: model.Stats{
			Likes:     view.Stat.Like,
			Comments:  view.Stat.Reply,
			Shares:    view.Stat.Share,
			Favorites: view.Stat.Favorite,
			CoinCount: view.Stat.Coin,
		},
		CoverURL: view.CoverURL(),
		Play:     view.Play,
	}
	if view.Pubdate > 0 {
		meta.PublishedAt = time.Unix(view.Pubdate, 0)
	}
	return meta
}

// ScanHashtags extracts #token hashtags from a caption, stripping the
// leading marker.
func ScanHashtags(caption string) []string {
	matches := hashtagPattern.FindAllString(caption, -1)
	if len(matches) == 0 {
		return nil
	}

	tags := make([]string, 0, len(matches))
	for _, match := range matches {
		tags = append(tags, strings.TrimPrefix(match, "#"))
	}
	return tags
}
