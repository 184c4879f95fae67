// Package pipeline coordinates the end-to-end flow from pasted share
// text to a finished file: URL extraction, platform classification,
// metadata resolution, rendition enumeration, and download dispatch.
// Results are pushed to the UI through a Notifier.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/markqq/vidflow-desktop/internal/bilibili"
	"github.com/markqq/vidflow-desktop/internal/credential"
	"github.com/markqq/vidflow-desktop/internal/download"
	"github.com/markqq/vidflow-desktop/internal/model"
	"github.com/markqq/vidflow-desktop/internal/parse"
	"github.com/markqq/vidflow-desktop/internal/platform"
	"github.com/markqq/vidflow-desktop/internal/quality"
)

// Resolver turns a classified share URL into metadata.
type Resolver interface {
	Resolve(ctx context.Context, url string, platform model.PlatformID) (*model.VideoMetadata, error)
}

// Notifier receives pipeline results. Calls arrive from background
// goroutines; implementations marshal onto their own thread.
type Notifier interface {
	MetadataReady(slot string, meta *model.VideoMetadata, options []model.RenditionOption)
	Progress(job *model.DownloadJob)
	Finished(job *model.DownloadJob)
	Error(slot string, err error)
}

// Orchestrator drives the parse-select-download flow per slot.
type Orchestrator struct {
	resolver   Resolver
	downloader download.Downloader
	creds      *credential.Store
	notifier   Notifier

	genMutex sync.Mutex
	gens     map[string]uint64 // per-slot resolve generation
}

// NewOrchestrator wires the pipeline and registers for job updates.
func NewOrchestrator(resolver Resolver, downloader download.Downloader, creds *credential.Store, notifier Notifier) *Orchestrator {
	o := &Orchestrator{
		resolver:   resolver,
		downloader: downloader,
		creds:      creds,
		notifier:   notifier,
		gens:       make(map[string]uint64),
	}
	downloader.SetUpdateCallback(o.onJobUpdate)
	return o
}

// Resolve extracts and classifies a URL from pasted share text and
// resolves its metadata in the background. A newer Resolve on the same
// slot supersedes this one: a stale result is dropped silently.
func (o *Orchestrator) Resolve(slot, rawText string) {
	gen := o.nextGeneration(slot)

	go func() {
		url := platform.ExtractURL(rawText)
		if url == "" {
			o.reportError(slot, gen, fmt.Errorf("no URL found in input"))
			return
		}

		platformID, ok := platform.Classify(url)
		if !ok {
			o.reportError(slot, gen, &parse.ResolutionError{Reason: parse.ReasonUnsupportedPlatform})
			return
		}

		meta, err := o.resolver.Resolve(context.Background(), url, platformID)
		if err != nil {
			o.reportError(slot, gen, err)
			return
		}

		if o.isCurrent(slot, gen) {
			o.notifier.MetadataReady(slot, meta, quality.Options(meta))
		}
	}()
}

// DownloadSelected starts downloading the chosen rendition for the
// slot's resolved video.
func (o *Orchestrator) DownloadSelected(slot string, meta *model.VideoMetadata, option model.RenditionOption) (*model.DownloadJob, error) {
	return o.downloader.Start(download.Request{
		Slot:     slot,
		FileStem: outputStem(meta, option),
		Option:   option,
		Header:   o.transferHeader(meta.Platform),
	})
}

// CancelSlot requests cancellation of the slot's active download.
func (o *Orchestrator) CancelSlot(slot string) error {
	return o.downloader.CancelSlot(slot)
}

// onJobUpdate relays download progress and terminal transitions.
func (o *Orchestrator) onJobUpdate(job *model.DownloadJob) {
	if job.Status.IsFinished() {
		o.notifier.Finished(job)
		return
	}
	o.notifier.Progress(job)
}

// transferHeader builds the CDN request headers for a platform. The
// Bilibili CDN rejects requests without a browser identity, and serves
// member-only renditions only with session cookies attached.
func (o *Orchestrator) transferHeader(platformID model.PlatformID) http.Header {
	header := http.Header{}
	header.Set("User-Agent", bilibili.UserAgent)

	if platformID == model.PlatformBilibili {
		header.Set("Referer", bilibili.Referer)
		header.Set("Origin", bilibili.Origin)
		if bundle, ok := o.creds.Load(); ok {
			header.Set("Cookie", bundle.CookieHeader())
		}
	}
	return header
}

// outputStem derives the output base name: Bilibili videos are named
// after their title, Douyin videos after the download timestamp and
// the chosen resolution label.
func outputStem(meta *model.VideoMetadata, option model.RenditionOption) string {
	if meta.Platform == model.PlatformBilibili && meta.Title != "" {
		return meta.Title
	}
	if option.Label != "" {
		return fmt.Sprintf("%d_%s", time.Now().Unix(), option.Label)
	}
	return fmt.Sprintf("%d", time.Now().Unix())
}

// nextGeneration bumps and returns the slot's resolve generation.
func (o *Orchestrator) nextGeneration(slot string) uint64 {
	o.genMutex.Lock()
	defer o.genMutex.Unlock()
	o.gens[slot]++
	return o.gens[slot]
}

// isCurrent reports whether gen is still the slot's latest resolve.
func (o *Orchestrator) isCurrent(slot string, gen uint64) bool {
	o.genMutex.Lock()
	defer o.genMutex.Unlock()
	return o.gens[slot] == gen
}

// reportError surfaces a failure unless the resolve was superseded.
func (o *Orchestrator) reportError(slot string, gen uint64, err error) {
	if o.isCurrent(slot, gen) {
		o.notifier.Error(slot, err)
	}
}
