package models

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Position is the corner of the canvas the overlay circle is anchored to
type Position string

const (
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
)

// Positions lists every supported anchor in display order
var Positions = []Position{
	PositionTopLeft,
	PositionTopRight,
	PositionBottomLeft,
	PositionBottomRight,
}

// ParsePosition maps a user supplied anchor onto a Position.
// Unknown values fall back to bottom-right instead of failing.
func ParsePosition(s string) Position {
	switch Position(strings.ToLower(strings.TrimSpace(s))) {
	case PositionTopLeft:
		return PositionTopLeft
	case PositionTopRight:
		return PositionTopRight
	case PositionBottomLeft:
		return PositionBottomLeft
	default:
		return PositionBottomRight
	}
}

// Defaults applied when a request leaves a field empty
const (
	DefaultDurationSeconds = 30
	DefaultOverlaySize     = 300
)

// CompositionRequest describes one personalized video to produce
type CompositionRequest struct {
	BaseVideoURL    string         `json:"baseVideoURL"`
	BackgroundURL   string         `json:"backgroundURL"`
	Position        Position       `json:"position"`
	Size            int            `json:"size"`
	DurationSeconds float64        `json:"durationSeconds"`
	OwnerScopeID    string         `json:"ownerScopeID"`
	BackgroundKind  BackgroundKind `json:"backgroundKind,omitempty"`
}

// WithDefaults returns a copy of the request with empty fields filled in
func (r CompositionRequest) WithDefaults() CompositionRequest {
	if r.DurationSeconds == 0 {
		r.DurationSeconds = DefaultDurationSeconds
	}
	if r.Size == 0 {
		r.Size = DefaultOverlaySize
	}
	r.Position = ParsePosition(string(r.Position))
	r.BackgroundKind = BackgroundKind(strings.ToLower(strings.TrimSpace(string(r.BackgroundKind))))
	return r
}

// Validate checks the request for values the pipeline cannot work with
func (r CompositionRequest) Validate() error {
	if err := validateHTTPURL("base video URL", r.BaseVideoURL); err != nil {
		return err
	}
	if err := validateHTTPURL("background URL", r.BackgroundURL); err != nil {
		return err
	}
	if r.Size <= 0 {
		return fmt.Errorf("overlay size must be a positive integer, got %d", r.Size)
	}
	if r.DurationSeconds <= 0 {
		return fmt.Errorf("duration must be positive, got %g", r.DurationSeconds)
	}
	switch r.BackgroundKind {
	case "", BackgroundImage, BackgroundVideo:
	default:
		return fmt.Errorf("background kind must be image or video, got %q", r.BackgroundKind)
	}
	return nil
}

// ValidateBaseVideo checks only the base video URL, the fallback target
func (r CompositionRequest) ValidateBaseVideo() error {
	return validateHTTPURL("base video URL", r.BaseVideoURL)
}

func validateHTTPURL(name, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be http or https, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host", name)
	}
	return nil
}

// BackgroundKind tells the compositor how to prepare the background input
type BackgroundKind string

const (
	BackgroundImage BackgroundKind = "image"
	BackgroundVideo BackgroundKind = "video"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
	".m4v":  true,
	".mkv":  true,
}

// DetectBackgroundKind guesses the background kind from the URL path.
// The capture service serves scrolling captures as video files and
// screenshots as images, so the extension is enough in practice.
func DetectBackgroundKind(rawURL string) BackgroundKind {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	if videoExtensions[strings.ToLower(path.Ext(p))] {
		return BackgroundVideo
	}
	return BackgroundImage
}

// KindFromContentType maps an HTTP Content-Type onto an AssetKind.
// It returns false when the type says nothing useful.
func KindFromContentType(contentType string) (AssetKind, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "video/"):
		return AssetVideo, true
	case strings.HasPrefix(ct, "image/"):
		return AssetImage, true
	}
	return "", false
}

// Background is the prepared-input variant the compositor dispatches on
type Background struct {
	Kind BackgroundKind
	Path string
}

// StaticImage wraps a screenshot background
func StaticImage(path string) Background {
	return Background{Kind: BackgroundImage, Path: path}
}

// ScrollingVideo wraps a scrolling capture background
func ScrollingVideo(path string) Background {
	return Background{Kind: BackgroundVideo, Path: path}
}

// IsVideo reports whether the background is a moving capture
func (b Background) IsVideo() bool {
	return b.Kind == BackgroundVideo
}
