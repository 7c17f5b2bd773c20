// Package media holds the gallery's data model: queries, result pages and
// the photo/video items returned by the stock-media search.
package media

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// MediaType selects between photo and video search
type MediaType string

const (
	MediaTypeImages MediaType = "images"
	MediaTypeVideos MediaType = "videos"
)

// ParseMediaType parses "images"/"videos" (and a few aliases)
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "images", "image", "photos", "photo":
		return MediaTypeImages, nil
	case "videos", "video":
		return MediaTypeVideos, nil
	default:
		return "", fmt.Errorf("%w: unknown media type %q", ErrInvalidQuery, s)
	}
}

// String returns the string representation of MediaType
func (t MediaType) String() string {
	return string(t)
}

// Toggle returns the other media type
func (t MediaType) Toggle() MediaType {
	if t == MediaTypeVideos {
		return MediaTypeImages
	}
	return MediaTypeVideos
}

// Query is the user-controlled search input.
// Any field change invalidates the current result set.
type Query struct {
	Term      string    `json:"term"`
	Category  string    `json:"category"`
	MediaType MediaType `json:"media_type"`
}

// EffectiveTerm is what gets sent upstream: the typed term, or the
// selected category when nothing was typed.
func (q Query) EffectiveTerm() string {
	if term := strings.TrimSpace(q.Term); term != "" {
		return term
	}
	return strings.ToLower(strings.TrimSpace(q.Category))
}

// Validate reports ErrInvalidQuery when there is nothing to search for
func (q Query) Validate() error {
	if q.EffectiveTerm() == "" {
		return fmt.Errorf("%w: search term is required", ErrInvalidQuery)
	}
	return nil
}

// Type returns the media type, defaulting to images
func (q Query) Type() MediaType {
	if q.MediaType == "" {
		return MediaTypeImages
	}
	return q.MediaType
}

func (q Query) String() string {
	return fmt.Sprintf("%s:%s", q.Type(), q.EffectiveTerm())
}

// Item is a single search result, either a *Photo or a *Video
type Item interface {
	// MediaID is the upstream identifier
	MediaID() int64
	Type() MediaType
	// DisplayURL is the grid-sized rendition (photo) or poster image (video)
	DisplayURL() string
	// FullURL is the full-resolution asset used for downloads
	FullURL() string
	// PageURL is the item's page on the provider's website
	PageURL() string
	// Caption is a short human-readable description
	Caption() string
	// Credit names the photographer or uploader
	Credit() string
}

// PhotoSource holds the rendition URLs of a photo
type PhotoSource struct {
	Original  string `json:"original"`
	Large2x   string `json:"large2x"`
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Small     string `json:"small"`
	Portrait  string `json:"portrait"`
	Landscape string `json:"landscape"`
	Tiny      string `json:"tiny"`
}

// Photo is a still image result
type Photo struct {
	ID              int64       `json:"id"`
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	URL             string      `json:"url"`
	Photographer    string      `json:"photographer"`
	PhotographerURL string      `json:"photographer_url"`
	PhotographerID  int64       `json:"photographer_id"`
	AvgColor        string      `json:"avg_color"`
	Src             PhotoSource `json:"src"`
	Alt             string      `json:"alt"`
}

func (p *Photo) MediaID() int64  { return p.ID }
func (p *Photo) Type() MediaType { return MediaTypeImages }
func (p *Photo) PageURL() string { return p.URL }
func (p *Photo) Credit() string  { return p.Photographer }

// DisplayURL prefers the large rendition, like the grid cards do
func (p *Photo) DisplayURL() string {
	return firstNonEmpty(p.Src.Large, p.Src.Medium, p.Src.Original)
}

// FullURL returns the original upload
func (p *Photo) FullURL() string {
	return firstNonEmpty(p.Src.Original, p.Src.Large2x, p.Src.Large)
}

// Caption returns the alt text, falling back to the photo id
func (p *Photo) Caption() string {
	if alt := strings.TrimSpace(p.Alt); alt != "" {
		return alt
	}
	return fmt.Sprintf("Photo %d", p.ID)
}

// VideoFile is one encoded variant of a video
type VideoFile struct {
	ID       int64   `json:"id"`
	Quality  string  `json:"quality"`
	FileType string  `json:"file_type"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Link     string  `json:"link"`
}

// VideoPicture is a preview frame
type VideoPicture struct {
	ID      int64  `json:"id"`
	Picture string `json:"picture"`
	Nr      int    `json:"nr"`
}

// VideoUser is the uploader of a video
type VideoUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Video is a video result with its source variants
type Video struct {
	ID            int64          `json:"id"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	URL           string         `json:"url"`
	Image         string         `json:"image"`
	Duration      int            `json:"duration"` // seconds
	User          VideoUser      `json:"user"`
	VideoFiles    []VideoFile    `json:"video_files"`
	VideoPictures []VideoPicture `json:"video_pictures,omitempty"`
}

// DefaultVideoQuality is the variant picked when available
const DefaultVideoQuality = "hd"

func (v *Video) MediaID() int64     { return v.ID }
func (v *Video) Type() MediaType    { return MediaTypeVideos }
func (v *Video) PageURL() string    { return v.URL }
func (v *Video) Credit() string     { return v.User.Name }
func (v *Video) DisplayURL() string { return v.Image }

// FullURL returns the link of the preferred variant
func (v *Video) FullURL() string {
	if f, ok := v.BestFile(DefaultVideoQuality); ok {
		return f.Link
	}
	return ""
}

// BestFile returns the first variant matching quality, else the first variant
func (v *Video) BestFile(quality string) (VideoFile, bool) {
	if len(v.VideoFiles) == 0 {
		return VideoFile{}, false
	}
	for _, f := range v.VideoFiles {
		if strings.EqualFold(f.Quality, quality) {
			return f, true
		}
	}
	return v.VideoFiles[0], true
}

// Length returns the duration as a time.Duration
func (v *Video) Length() time.Duration {
	return time.Duration(v.Duration) * time.Second
}

// Caption derives a description from the page slug, e.g.
// https://www.pexels.com/video/waves-crashing-on-rocks-123/ -> "Waves crashing on rocks"
func (v *Video) Caption() string {
	slug := path.Base(strings.TrimSuffix(v.URL, "/"))
	if idx := strings.LastIndex(slug, "-"); idx > 0 {
		slug = slug[:idx]
	}
	slug = strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
	if slug == "" || slug == "." || slug == fmt.Sprint(v.ID) {
		return fmt.Sprintf("Video %d", v.ID)
	}
	return strings.ToUpper(slug[:1]) + slug[1:]
}

// ResultPage is one page of results, returned atomically per fetch
type ResultPage struct {
	Items        []Item    `json:"-"`
	TotalResults int       `json:"total_results"`
	Page         int       `json:"page"`
	PerPage      int       `json:"per_page"`
	MediaType    MediaType `json:"media_type"`
}

// IsLast reports whether this page exhausts the result set: an empty page,
// or page*pageSize reaching the total.
func (p *ResultPage) IsLast(pageSize int) bool {
	if len(p.Items) == 0 {
		return true
	}
	return p.Page*pageSize >= p.TotalResults
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
