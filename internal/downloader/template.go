package downloader

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/justchokingaround/inspire/internal/media"
)

const (
	DefaultPhotoTemplate = "pexels-photo-{id}"
	DefaultVideoTemplate = "pexels-video-{id}"
)

var (
	templateVarPattern = regexp.MustCompile(`\{([a-z]+)\}`)
	extPattern         = regexp.MustCompile(`^[a-z0-9]{2,5}$`)
	spacePattern       = regexp.MustCompile(`\s+`)
)

// ParseTemplate replaces template variables with task data and appends the
// file extension. Supported variables:
//
//	{id}     - Pexels media id
//	{type}   - photo or video
//	{credit} - photographer or uploader name
func ParseTemplate(template string, task Task) (string, error) {
	if err := ValidateTemplate(template); err != nil {
		return "", err
	}

	kind := "photo"
	if task.MediaType == media.MediaTypeVideos {
		kind = "video"
	}

	result := strings.NewReplacer(
		"{id}", strconv.FormatInt(task.MediaID, 10),
		"{type}", kind,
		"{credit}", task.Credit,
	).Replace(template)

	return SanitizeFilename(result) + "." + ExtensionFromURL(task.SourceURL, task.MediaType), nil
}

// ExtensionFromURL returns the lowercase extension of the URL path, or jpg/mp4
// when the URL has none
func ExtensionFromURL(rawURL string, mediaType media.MediaType) string {
	fallback := "jpg"
	if mediaType == media.MediaTypeVideos {
		fallback = "mp4"
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if !extPattern.MatchString(ext) {
		return fallback
	}
	return ext
}

// TemplateFor returns the configured template for a media type
func TemplateFor(mediaType media.MediaType, photoTemplate, videoTemplate string) string {
	if mediaType == media.MediaTypeVideos {
		if videoTemplate == "" {
			return DefaultVideoTemplate
		}
		return videoTemplate
	}
	if photoTemplate == "" {
		return DefaultPhotoTemplate
	}
	return photoTemplate
}

// ValidateTemplate checks if a template string is valid
func ValidateTemplate(template string) error {
	if template == "" {
		return fmt.Errorf("template cannot be empty")
	}

	openBraces := strings.Count(template, "{")
	closeBraces := strings.Count(template, "}")
	if openBraces != closeBraces {
		return fmt.Errorf("unbalanced braces in template: %d open, %d close", openBraces, closeBraces)
	}

	validVars := map[string]bool{
		"id":     true,
		"type":   true,
		"credit": true,
	}
	for _, match := range templateVarPattern.FindAllStringSubmatch(template, -1) {
		if !validVars[match[1]] {
			return fmt.Errorf("invalid template variable: {%s}", match[1])
		}
	}

	return nil
}

// SanitizeFilename removes or replaces characters that are unsafe in file names
func SanitizeFilename(filename string) string {
	replacements := map[rune]string{
		'/':  "-",
		'\\': "-",
		':':  " -",
		'*':  "",
		'?':  "",
		'"':  "'",
		'<':  "",
		'>':  "",
		'|':  "-",
		'\n': " ",
		'\r': " ",
		'\t': " ",
	}

	var result strings.Builder
	result.Grow(len(filename))

	for _, ch := range filename {
		if replacement, exists := replacements[ch]; exists {
			result.WriteString(replacement)
		} else if unicode.IsPrint(ch) {
			result.WriteRune(ch)
		}
	}

	cleaned := spacePattern.ReplaceAllString(result.String(), " ")

	// leading/trailing dots and spaces break on Windows
	cleaned = strings.Trim(cleaned, " .")

	if cleaned == "" {
		cleaned = "download"
	}

	if len(cleaned) > 200 {
		cleaned = strings.TrimRight(cleaned[:200], " .-")
	}

	return cleaned
}

// EnsureUniqueFilename returns path, or path with (1), (2), ... appended
// before the extension when a file already exists there
func EnsureUniqueFilename(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	nameWithoutExt := strings.TrimSuffix(filepath.Base(path), ext)

	for i := 1; i < 1000; i++ {
		newPath := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", nameWithoutExt, i, ext))
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			return newPath
		}
	}

	return path
}
