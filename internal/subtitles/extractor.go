package subtitles

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/movie-server/backend/internal/db"
	"github.com/movie-server/backend/internal/ffmpeg"
)

// ErrProbeFailed indicates the container could not be opened or parsed.
// Fatal for the extraction call; callers degrade to "no subtitles" rather
// than failing the upload.
var ErrProbeFailed = errors.New("probe failed")

// Tool abstracts the external media utilities so tests can fake them.
type Tool interface {
	Probe(videoPath string) (*ffmpeg.ProbeResult, error)
	ExtractStream(videoPath string, streamIndex int, outputPath string) error
}

type execTool struct{}

func (execTool) Probe(videoPath string) (*ffmpeg.ProbeResult, error) {
	return ffmpeg.Probe(videoPath)
}

func (execTool) ExtractStream(videoPath string, streamIndex int, outputPath string) error {
	return ffmpeg.ExtractStream(videoPath, streamIndex, outputPath)
}

// Manifest persists extraction results keyed by the generated video
// filename, so linking later doesn't have to re-derive anything from
// filename conventions.
type Manifest interface {
	RecordExtraction(rec *db.ExtractedSubtitle) error
}

// supportedCodecs are subtitle codecs convertible to WebVTT. Image-based
// codecs (pgs, dvdsub) cannot be remuxed to timed text and are skipped.
var supportedCodecs = map[string]bool{
	"subrip":   true,
	"srt":      true,
	"ass":      true,
	"ssa":      true,
	"mov_text": true,
	"webvtt":   true,
	"text":     true,
}

// Extractor pulls embedded subtitle tracks out of uploaded containers into
// standalone .vtt files under the subtitles directory.
type Extractor struct {
	manifest    Manifest
	tool        Tool
	subtitleDir string
}

func NewExtractor(manifest Manifest, subtitleDir string) *Extractor {
	return &Extractor{manifest: manifest, tool: execTool{}, subtitleDir: subtitleDir}
}

// NewExtractorWithTool is used by tests to inject a fake ffmpeg/ffprobe.
func NewExtractorWithTool(manifest Manifest, subtitleDir string, tool Tool) *Extractor {
	return &Extractor{manifest: manifest, tool: tool, subtitleDir: subtitleDir}
}

// Extract probes videoPath, converts every supported embedded subtitle
// stream to WebVTT concurrently, and returns the successful results.
// Individual stream failures and unsupported codecs are skipped, never
// fatal; only a probe failure errors out. Runs to completion before
// returning so the upload response isn't sent until the files exist.
func (e *Extractor) Extract(videoPath string) ([]*db.ExtractedSubtitle, error) {
	probe, err := e.tool.Probe(videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	streams := probe.SubtitleStreams()
	if len(streams) == 0 {
		return []*db.ExtractedSubtitle{}, nil
	}

	if err := os.MkdirAll(e.subtitleDir, 0755); err != nil {
		return nil, fmt.Errorf("create subtitle dir: %w", err)
	}

	videoFile := filepath.Base(videoPath)
	videoBase := strings.TrimSuffix(videoFile, filepath.Ext(videoFile))

	// Fan out one task per stream. Each task resolves to a result or a
	// logged skip; the group error is never set by design.
	results := make([]*db.ExtractedSubtitle, len(streams))
	var g errgroup.Group
	for i, stream := range streams {
		g.Go(func() error {
			lang := stream.Tags["language"]
			if lang == "" {
				lang = "und"
			}
			label := trackLabel(stream.Tags, i)

			log.Printf("Found subtitle stream %d: codec=%s lang=%s", i, stream.CodecName, lang)

			if !supportedCodecs[strings.ToLower(stream.CodecName)] {
				log.Printf("Skipping unsupported subtitle codec %s (stream %d)", stream.CodecName, i)
				return nil
			}

			filename := fmt.Sprintf("%s_%s_%d.vtt", videoBase, lang, i)
			outputPath := filepath.Join(e.subtitleDir, filename)

			if err := e.tool.ExtractStream(videoPath, stream.Index, outputPath); err != nil {
				log.Printf("Failed to extract subtitle stream %d (%s): %v", i, lang, err)
				return nil
			}

			results[i] = &db.ExtractedSubtitle{
				VideoFile: videoFile,
				Language:  lang,
				Label:     label,
				// Relative to the uploads root, same form the catalog stores
				FilePath: path.Join("subtitles", filename),
			}
			return nil
		})
	}
	g.Wait()

	extracted := []*db.ExtractedSubtitle{}
	for _, rec := range results {
		if rec == nil {
			continue
		}
		if err := e.manifest.RecordExtraction(rec); err != nil {
			// The linker falls back to a directory scan, so a manifest
			// write failure only loses the typed language/label.
			log.Printf("Failed to record extraction of %s: %v", rec.FilePath, err)
		}
		extracted = append(extracted, rec)
	}
	return extracted, nil
}

// trackLabel picks a display label for a stream: its title tag, else the
// display name of its language tag, else a positional fallback.
func trackLabel(tags map[string]string, index int) string {
	if title := tags["title"]; title != "" {
		return title
	}
	if lang := tags["language"]; lang != "" {
		return languageLabel(lang)
	}
	return fmt.Sprintf("Track %d", index+1)
}

// languageLabel turns an ISO language tag into something readable
// ("eng" -> "English"). Unrecognized tags come back unchanged.
func languageLabel(lang string) string {
	tag := language.Make(lang)
	if tag == language.Und {
		return lang
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return lang
}
