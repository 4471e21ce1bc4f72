package ffmpeg

import (
	"encoding/json"
	"fmt"
	"os/exec"
)

type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

type ProbeFormat struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type ProbeStream struct {
	Index       int               `json:"index"`
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"` // video, audio, subtitle
	Tags        map[string]string `json:"tags,omitempty"`
	Disposition struct {
		Default int `json:"default"`
	} `json:"disposition"`
}

// Probe runs ffprobe against the file and returns the parsed stream layout.
func Probe(filePath string) (*ProbeResult, error) {
	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", filePath, err)
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &result, nil
}

// SubtitleStreams filters the probe result down to subtitle streams.
func (r *ProbeResult) SubtitleStreams() []ProbeStream {
	var subs []ProbeStream
	for _, s := range r.Streams {
		if s.CodecType == "subtitle" {
			subs = append(subs, s)
		}
	}
	return subs
}

// ExtractStream remuxes a single stream out of the container into a
// standalone WebVTT file at outputPath.
func ExtractStream(videoPath string, streamIndex int, outputPath string) error {
	cmd := exec.Command("ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", videoPath,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-f", "webvtt",
		outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract stream %d: %w: %s", streamIndex, err, output)
	}
	return nil
}
