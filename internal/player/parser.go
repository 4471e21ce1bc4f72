// Package player turns timed-text files into cues and resolves which cue
// is on screen at a given playback instant.
package player

import (
	"regexp"
	"strconv"
	"strings"
)

// Cue is a single timed caption: start/end in fractional seconds and the
// text to display, possibly multi-line.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Hours are optional and the millisecond separator is ',' (SRT) or '.' (VTT),
// so one pattern covers both formats.
var timecodeRe = regexp.MustCompile(
	`(?:(\d{2}):)?(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(?:(\d{2}):)?(\d{2}):(\d{2})[,.](\d{3})`)

// Parse converts SRT or WebVTT text into cues, in input order. Format
// headers, counter lines, and incomplete cue blocks are dropped silently.
// Pure function, no I/O.
func Parse(content string) []Cue {
	if content == "" {
		return nil
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var cues []Cue
	var current Cue
	hasTimecode := false
	inText := false

	flush := func() {
		if hasTimecode && current.Text != "" {
			cues = append(cues, current)
		}
		current = Cue{}
		hasTimecode = false
		inText = false
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			flush()
			continue
		}

		if strings.Contains(line, "WEBVTT") {
			continue
		}

		if m := timecodeRe.FindStringSubmatch(line); m != nil {
			current.Start = toSeconds(m[1], m[2], m[3], m[4])
			current.End = toSeconds(m[5], m[6], m[7], m[8])
			hasTimecode = true
			inText = true
			continue
		}

		if inText {
			if current.Text != "" {
				current.Text += "\n"
			}
			current.Text += line
		}
		// Anything else is a counter line or stray header; ignore.
	}
	flush()

	return cues
}

func toSeconds(h, m, s, ms string) float64 {
	hours := 0
	if h != "" {
		hours, _ = strconv.Atoi(h)
	}
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.Atoi(s)
	millis, _ := strconv.Atoi(ms)
	return float64(hours)*3600 + float64(minutes)*60 + float64(seconds) + float64(millis)/1000
}
