package player

// OffsetStep is the fixed increment users adjust the subtitle delay by.
const OffsetStep = 0.5

// SyncEngine resolves the cue to display for a playback time. It is
// evaluated on every playback tick, so CueAt must stay a cheap in-memory
// scan and never block. The only state between ticks is the offset and
// the enabled flag, both held by the player session.
type SyncEngine struct {
	cues    []Cue
	offset  float64
	enabled bool
}

func NewSyncEngine(cues []Cue) *SyncEngine {
	return &SyncEngine{cues: cues, enabled: true}
}

// SetCues replaces the loaded cues, e.g. when the user switches tracks.
func (e *SyncEngine) SetCues(cues []Cue) {
	e.cues = cues
}

func (e *SyncEngine) SetEnabled(enabled bool) {
	e.enabled = enabled
}

func (e *SyncEngine) Enabled() bool {
	return e.enabled
}

// Nudge shifts the offset by the given number of steps (negative delays,
// positive advances) and returns the new offset in seconds.
func (e *SyncEngine) Nudge(steps int) float64 {
	e.offset += float64(steps) * OffsetStep
	return e.offset
}

func (e *SyncEngine) SetOffset(seconds float64) {
	e.offset = seconds
}

func (e *SyncEngine) Offset() float64 {
	return e.offset
}

// CueAt returns the text for the first cue whose shifted window
// [start+offset, end+offset] contains currentTime, and whether one
// matched. Disabled engines and empty cue lists match nothing.
func (e *SyncEngine) CueAt(currentTime float64) (string, bool) {
	if !e.enabled || len(e.cues) == 0 {
		return "", false
	}
	for _, cue := range e.cues {
		if currentTime >= cue.Start+e.offset && currentTime <= cue.End+e.offset {
			return cue.Text, true
		}
	}
	return "", false
}
