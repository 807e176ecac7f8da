package sequencer

import "fmt"

// noteNames mirrors the teacher's modulation.NoteNames table (internal
// /modulation/modulation.go), the pack's established note-name convention.
var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a MIDI key (0-127) as e.g. "C4", using the gomidi/midi/v2
// octave convention (middle C = C4, MIDI key 60).
func NoteName(key uint8) string {
	octave := int(key)/12 - 1
	name := noteNames[int(key)%12]
	return fmt.Sprintf("%s%d", name, octave)
}

// AllNoteNames returns note names for keys 0-127. The GetNoteNames query
// command does not use it; that command replies with the track node's own
// GetNoteNames result.
func AllNoteNames() []string {
	names := make([]string, 128)
	for k := 0; k < 128; k++ {
		names[k] = NoteName(uint8(k))
	}
	return names
}
