// Package corpus discovers paired audio/transcript files on disk.
package corpus

// Entry is one audio/transcript pair sharing a file stem.
type Entry struct {
	Name           string `json:"name"`
	Transcript     string `json:"transcript"`
	ContainingDir  string `json:"containing_dir"`
	AudioPath      string `json:"audio_path"`
	TranscriptPath string `json:"transcript_path"`
}

// Complete reports whether every field is set.
func (e *Entry) Complete() bool {
	return e.Name != "" &&
		e.Transcript != "" &&
		e.ContainingDir != "" &&
		e.AudioPath != "" &&
		e.TranscriptPath != ""
}
