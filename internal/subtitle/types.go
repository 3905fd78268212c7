package subtitle

// Block is one subtitle entry, derived from a paragraph after audio
// assembly. Start and End are absolute offsets into the final audio file in
// milliseconds. Index starts at 1 to match SRT numbering.
type Block struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}
