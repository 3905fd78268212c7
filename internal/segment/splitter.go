package segment

import "strings"

// ScriptClass tells the dispatcher which synthesis backend a segment needs.
type ScriptClass string

const (
	// Latin segments go to the generic TTS backend.
	Latin ScriptClass = "latin"
	// Other segments (Han text in practice) go to the Hakka TTS backend.
	Other ScriptClass = "other"
)

// Segment is one script-homogeneous run of a paragraph.
type Segment struct {
	Text  string      `json:"text"`
	Class ScriptClass `json:"class"`
	// Index is the run's position inside its paragraph.
	Index int `json:"index"`
}

// Neutral characters stick to whichever run is currently open, so
// punctuation and digits never force a backend switch mid-sentence.
const neutralChars = " ，。'\",()0123456789:!?.（）、&「」"

func isLatinLetter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	// Fullwidth ａ-ｚ and Ａ-Ｚ show up in scraped Taiwanese news text.
	case r >= 'ａ' && r <= 'ｚ', r >= 'Ａ' && r <= 'Ｚ':
		return true
	}
	return false
}

func isNeutral(r rune) bool {
	return strings.ContainsRune(neutralChars, r)
}

// Split walks text once and cuts it into ordered script-homogeneous runs.
// A new run starts only when a non-neutral rune's class differs from the
// class of the current run. Whitespace-only runs are dropped; runs that are
// pure punctuation survive and classify as Other.
//
// Split is pure: same input, same output, no side effects.
func Split(text string) []Segment {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var raw []string
	current := strings.Builder{}
	current.WriteRune(runes[0])
	isEng := isLatinLetter(runes[0])

	for _, r := range runes[1:] {
		if isNeutral(r) || isLatinLetter(r) == isEng {
			current.WriteRune(r)
			continue
		}
		raw = append(raw, current.String())
		current.Reset()
		current.WriteRune(r)
		isEng = isLatinLetter(r)
	}
	raw = append(raw, current.String())

	segments := make([]Segment, 0, len(raw))
	for _, run := range raw {
		if strings.TrimSpace(run) == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:  run,
			Class: Classify(run),
			Index: len(segments),
		})
	}
	if len(segments) == 0 {
		return nil
	}
	return segments
}

// Classify reports which backend should synthesize a run. The rule is the
// reference one: any Latin letter anywhere in the run makes it Latin.
func Classify(run string) ScriptClass {
	for _, r := range run {
		if isLatinLetter(r) {
			return Latin
		}
	}
	return Other
}
