package chat

import (
	"regexp"
	"strings"
)

// sentenceEndRE matches a sentence-ending punctuation mark followed by
// whitespace — a candidate sentence boundary.
var sentenceEndRE = regexp.MustCompile(`[.!?]\s+`)

// DefaultAbbreviations is a small, generic abbreviation set whose trailing
// period must not be treated as a sentence boundary. Callers may extend or
// replace it via Segmenter.Abbreviations.
var DefaultAbbreviations = map[string]bool{
	"mr.":   true,
	"mrs.":  true,
	"ms.":   true,
	"dr.":   true,
	"prof.": true,
	"st.":   true,
	"no.":   true,
	"e.g.":  true,
	"i.e.":  true,
	"etc.":  true,
	"vs.":   true,
	"approx.": true,
}

// Segmenter incrementally extracts complete sentences from a streaming text
// buffer, honoring an abbreviation exception set so that "Dr. Smith arrived."
// is not split at "Dr.".
type Segmenter struct {
	Abbreviations map[string]bool
	buffer        strings.Builder
}

// NewSegmenter constructs a Segmenter using DefaultAbbreviations.
func NewSegmenter() *Segmenter {
	return &Segmenter{Abbreviations: DefaultAbbreviations}
}

// Feed appends a text delta to the rolling buffer and returns any sentences
// that can now be confidently emitted.
func (s *Segmenter) Feed(delta string) []string {
	s.buffer.WriteString(delta)
	text := s.buffer.String()
	sentences, remaining := ExtractSentences(text, s.Abbreviations)
	s.buffer.Reset()
	s.buffer.WriteString(remaining)
	return sentences
}

// Flush returns the trimmed remainder of the buffer as a final sentence, if
// non-empty, and resets the buffer.
func (s *Segmenter) Flush() []string {
	remaining := strings.TrimSpace(s.buffer.String())
	s.buffer.Reset()
	if remaining == "" {
		return nil
	}
	return []string{remaining}
}

// ExtractSentences splits complete sentences off the front of text, honoring
// the abbreviation exception set, and returns the unconsumed remainder. An
// abbreviation-ending candidate boundary is glued onto the next true
// boundary's first sentence rather than treated as a split point.
func ExtractSentences(text string, abbreviations map[string]bool) ([]string, string) {
	var sentences []string
	remaining := text

	for {
		loc := sentenceEndRE.FindStringIndex(remaining)
		if loc == nil {
			break
		}

		endPos := loc[0] + 1 // position just after the punctuation mark
		candidate := remaining[:endPos]

		if isAbbreviationEnding(candidate, abbreviations) {
			nextSearchStart := loc[1]
			rest := remaining[nextSearchStart:]
			nextLoc := sentenceEndRE.FindStringIndex(rest)
			if nextLoc == nil {
				break
			}

			subSentences, subRemaining := ExtractSentences(rest, abbreviations)
			if len(subSentences) > 0 {
				sentences = append(sentences, candidate+" "+subSentences[0])
				sentences = append(sentences, subSentences[1:]...)
				remaining = subRemaining
			}
			break
		}

		sentence := strings.TrimSpace(candidate)
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		remaining = remaining[loc[1]:]
	}

	return sentences, remaining
}

func isAbbreviationEnding(text string, abbreviations map[string]bool) bool {
	lower := strings.TrimRight(strings.ToLower(text), " \t\n\r")
	for abbr := range abbreviations {
		if strings.HasSuffix(lower, abbr) {
			return true
		}
	}
	return false
}
