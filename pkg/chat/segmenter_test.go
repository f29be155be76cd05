package chat

import "testing"

func TestExtractSentencesEmpty(t *testing.T) {
	sentences, remaining := ExtractSentences("", DefaultAbbreviations)
	if len(sentences) != 0 {
		t.Errorf("expected no sentences, got %v", sentences)
	}
	if remaining != "" {
		t.Errorf("expected empty remainder, got %q", remaining)
	}
}

func TestExtractSentencesSimple(t *testing.T) {
	sentences, remaining := ExtractSentences("Hello there. How are you", DefaultAbbreviations)
	if len(sentences) != 1 || sentences[0] != "Hello there." {
		t.Errorf("expected one sentence 'Hello there.', got %v", sentences)
	}
	if remaining != "How are you" {
		t.Errorf("expected remainder 'How are you', got %q", remaining)
	}
}

func TestExtractSentencesAbbreviation(t *testing.T) {
	abbr := map[string]bool{"t.d.": true}
	sentences, remaining := ExtractSentences("Þetta er t.d. mjög gott. ", abbr)
	if len(sentences) != 1 {
		t.Fatalf("expected exactly one sentence, got %d: %v", len(sentences), sentences)
	}
	if sentences[0] != "Þetta er t.d. mjög gott." {
		t.Errorf("expected joined sentence, got %q", sentences[0])
	}
	if remaining != "" {
		t.Errorf("expected empty remainder, got %q", remaining)
	}
}

func TestSegmenterFeedAcrossDeltas(t *testing.T) {
	abbr := map[string]bool{"t.d.": true}
	s := &Segmenter{Abbreviations: abbr}

	got := s.Feed("Þetta er t.d. ")
	if len(got) != 0 {
		t.Fatalf("expected no sentence yet (abbreviation pending), got %v", got)
	}

	got = s.Feed("mjög gott. ")
	if len(got) != 1 || got[0] != "Þetta er t.d. mjög gott." {
		t.Errorf("expected joined sentence across deltas, got %v", got)
	}
}

func TestSegmenterFlush(t *testing.T) {
	s := NewSegmenter()
	s.Feed("trailing text with no terminal punctuation")
	flushed := s.Flush()
	if len(flushed) != 1 || flushed[0] != "trailing text with no terminal punctuation" {
		t.Errorf("expected flush to emit the remainder, got %v", flushed)
	}
}

func TestSegmenterFlushEmpty(t *testing.T) {
	s := NewSegmenter()
	if got := s.Flush(); got != nil {
		t.Errorf("expected nil for empty buffer flush, got %v", got)
	}
}
