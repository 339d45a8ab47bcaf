package transcript

import (
	"math"
	"strconv"
	"strings"
)

const (
	// maxSegmentChars is the length past which a segment is flushed at the
	// next sentence boundary, keeping individual embeddings at a manageable
	// token count.
	maxSegmentChars = 1000
	// minTailChars: a shorter trailing segment carries too little signal to
	// embed on its own and is merged into the previous one.
	minTailChars = 100

	defaultSpeaker = "spk_0"
)

// Segment is a run of consecutive words by one speaker.
type Segment struct {
	StartSecond int
	Speaker     string
	Text        string
}

type word struct {
	second  int
	speaker string
	text    string
}

// ParseSegments converts a transcript document into ordered speaker
// segments: words are attributed to speakers, punctuation attaches to the
// preceding word, and consecutive same-speaker words join into segments.
func ParseSegments(document *Document) []Segment {
	return combineBySpeaker(processItems(document.Results.Items))
}

// processItems flattens transcript items into word tuples. Punctuation items
// append to the previous word without a space; a leading punctuation item
// with nothing to attach to is dropped.
func processItems(items []Item) []word {
	words := make([]word, 0, len(items))
	for _, item := range items {
		if len(item.Alternatives) == 0 {
			continue
		}
		content := item.Alternatives[0].Content

		if item.Type == "punctuation" {
			if len(words) > 0 {
				words[len(words)-1].text += content
			}
			continue
		}

		second := 0
		if start, err := strconv.ParseFloat(item.StartTime, 64); err == nil {
			second = int(math.Floor(start))
		}
		speaker := item.SpeakerLabel
		if speaker == "" {
			speaker = defaultSpeaker
		}
		words = append(words, word{second: second, speaker: speaker, text: content})
	}
	return words
}

// combineBySpeaker joins consecutive same-speaker words with single spaces.
// A segment is flushed when the speaker changes, or early once it exceeds
// maxSegmentChars and ends on a sentence boundary. A short trailing segment
// merges into the previous one when both share a speaker.
func combineBySpeaker(words []word) []Segment {
	if len(words) == 0 {
		return nil
	}

	var segments []Segment
	var current *Segment

	for _, w := range words {
		if current == nil {
			current = &Segment{StartSecond: w.second, Speaker: w.speaker, Text: w.text}
			continue
		}

		if w.speaker == current.Speaker {
			current.Text += " " + w.text
			if len(current.Text) > maxSegmentChars && endsSentence(current.Text) {
				segments = append(segments, *current)
				current = nil
			}
			continue
		}

		segments = append(segments, *current)
		current = &Segment{StartSecond: w.second, Speaker: w.speaker, Text: w.text}
	}
	if current != nil {
		segments = append(segments, *current)
	}

	if len(segments) > 1 {
		last := segments[len(segments)-1]
		previous := segments[len(segments)-2]
		if len(last.Text) < minTailChars && last.Speaker == previous.Speaker {
			segments[len(segments)-2].Text = previous.Text + " " + last.Text
			segments = segments[:len(segments)-1]
		}
	}

	return segments
}

func endsSentence(text string) bool {
	trimmed := strings.TrimRight(text, " ")
	return strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?")
}
