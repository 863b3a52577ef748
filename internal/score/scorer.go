package score

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Registered so candidate images can be sanity-decoded before OCR.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/labelminer/labelminer/internal/ocr"
)

// Keyword is a lexicon phrase with its score contribution.
type Keyword struct {
	Phrase string
	Weight float64
}

// Profile is one deployed lexicon/threshold set. Anchors are ordered and only
// the first matching anchor contributes, so a softer misread phrase cannot
// stack with the canonical one. Keywords all contribute independently.
type Profile struct {
	Name      string
	Anchors   []Keyword
	Keywords  []Keyword
	Threshold float64
}

// StrictProfile is the conservative deployment: the canonical anchor phrase
// dominates the score and the acceptance bar is high.
func StrictProfile() Profile {
	return Profile{
		Name: "strict",
		Anchors: []Keyword{
			{Phrase: "supplement facts", Weight: 0.9},
			// Tolerates a dropped trailing "s" from OCR misreads.
			{Phrase: "supplement fact", Weight: 0.8},
		},
		Keywords: []Keyword{
			{Phrase: "serving size", Weight: 0.2},
			{Phrase: "servings per container", Weight: 0.2},
			{Phrase: "daily value", Weight: 0.15},
			{Phrase: "% daily value", Weight: 0.15},
			{Phrase: "amount per serving", Weight: 0.1},
		},
		Threshold: 0.6,
	}
}

// BroadProfile is the permissive deployment: a flat lexicon with a lower
// anchor weight and a lower acceptance bar.
func BroadProfile() Profile {
	return Profile{
		Name: "broad",
		Keywords: []Keyword{
			{Phrase: "supplement facts", Weight: 0.5},
			{Phrase: "supplement fact", Weight: 0.05},
			{Phrase: "nutrition facts", Weight: 0.05},
			{Phrase: "serving size", Weight: 0.2},
			{Phrase: "servings per container", Weight: 0.2},
			{Phrase: "amount per serving", Weight: 0.05},
			{Phrase: "daily value", Weight: 0.15},
			{Phrase: "% daily value", Weight: 0.15},
			{Phrase: "%dv", Weight: 0.15},
			{Phrase: "vitamin", Weight: 0.05},
			{Phrase: "mineral", Weight: 0.05},
		},
		Threshold: 0.3,
	}
}

// ProfileByName resolves a configured profile name.
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(name) {
	case "strict":
		return StrictProfile(), nil
	case "broad", "":
		return BroadProfile(), nil
	default:
		return Profile{}, fmt.Errorf("unknown scorer profile: %s (supported: strict, broad)", name)
	}
}

// Result is the relevance determination for one image.
type Result struct {
	Text       string
	Confidence float64
	Keywords   []string
	Relevant   bool
}

// Scorer decides whether an image looks like a supplement-facts label by
// running OCR and weighing recognized text against the profile lexicon.
type Scorer struct {
	recognizer    ocr.Recognizer
	profile       Profile
	minImageBytes int
}

// NewScorer creates a scorer. Images smaller than minImageBytes are rejected
// as placeholders without spending OCR time on them.
func NewScorer(recognizer ocr.Recognizer, profile Profile, minImageBytes int) *Scorer {
	return &Scorer{
		recognizer:    recognizer,
		profile:       profile,
		minImageBytes: minImageBytes,
	}
}

// Threshold returns the acceptance threshold in effect.
func (s *Scorer) Threshold() float64 {
	return s.profile.Threshold
}

// Score runs text recognition over the image and scores the recognized text.
// The result is a pure function of the image bytes: scoring the same bytes
// twice yields identical confidence and keyword sets.
func (s *Scorer) Score(imageBytes []byte) (*Result, error) {
	if len(imageBytes) < s.minImageBytes {
		return nil, fmt.Errorf("image too small: %d bytes (min %d)", len(imageBytes), s.minImageBytes)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageBytes)); err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	text, err := s.recognizer.Recognize(imageBytes)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	result := s.ScoreText(text)
	return result, nil
}

// ScoreText scores already-recognized text. Split out so the determination
// logic is testable without an OCR engine.
func (s *Scorer) ScoreText(text string) *Result {
	haystack := strings.ToLower(text)

	var confidence float64
	var matched []string

	for _, anchor := range s.profile.Anchors {
		if strings.Contains(haystack, anchor.Phrase) {
			confidence += anchor.Weight
			matched = append(matched, anchor.Phrase)
			break
		}
	}

	for _, kw := range s.profile.Keywords {
		if strings.Contains(haystack, kw.Phrase) {
			confidence += kw.Weight
			matched = append(matched, kw.Phrase)
		}
	}

	if confidence > 1.0 {
		confidence = 1.0
	}

	return &Result{
		Text:       text,
		Confidence: confidence,
		Keywords:   matched,
		Relevant:   confidence > s.profile.Threshold,
	}
}
