package score

import (
	"bytes"
	"image"
	"image/png"
	"reflect"
	"testing"
)

// staticRecognizer returns a fixed string for any image.
type staticRecognizer struct {
	text string
	err  error
}

func (r *staticRecognizer) Recognize(_ []byte) (string, error) {
	return r.text, r.err
}

// pngBytes encodes a small white image so the decode check passes.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestScorer_ScoreText_StrictProfile(t *testing.T) {
	scorer := NewScorer(nil, StrictProfile(), 0)

	tests := []struct {
		name           string
		text           string
		wantConfidence float64
		wantRelevant   bool
	}{
		{
			name:           "canonical anchor alone clears threshold",
			text:           "Supplement Facts",
			wantConfidence: 0.9,
			wantRelevant:   true,
		},
		{
			name: "misread anchor does not stack with canonical",
			// "supplement facts" contains "supplement fact"; only the
			// first anchor may contribute.
			text:           "SUPPLEMENT FACTS serving size 2 gummies",
			wantConfidence: 0.9 + 0.2,
			wantRelevant:   true,
		},
		{
			name:           "misread anchor accepted at lower weight",
			text:           "supplement fact",
			wantConfidence: 0.8,
			wantRelevant:   true,
		},
		{
			name:           "secondary keywords alone stay below threshold",
			text:           "serving size servings per container amount per serving",
			wantConfidence: 0.2 + 0.2 + 0.1,
			wantRelevant:   false,
		},
		{
			name:           "unrelated text scores zero",
			text:           "family photo on the beach",
			wantConfidence: 0,
			wantRelevant:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.ScoreText(tt.text)
			if got.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if got.Relevant != tt.wantRelevant {
				t.Errorf("relevant = %v, want %v", got.Relevant, tt.wantRelevant)
			}
		})
	}
}

func TestScorer_ScoreText_CapsAtOne(t *testing.T) {
	scorer := NewScorer(nil, StrictProfile(), 0)
	got := scorer.ScoreText("supplement facts serving size servings per container daily value % daily value amount per serving")
	if got.Confidence != 1.0 {
		t.Errorf("expected confidence capped at 1.0, got %v", got.Confidence)
	}
}

func TestScorer_ScoreText_ThresholdIsStrict(t *testing.T) {
	// A score exactly at the threshold must not be relevant.
	profile := Profile{
		Name:      "exact",
		Keywords:  []Keyword{{Phrase: "serving size", Weight: 0.3}},
		Threshold: 0.3,
	}
	scorer := NewScorer(nil, profile, 0)
	got := scorer.ScoreText("serving size")
	if got.Confidence != 0.3 {
		t.Fatalf("confidence = %v, want 0.3", got.Confidence)
	}
	if got.Relevant {
		t.Error("score equal to threshold must not be relevant")
	}
}

func TestScorer_Score_Deterministic(t *testing.T) {
	rec := &staticRecognizer{text: "Supplement Facts\nServing Size 1 tablet\n% Daily Value"}
	scorer := NewScorer(rec, BroadProfile(), 10)
	img := pngBytes(t)

	first, err := scorer.Score(img)
	if err != nil {
		t.Fatalf("first score: %v", err)
	}
	second, err := scorer.Score(img)
	if err != nil {
		t.Fatalf("second score: %v", err)
	}

	if first.Confidence != second.Confidence {
		t.Errorf("confidence differs across runs: %v vs %v", first.Confidence, second.Confidence)
	}
	if !reflect.DeepEqual(first.Keywords, second.Keywords) {
		t.Errorf("keyword sets differ across runs: %v vs %v", first.Keywords, second.Keywords)
	}
}

func TestScorer_Score_RejectsTinyImage(t *testing.T) {
	scorer := NewScorer(&staticRecognizer{text: "supplement facts"}, BroadProfile(), 10_000)
	if _, err := scorer.Score([]byte("tiny")); err == nil {
		t.Error("expected error for image below minimum byte size")
	}
}

func TestScorer_Score_RejectsUndecodableBytes(t *testing.T) {
	scorer := NewScorer(&staticRecognizer{text: "supplement facts"}, BroadProfile(), 4)
	junk := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 64)
	if _, err := scorer.Score(junk); err == nil {
		t.Error("expected error for undecodable bytes")
	}
}

func TestProfileByName(t *testing.T) {
	if p, err := ProfileByName("strict"); err != nil || p.Threshold != 0.6 {
		t.Errorf("strict profile: %+v, %v", p, err)
	}
	if p, err := ProfileByName(""); err != nil || p.Threshold != 0.3 {
		t.Errorf("default profile: %+v, %v", p, err)
	}
	if _, err := ProfileByName("bogus"); err == nil {
		t.Error("expected error for unknown profile")
	}
}
