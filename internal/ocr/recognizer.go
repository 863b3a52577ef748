package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer extracts printed text from raster image bytes.
type Recognizer interface {
	Recognize(image []byte) (string, error)
}

// Tesseract recognizes text with a local tesseract engine. It holds one
// engine handle; not safe for concurrent use, which matches the pipeline's
// one-image-at-a-time execution.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates a tesseract-backed recognizer for English labels.
func NewTesseract() *Tesseract {
	client := gosseract.NewClient()
	_ = client.SetLanguage("eng")
	return &Tesseract{client: client}
}

// Recognize runs OCR over the full image and returns the recognized text.
func (t *Tesseract) Recognize(image []byte) (string, error) {
	if err := t.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

// Close releases the tesseract engine.
func (t *Tesseract) Close() error {
	return t.client.Close()
}
