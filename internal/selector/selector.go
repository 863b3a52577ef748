package selector

import (
	"context"

	"go.uber.org/zap"

	"github.com/labelminer/labelminer/internal/model"
	"github.com/labelminer/labelminer/internal/score"
)

// ImageFetcher downloads one candidate image. Single attempt: a candidate
// that fails to download is skipped, not retried.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// ImageScorer decides whether downloaded bytes look like a label image.
type ImageScorer interface {
	Score(imageBytes []byte) (*score.Result, error)
}

// Selector picks the label image among a product's photos.
type Selector struct {
	fetcher ImageFetcher
	scorer  ImageScorer
	logger  *zap.Logger
	stats   *model.Stats
}

// NewSelector creates a selector.
func NewSelector(fetcher ImageFetcher, scorer ImageScorer, logger *zap.Logger, stats *model.Stats) *Selector {
	return &Selector{
		fetcher: fetcher,
		scorer:  scorer,
		logger:  logger,
		stats:   stats,
	}
}

// SelectLabelImage evaluates every candidate URL in input order and returns
// the accepted candidate with the highest confidence, or nil when none clears
// the threshold. All candidates are scored even after a hit, since a later
// photo may be a better label, and the strict > comparison keeps the earliest of
// tied candidates. Download and scoring failures mark that one candidate
// inaccessible and never abort the loop.
func (s *Selector) SelectLabelImage(ctx context.Context, urls []string) *model.ImageCandidate {
	var best *model.ImageCandidate

	for _, rawURL := range urls {
		if rawURL == "" {
			continue
		}

		candidate := s.evaluate(ctx, rawURL)
		if candidate == nil || !candidate.Accepted {
			continue
		}

		s.logger.Info("label image candidate accepted",
			zap.String("url", rawURL),
			zap.Float64("confidence", candidate.Confidence),
			zap.Strings("keywords", candidate.Keywords))

		if best == nil || candidate.Confidence > best.Confidence {
			best = candidate
		}
	}

	if best != nil {
		s.stats.LabelsFound++
	}
	return best
}

func (s *Selector) evaluate(ctx context.Context, rawURL string) *model.ImageCandidate {
	body, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.logger.Debug("candidate not accessible", zap.String("url", rawURL), zap.Error(err))
		return nil
	}

	result, err := s.scorer.Score(body)
	if err != nil {
		s.logger.Debug("candidate rejected", zap.String("url", rawURL), zap.Error(err))
		return nil
	}

	return &model.ImageCandidate{
		URL:        rawURL,
		ByteSize:   len(body),
		Text:       result.Text,
		Confidence: result.Confidence,
		Keywords:   result.Keywords,
		Accepted:   result.Relevant,
	}
}
