package extract

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/labelminer/labelminer/internal/cache"
	"github.com/labelminer/labelminer/internal/model"
)

// imageIDPattern matches the catalog item identifier embedded in image CDN
// paths: a 10-11 character uppercase alphanumeric token between "/" and a
// ".", "_" or "-" separator.
var imageIDPattern = regexp.MustCompile(`/([A-Z0-9]{10,11})[._-]`)

// ImageID derives the cache key from an image URL. Empty when the URL does
// not carry a recognizable identifier, in which case caching is skipped.
func ImageID(rawURL string) string {
	match := imageIDPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return ""
	}
	return match[1]
}

// VisionAnalyzer is the paid model call behind the extractor.
type VisionAnalyzer interface {
	AnalyzeLabel(ctx context.Context, imageBytes []byte, title, brand string) (model.ExtractionResult, error)
}

// Downloader fetches the selected label image.
type Downloader interface {
	FetchWithRetry(ctx context.Context, rawURL string) ([]byte, error)
}

// Extractor turns a label image URL into the four structured fields,
// memoizing results by image identifier so two rows sharing a label image
// cost one model call between them.
type Extractor struct {
	vision  VisionAnalyzer
	fetcher Downloader
	cache   cache.Cache
	logger  *zap.Logger
	stats   *model.Stats
}

// NewExtractor creates an extractor. A nil cache disables memoization and
// every call becomes a fresh paid request.
func NewExtractor(vision VisionAnalyzer, fetcher Downloader, c cache.Cache, logger *zap.Logger, stats *model.Stats) *Extractor {
	return &Extractor{
		vision:  vision,
		fetcher: fetcher,
		cache:   c,
		logger:  logger,
		stats:   stats,
	}
}

// Analyze always returns a result and never an error: every failure path
// (download, model call, malformed response) degrades to four empty fields so
// one bad image cannot abort the enclosing row loop. Failures are not cached;
// only successful parses become permanent cache entries.
func (e *Extractor) Analyze(ctx context.Context, imageURL, title, brand string) model.ExtractionResult {
	id := ImageID(imageURL)

	if cached, ok := e.lookup(id); ok {
		e.logger.Info("extraction cache hit", zap.String("image_id", id))
		e.stats.CacheHits++
		return cached
	}

	imageBytes, err := e.fetcher.FetchWithRetry(ctx, imageURL)
	if err != nil {
		e.logger.Warn("label image download failed", zap.String("url", imageURL), zap.Error(err))
		return model.ExtractionResult{}
	}

	result, err := e.vision.AnalyzeLabel(ctx, imageBytes, title, brand)
	if err != nil {
		e.logger.Warn("vision extraction failed", zap.String("url", imageURL), zap.Error(err))
		return model.ExtractionResult{}
	}
	e.stats.VisionCalls++

	result.AnalyzedAt = time.Now().UTC()
	result.ProductName = title
	result.Brand = brand
	e.store(id, result)

	return result
}

func (e *Extractor) lookup(id string) (model.ExtractionResult, bool) {
	if id == "" || e.cache == nil {
		return model.ExtractionResult{}, false
	}
	data, found := e.cache.Get(id)
	if !found {
		return model.ExtractionResult{}, false
	}
	var result model.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry is a miss; the fresh result will overwrite it.
		e.logger.Warn("corrupt cache entry", zap.String("image_id", id), zap.Error(err))
		return model.ExtractionResult{}, false
	}
	return result, true
}

func (e *Extractor) store(id string, result model.ExtractionResult) {
	if id == "" || e.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		e.logger.Warn("marshal cache entry", zap.String("image_id", id), zap.Error(err))
		return
	}
	if err := e.cache.Set(id, data); err != nil {
		e.logger.Warn("write cache entry", zap.String("image_id", id), zap.Error(err))
	}
}
