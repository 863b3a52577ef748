package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/labelminer/labelminer/internal/catalog"
	"github.com/labelminer/labelminer/internal/model"
	"github.com/labelminer/labelminer/internal/store"
)

// sleepFunc is swapped out by tests to avoid real inter-row delays.
var sleepFunc = time.Sleep

// Catalog is the slice of the catalog client the pipeline drives.
type Catalog interface {
	SearchAllPages(ctx context.Context, term string, maxPages int) []catalog.SearchResult
	ProductDetail(ctx context.Context, asin string) (*catalog.Product, error)
}

// LabelSelector picks the best label image from a product's photo set.
type LabelSelector interface {
	SelectLabelImage(ctx context.Context, urls []string) *model.ImageCandidate
}

// LabelExtractor turns a label image into structured fields. It degrades to
// an empty result instead of failing the row.
type LabelExtractor interface {
	Analyze(ctx context.Context, imageURL, title, brand string) model.ExtractionResult
}

// Pipeline runs the two enrichment phases: term search materializes stub
// rows, detail reconciliation fills them in. Both are resumable; the table
// on disk is the only state.
type Pipeline struct {
	catalog   Catalog
	selector  LabelSelector
	extractor LabelExtractor
	cfg       model.PipelineConfig
	logger    *zap.Logger
	stats     *model.Stats
}

// New creates a pipeline over the given collaborators.
func New(cat Catalog, sel LabelSelector, ext LabelExtractor, cfg model.PipelineConfig, logger *zap.Logger, stats *model.Stats) *Pipeline {
	return &Pipeline{
		catalog:   cat,
		selector:  sel,
		extractor: ext,
		cfg:       cfg,
		logger:    logger,
		stats:     stats,
	}
}

// Run executes both phases end to end: load keywords, materialize rows for
// terms not yet in the table, then reconcile unprocessed rows.
func (p *Pipeline) Run(ctx context.Context) error {
	keywords, err := store.LoadKeywords(p.cfg.KeywordsFile)
	if err != nil {
		return err
	}
	if p.cfg.KeywordLimit > 0 && len(keywords) > p.cfg.KeywordLimit {
		keywords = keywords[:p.cfg.KeywordLimit]
	}

	table, err := store.Load(p.cfg.OutputFile)
	if err != nil {
		return err
	}

	if err := p.Materialize(ctx, table, keywords); err != nil {
		return err
	}
	return p.Reconcile(ctx, table)
}

// Materialize runs the search phase: every term not already present in the
// table gets its search pages fetched and turned into pending rows. The
// table is saved after each term so an interrupted run resumes at the next
// term.
func (p *Pipeline) Materialize(ctx context.Context, table *store.Table, keywords []string) error {
	for _, term := range keywords {
		if err := ctx.Err(); err != nil {
			return err
		}
		if table.HasSearchTerm(term) {
			p.logger.Info("term already materialized", zap.String("term", term))
			continue
		}

		results := p.catalog.SearchAllPages(ctx, term, p.cfg.MaxPages)
		if len(results) == 0 {
			p.logger.Warn("no search results", zap.String("term", term))
			continue
		}

		rows := make([]*model.ProductRecord, 0, len(results))
		for i, res := range results {
			rows = append(rows, materializeRow(table.NextSeq()+i, term, res))
		}
		table.Append(rows)
		if err := table.Save(); err != nil {
			return err
		}
		p.logger.Info("term materialized", zap.String("term", term), zap.Int("rows", len(rows)))
	}
	return nil
}

// Reconcile runs the detail phase over every unprocessed row, up to the
// configured detail limit. A row whose detail fetch fails is left
// unprocessed for the next run and spends none of the limit; everything
// else advances its Status as far as the data allows. The table is saved
// once at the end.
func (p *Pipeline) Reconcile(ctx context.Context, table *store.Table) error {
	enriched := 0
	for _, row := range table.Records {
		if err := ctx.Err(); err != nil {
			if saveErr := table.Save(); saveErr != nil {
				return saveErr
			}
			return err
		}
		if p.cfg.DetailLimit > 0 && enriched >= p.cfg.DetailLimit {
			break
		}
		if row.Processed() {
			p.stats.RowsSkipped++
			continue
		}

		if enriched > 0 && p.cfg.RowDelay > 0 {
			sleepFunc(p.cfg.RowDelay)
		}

		// Failed detail fetches leave the row unprocessed and do not count
		// against the limit; a bad API stretch must not starve healthy rows.
		if !p.reconcileRow(ctx, row) {
			continue
		}
		p.stats.RowsEnriched++
		enriched++
	}
	return table.Save()
}

func (p *Pipeline) reconcileRow(ctx context.Context, row *model.ProductRecord) bool {
	detail, err := p.catalog.ProductDetail(ctx, row.ASIN)
	if err != nil {
		// Leave the row unprocessed so the next run retries it.
		p.logger.Warn("detail fetch failed", zap.String("asin", row.ASIN), zap.Error(err))
		return false
	}

	if strings.TrimSpace(row.Brand) == "" {
		row.Brand = detail.Brand
	}
	row.Category = joinCategories(detail.Categories)
	if len(detail.BestsellersRank) > 0 {
		row.BSR = strconv.Itoa(detail.BestsellersRank[0].Rank)
	}
	row.Status = string(model.StatusDetailFetched)

	candidate := p.selector.SelectLabelImage(ctx, imageLinks(detail.Images))
	if candidate == nil {
		p.logger.Info("no label image", zap.String("asin", row.ASIN))
		return true
	}
	row.LabelImageURL = candidate.URL
	row.Status = string(model.StatusExtractionAttempted)

	result := p.extractor.Analyze(ctx, candidate.URL, row.Title, row.Brand)
	row.Ingredients = result.Ingredients
	row.Dosages = result.Dosages
	if result.AgeGroup != "" {
		row.AgeGroup = result.AgeGroup
	}
	if result.Form != "" {
		row.Form = result.Form
	}
	if !result.Empty() {
		row.Status = string(model.StatusComplete)
	}
	return true
}

func materializeRow(seq int, term string, res catalog.SearchResult) *model.ProductRecord {
	row := &model.ProductRecord{
		Seq:        strconv.Itoa(seq),
		SearchTerm: term,
		ASIN:       res.ASIN,
		Title:      res.Title,
		Brand:      res.Brand,
		Price:      res.Price.Raw,
		ProductURL: res.Link,
		Status:     string(model.StatusPending),
	}
	if res.RatingsTotal > 0 {
		row.ReviewCount = strconv.Itoa(res.RatingsTotal)
	}
	if res.Rating > 0 {
		row.Rating = strconv.FormatFloat(res.Rating, 'f', -1, 64)
	}
	// Search results sometimes carry rank data; it is provisional and gets
	// overwritten by the detail record.
	if len(res.BestsellersRank) > 0 {
		parts := make([]string, 0, len(res.BestsellersRank))
		for _, r := range res.BestsellersRank {
			parts = append(parts, fmt.Sprintf("%s: #%d", r.Category, r.Rank))
		}
		row.BSR = strings.Join(parts, "; ")
	}
	return row
}

func joinCategories(categories []catalog.Category) string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return strings.Join(names, " > ")
}

func imageLinks(images []catalog.ProductImage) []string {
	links := make([]string, 0, len(images))
	for _, img := range images {
		links = append(links, img.Link)
	}
	return links
}
