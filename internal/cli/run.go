package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/labelminer/labelminer/internal/cache"
	"github.com/labelminer/labelminer/internal/catalog"
	"github.com/labelminer/labelminer/internal/extract"
	"github.com/labelminer/labelminer/internal/fetch"
	"github.com/labelminer/labelminer/internal/model"
	"github.com/labelminer/labelminer/internal/ocr"
	"github.com/labelminer/labelminer/internal/pipeline"
	"github.com/labelminer/labelminer/internal/score"
	"github.com/labelminer/labelminer/internal/selector"
	"github.com/labelminer/labelminer/internal/vision"
)

// Bodies below this size are CDN error placeholders, not product photos.
const minImageBytes = 1000

var (
	keywordsFile string
	outputFile   string
	maxPages     int
	detailLimit  int
	keywordLimit int
	profileName  string
	cacheDir     string
	noCache      bool
	rowDelay     time.Duration
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the enrichment pipeline over a keywords file",
	Long: `Run searches the catalog for every term in the keywords file, then
reconciles each new row: product detail, label image discovery via OCR
scoring, and Supplement Facts extraction via the vision model.

Interrupting a run is safe; the next run resumes from the saved table.

Example:
  labelminer run --keywords keywords.csv --output products.csv
  labelminer run --detail-limit 50 --profile strict`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&keywordsFile, "keywords", "keywords.csv", "keywords CSV (terms in the second column)")
	runCmd.Flags().StringVar(&outputFile, "output", "products.csv", "output table CSV path")
	runCmd.Flags().IntVar(&maxPages, "max-pages", 2, "search pages per term")
	runCmd.Flags().IntVar(&detailLimit, "detail-limit", 0, "max rows to reconcile this run (0 = all)")
	runCmd.Flags().IntVar(&keywordLimit, "keyword-limit", 0, "max terms to process this run (0 = all)")
	runCmd.Flags().StringVar(&profileName, "profile", "broad", "label scoring profile (strict, broad)")
	runCmd.Flags().StringVar(&cacheDir, "cache-dir", "cache", "extraction cache directory")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the extraction cache")
	runCmd.Flags().DurationVar(&rowDelay, "row-delay", time.Second, "pause between reconciled rows")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.Pipeline.KeywordsFile = keywordsFile
	cfg.Pipeline.OutputFile = outputFile
	cfg.Pipeline.MaxPages = maxPages
	cfg.Pipeline.DetailLimit = detailLimit
	cfg.Pipeline.KeywordLimit = keywordLimit
	cfg.Pipeline.RowDelay = rowDelay
	cfg.Scorer.Profile = profileName
	cfg.Cache.Dir = cacheDir
	cfg.Cache.Enabled = !noCache

	if cfg.Catalog.APIKey == "" {
		cfg.Catalog.APIKey = os.Getenv("RAINFOREST_API_KEY")
	}
	if cfg.Catalog.APIKey == "" {
		return fmt.Errorf("RAINFOREST_API_KEY environment variable not set")
	}
	if cfg.Vision.APIKey == "" {
		cfg.Vision.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Vision.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	profile, err := score.ProfileByName(cfg.Scorer.Profile)
	if err != nil {
		return err
	}
	if cfg.Scorer.Threshold > 0 {
		profile.Threshold = cfg.Scorer.Threshold
	}

	stats := model.NewStats()

	recognizer := ocr.NewTesseract()
	defer recognizer.Close()

	imageFetcher := fetch.NewFetcher(cfg.HTTP.ImageTimeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, minImageBytes)
	scorer := score.NewScorer(recognizer, profile, cfg.Scorer.MinImageBytes)
	sel := selector.NewSelector(imageFetcher, scorer, logger, stats)

	var extractionCache cache.Cache
	if cfg.Cache.Enabled {
		extractionCache = cache.NewLayeredCache(cfg.Cache.Dir)
	}
	visionClient := vision.NewClient(cfg.Vision)
	extractor := extract.NewExtractor(visionClient, imageFetcher, extractionCache, logger, stats)

	catalogClient := catalog.NewClient(cfg.Catalog, logger, stats)
	p := pipeline.New(catalogClient, sel, extractor, cfg.Pipeline, logger, stats)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := p.Run(ctx)

	// The summary prints even on failure; partial progress is still progress.
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, stats.Summary())

	if runErr != nil {
		return fmt.Errorf("pipeline: %w", runErr)
	}
	return nil
}

// loadConfig overlays the viper-resolved config file onto the defaults.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring malformed config: %v\n", err)
		return model.DefaultConfig()
	}
	return cfg
}
