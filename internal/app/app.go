package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"BookStoreScraper/internal/database"
	"BookStoreScraper/internal/desktop"
	"BookStoreScraper/internal/logger"
	"BookStoreScraper/internal/metrics"
	"BookStoreScraper/internal/models"
	"BookStoreScraper/internal/scraper"
	"BookStoreScraper/pkg/config"
	"BookStoreScraper/utils"

	"github.com/sirupsen/logrus"
)

const maxRetries = 3

// App is the main application structure holding all dependencies.
type App struct {
	Config *config.Config
	Repo   *database.DBRepository
	Stores *scraper.Registry

	render *lazyRodBrowser
	// retryDelay is the pause between detail attempts.
	retryDelay time.Duration
}

// New opens the results database and builds every configured store.
func New(cfg *config.Config, extra ...scraper.Option) (*App, error) {
	logger.SetLevel(cfg.Log.Level)

	repo, err := database.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:     cfg,
		Repo:       repo,
		render:     &lazyRodBrowser{headless: cfg.Scraper.Headless},
		retryDelay: time.Second,
	}

	a.Stores, err = scraper.LoadRegistry(cfg, func(sc config.StoreConfig) []scraper.Option {
		opts := []scraper.Option{
			scraper.WithLauncher(desktop.NewSystemLauncher()),
			scraper.WithDialog(desktop.RodDialog{}),
		}
		if sc.Render {
			opts = append(opts, scraper.WithBrowser(a.render.forStore(sc.URL)))
		}
		return append(opts, extra...)
	})
	if err != nil {
		repo.Close()
		return nil, err
	}
	logrus.Infof("Loaded %d stores: %v", len(a.Stores.Names()), a.Stores.Names())
	return a, nil
}

func (a *App) Close() {
	a.render.close()
	a.Repo.Close()
}

// resolveStores maps names to stores. No names means every store.
func (a *App) resolveStores(names []string) ([]*scraper.GenericStore, error) {
	if len(names) == 0 {
		names = a.Stores.Names()
	}
	stores := make([]*scraper.GenericStore, 0, len(names))
	for _, name := range names {
		s, ok := a.Stores.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown store %q", name)
		}
		stores = append(stores, s)
	}
	return stores, nil
}

// Search queries the named stores concurrently. Results keep store order, then page order.
// A failing store does not stop the others; its error is returned joined with the rest.
func (a *App) Search(ctx context.Context, storeNames []string, query string, maxResults int) ([]*models.SearchResult, error) {
	stores, err := a.resolveStores(storeNames)
	if err != nil {
		return nil, err
	}

	perStore := make([][]*models.SearchResult, len(stores))
	errs := make([]error, len(stores))
	jobs := make(chan int)
	var wg sync.WaitGroup

	numWorkers := min(utils.GetOptimalWorkerCount(a.Config.Scraper.Workers), len(stores))
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s := stores[i]
				results, err := s.Search(ctx, query, maxResults, a.Config.Scraper.Timeout)
				metrics.SearchesTotal.WithLabelValues(s.Name(), metrics.Outcome(err)).Inc()
				if err != nil {
					logrus.WithField("store", s.Name()).Warnf("Search failed: %v", err)
					errs[i] = err
					continue
				}
				metrics.ResultsTotal.WithLabelValues(s.Name()).Add(float64(len(results)))
				perStore[i] = results
			}
		}()
	}
	for i := range stores {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var all []*models.SearchResult
	for _, results := range perStore {
		all = append(all, results...)
	}
	return all, errors.Join(errs...)
}

// RunSearch searches and saves every result for a later detail pass.
func (a *App) RunSearch(ctx context.Context, storeNames []string, query string, maxResults int) ([]*models.SearchResult, error) {
	logrus.Infof("--- Searching for %q ---", query)
	results, searchErr := a.Search(ctx, storeNames, query, maxResults)

	var savedCount int
	for _, r := range results {
		status := models.StatusComplete
		if s, ok := a.Stores.Get(r.Store); ok && s.NeedsDetails(r) {
			status = models.StatusNeedsDetails
		}
		if err := a.Repo.SaveResult(*r, status); err != nil {
			logrus.WithError(err).Warn("Failed to save result")
			continue
		}
		savedCount++
	}
	logrus.Infof("Search finished. Saved %d of %d results.", savedCount, len(results))
	return results, searchErr
}

// RunDetailScraper fetches detail pages for every stored result with status 'needs_details'.
func (a *App) RunDetailScraper(ctx context.Context) error {
	logrus.Info("--- Starting Detail Scraping Task ---")

	pending, err := a.Repo.GetResultsForDetails()
	if err != nil {
		return fmt.Errorf("failed to get results for detail scraping: %w", err)
	}
	if len(pending) == 0 {
		logrus.Info("No results are awaiting detail scraping. Task finished.")
		return nil
	}
	logrus.Infof("Found %d results to scrape for details.", len(pending))

	jobs := make(chan models.SearchResult)
	var wg sync.WaitGroup
	numWorkers := min(utils.GetOptimalWorkerCount(a.Config.Scraper.Workers), len(pending))
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for r := range jobs {
				s, ok := a.Stores.Get(r.Store)
				if !ok {
					// Nothing to fetch with; leave the stored fields as they are.
					logrus.Warnf("[Worker %d] Result %d belongs to unknown store %q", workerID, r.ID, r.Store)
					if err := a.Repo.UpdateResultStatus(r.ID, models.StatusDetailsFailed); err != nil {
						logrus.WithError(err).Warnf("[Worker %d] Status update failed for %d", workerID, r.ID)
					}
					continue
				}
				status := a.scrapeDetails(ctx, workerID, s, &r)
				if err := a.Repo.UpdateResultDetails(r, status); err != nil {
					logrus.WithError(err).Warnf("[Worker %d] DB update failed for %s", workerID, r.DetailItem)
				}
			}
		}(w)
	}

	for _, r := range pending {
		jobs <- r
	}
	close(jobs)
	wg.Wait()

	logrus.Info("--- Detail Scraping Task Finished ---")
	return ctx.Err()
}

// scrapeDetails fills r in place and returns the status it should be stored with.
func (a *App) scrapeDetails(ctx context.Context, workerID int, s *scraper.GenericStore, r *models.SearchResult) string {
	log := logrus.WithFields(logrus.Fields{"worker": workerID, "store": s.Name()})
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		_, err = s.GetDetails(ctx, r, a.Config.Scraper.Timeout)
		if err == nil || errors.Is(err, scraper.ErrNotImplemented) || ctx.Err() != nil {
			break
		}
		log.Warnf("Attempt %d failed for %s: %v", attempt, r.DetailItem, err)
		if attempt < maxRetries {
			time.Sleep(a.retryDelay)
		}
	}
	metrics.DetailsTotal.WithLabelValues(s.Name(), metrics.Outcome(err)).Inc()

	switch {
	case err != nil:
		log.Warnf("Giving up on %s: %v", r.DetailItem, err)
		return models.StatusDetailsFailed
	case s.NeedsDetails(r):
		return models.StatusIncomplete
	default:
		log.Debugf("Scraped details for %s", r.Title)
		return models.StatusComplete
	}
}

// RunOpen shows item of the named store, in the system browser when external is set.
func (a *App) RunOpen(ctx context.Context, storeName, item string, external bool) error {
	s, ok := a.Stores.Get(storeName)
	if !ok {
		return fmt.Errorf("unknown store %q", storeName)
	}
	return s.Open(ctx, s.Name(), nil, nil, item, external)
}
