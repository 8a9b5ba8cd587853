package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"BookStoreScraper/internal/models"
	"BookStoreScraper/utils"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// ResultStore is the part of the results database the API reads.
type ResultStore interface {
	GetFilteredResults(filters models.ResultFilters) ([]models.SearchResult, error)
	CountResults(filters models.ResultFilters) (int, error)
}

// Searcher runs live searches against the configured stores.
type Searcher interface {
	Search(ctx context.Context, storeNames []string, query string, maxResults int) ([]*models.SearchResult, error)
}

type Pagination struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	Total       int `json:"total"`
}

type ResultsResponse struct {
	Data       []models.SearchResult `json:"data"`
	Pagination Pagination            `json:"pagination"`
}

type SearchResponse struct {
	Query   string                 `json:"query"`
	Results []*models.SearchResult `json:"results"`
	Errors  string                 `json:"errors,omitempty"`
}

// NewHandler wires the API routes. A non-empty apiKey is required in the X-API-Key header,
// except for /metrics.
func NewHandler(repo ResultStore, searcher Searcher, apiKey string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/results", requireKey(apiKey, resultsHandler(repo)))
	mux.Handle("/search", requireKey(apiKey, searchHandler(searcher)))
	mux.Handle("/metrics", promhttp.Handler())
	return requestLogger(mux)
}

// Start serves the API on port until the server fails.
func Start(port int, handler http.Handler) error {
	addr := fmt.Sprintf(":%d", port)
	logrus.Infof("Starting API server on port %d", port)
	logrus.Infof("Endpoints available at http://localhost%s/results and /search", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func requireKey(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != apiKey {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"query":  r.URL.RawQuery,
			"remote": r.RemoteAddr,
			"took":   time.Since(start),
		}).Debug("http.request")
	})
}

func resultsHandler(repo ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 1. Parse Pagination and Filter Parameters
		queryParams := r.URL.Query()
		page, _ := strconv.Atoi(queryParams.Get("page"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(queryParams.Get("limit"))
		if limit < 1 {
			limit = 20
		}
		filters := models.ResultFilters{
			Store:    queryParams.Get("store"),
			Status:   queryParams.Get("status"),
			Title:    queryParams.Get("title"),
			MaxPrice: utils.ParsePrice(queryParams.Get("max_price")),
		}

		// 2. Get Total Count for Pagination
		total, err := repo.CountResults(filters)
		if err != nil {
			http.Error(w, "Failed to count results", http.StatusInternalServerError)
			return
		}
		totalPages := int(math.Ceil(float64(total) / float64(limit)))

		// 3. Get Paginated Results
		filters.Limit, filters.Offset = limit, (page-1)*limit
		results, err := repo.GetFilteredResults(filters)
		if err != nil {
			http.Error(w, "Failed to get results", http.StatusInternalServerError)
			return
		}
		if results == nil {
			results = []models.SearchResult{}
		}

		writeJSON(w, http.StatusOK, ResultsResponse{
			Data: results,
			Pagination: Pagination{
				TotalPages:  totalPages,
				CurrentPage: page,
				Total:       total,
			},
		})
	}
}

func searchHandler(searcher Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queryParams := r.URL.Query()
		query := queryParams.Get("q")
		if query == "" {
			http.Error(w, "Missing query parameter q", http.StatusBadRequest)
			return
		}
		maxResults, _ := strconv.Atoi(queryParams.Get("max"))
		if maxResults < 1 {
			maxResults = 10
		}

		results, err := searcher.Search(r.Context(), utils.SplitList(queryParams.Get("store")), query, maxResults)
		if err != nil && len(results) == 0 {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		resp := SearchResponse{Query: query, Results: results}
		if resp.Results == nil {
			resp.Results = []*models.SearchResult{}
		}
		if err != nil {
			resp.Errors = err.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}
