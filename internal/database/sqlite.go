package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BookStoreScraper/internal/models"
	"BookStoreScraper/utils"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// DBRepository wraps the results database.
type DBRepository struct {
	DB *sql.DB
}

// InitDB opens (or creates) the sqlite database at filepath and creates its tables.
func InitDB(filepath string) (*DBRepository, error) {
	db, err := sql.Open("sqlite", filepath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	// sqlite allows a single writer; detail workers share this handle.
	db.SetMaxOpenConns(1)

	createResultsTableSQL := `
	CREATE TABLE IF NOT EXISTS results (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"store" TEXT NOT NULL,
		"detail_item" TEXT NOT NULL,
		"title" TEXT,
		"author" TEXT,
		"price" TEXT,
		"price_value" REAL,
		"cover_url" TEXT,
		"formats" TEXT,
		"drm" INTEGER DEFAULT 0,
		"status" TEXT DEFAULT 'needs_details',
		"scraped_at" DATETIME,
		UNIQUE(store, detail_item)
	);`
	if _, err = db.Exec(createResultsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating results table: %w", err)
	}

	logrus.Debugf("Database %s initialized", filepath)
	return &DBRepository{DB: db}, nil
}

func (repo *DBRepository) Close() {
	repo.DB.Close()
}

// SaveResult inserts a search result or refreshes the listing fields of an existing one.
// Fields already filled in by a detail fetch are not overwritten with empty values.
func (repo *DBRepository) SaveResult(r models.SearchResult, status string) error {
	query := `
	INSERT INTO results (
		store, detail_item, title, author, price, price_value, cover_url, formats, drm, status, scraped_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(store, detail_item) DO UPDATE SET
		title = CASE WHEN excluded.title NOT IN ('', '...') THEN excluded.title ELSE results.title END,
		author = COALESCE(NULLIF(excluded.author, ''), results.author),
		price = COALESCE(NULLIF(excluded.price, ''), results.price),
		price_value = CASE WHEN excluded.price != '' THEN excluded.price_value ELSE results.price_value END,
		cover_url = COALESCE(NULLIF(excluded.cover_url, ''), results.cover_url),
		formats = COALESCE(NULLIF(excluded.formats, ''), results.formats),
		drm = CASE WHEN excluded.drm != 0 THEN excluded.drm ELSE results.drm END,
		scraped_at = excluded.scraped_at;
	`
	stmt, err := repo.DB.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		r.Store, r.DetailItem, r.Title, r.Author, r.Price, utils.ParsePrice(r.Price),
		r.CoverURL, r.Formats, int(r.DRM), status, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("saving result %s: %w", r.DetailItem, err)
	}
	return nil
}

// GetResultsForDetails returns results with status 'needs_details'.
func (repo *DBRepository) GetResultsForDetails() ([]models.SearchResult, error) {
	return repo.GetFilteredResults(models.ResultFilters{Status: models.StatusNeedsDetails})
}

// UpdateResultDetails stores a result after its detail page was fetched.
func (repo *DBRepository) UpdateResultDetails(r models.SearchResult, status string) error {
	query := `
	UPDATE results SET
		title = ?,
		author = ?,
		price = ?,
		price_value = ?,
		cover_url = ?,
		formats = ?,
		drm = ?,
		status = ?,
		scraped_at = ?
	WHERE id = ?;
	`
	stmt, err := repo.DB.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		r.Title, r.Author, r.Price, utils.ParsePrice(r.Price), r.CoverURL, r.Formats,
		int(r.DRM), status, time.Now(), r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating result %d: %w", r.ID, err)
	}
	return nil
}

// UpdateResultStatus changes the status of a result by its ID.
func (repo *DBRepository) UpdateResultStatus(id int64, newStatus string) error {
	_, err := repo.DB.Exec("UPDATE results SET status = ? WHERE id = ?", newStatus, id)
	return err
}

func filterClause(filters models.ResultFilters) (string, []any) {
	var args []any
	var conditions []string

	if filters.Store != "" {
		conditions = append(conditions, "store = ?")
		args = append(args, filters.Store)
	}
	if filters.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filters.Status)
	}
	if filters.Title != "" {
		conditions = append(conditions, "title LIKE ?")
		args = append(args, "%"+filters.Title+"%")
	}
	if filters.MaxPrice > 0 {
		conditions = append(conditions, "price_value > 0 AND price_value <= ?")
		args = append(args, filters.MaxPrice)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// GetFilteredResults retrieves results matching filters, newest first.
func (repo *DBRepository) GetFilteredResults(filters models.ResultFilters) ([]models.SearchResult, error) {
	where, args := filterClause(filters)
	query := `SELECT id, store, detail_item, COALESCE(title, ''), COALESCE(author, ''), COALESCE(price, ''),
	                 COALESCE(cover_url, ''), COALESCE(formats, ''), drm, status, scraped_at
	          FROM results` + where + " ORDER BY scraped_at DESC, id ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filters.Offset)
		}
	}

	rows, err := repo.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute filtered query: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		var drm int
		if err := rows.Scan(
			&r.ID, &r.Store, &r.DetailItem, &r.Title, &r.Author, &r.Price,
			&r.CoverURL, &r.Formats, &drm, &r.Status, &r.ScrapedAt,
		); err != nil {
			logrus.WithError(err).Warn("Error scanning result row")
			continue
		}
		r.DRM = models.DRM(drm)
		results = append(results, r)
	}
	return results, rows.Err()
}

// CountResults counts results matching filters, ignoring pagination.
func (repo *DBRepository) CountResults(filters models.ResultFilters) (int, error) {
	where, args := filterClause(filters)
	var count int
	err := repo.DB.QueryRow("SELECT COUNT(*) FROM results"+where, args...).Scan(&count)
	return count, err
}
