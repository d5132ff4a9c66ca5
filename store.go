package main

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"mliatlas/internal/mli"
)

// Store is the embedded DuckDB analytics database built from the two
// JSON inputs. The relational mirror exists for ad-hoc SQL: the query,
// summarize, schema, and ask commands all run against it, while the
// dashboard views compute directly from the in-memory dataset.
type Store struct {
	conn    *sql.DB
	dataDir string
}

// NewStore opens (or creates) the DuckDB file in dataDir and loads the
// dataset and divergence analysis into it. Tables are rebuilt on every
// open so the database always mirrors the current JSON files.
func NewStore(dataDir string, ds *mli.Dataset, div *Divergence) (*Store, error) {
	dbPath := filepath.Join(dataDir, "mliatlas.duckdb")

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to open DuckDB database", "error", err, "db_path", dbPath)
		}
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	s := &Store{conn: conn, dataDir: dataDir}

	if err := s.loadTables(ds, div); err != nil {
		conn.Close()
		if logger != nil {
			logger.Error("Database initialization failed", "error", err, "db_path", dbPath)
		}
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := s.createInsightsCache(); err != nil {
		// Cache is optional; ad-hoc SQL still works without it.
		if logger != nil {
			logger.Warn("Failed to create insights cache table", "error", err)
		}
	}

	if logger != nil {
		logger.Info("Analytics store ready", "db_path", dbPath, "states", len(ds.States), "years", len(ds.Years))
	}

	return s, nil
}

// loadTables rebuilds the relational mirror inside one transaction.
func (s *Store) loadTables(ds *mli.Dataset, div *Divergence) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmts := []string{
		`DROP TABLE IF EXISTS metrics`,
		`CREATE TABLE metrics (
			state VARCHAR NOT NULL,
			year INTEGER NOT NULL,
			mli DOUBLE,
			income DOUBLE,
			col DOUBLE,
			surplus DOUBLE,
			surplus_pct DOUBLE
		)`,
		`DROP TABLE IF EXISTS categories`,
		`CREATE TABLE categories (
			state VARCHAR NOT NULL,
			year INTEGER NOT NULL,
			category VARCHAR NOT NULL,
			cost DOUBLE
		)`,
		`DROP TABLE IF EXISTS national`,
		`CREATE TABLE national (
			year INTEGER NOT NULL,
			avg_mli DOUBLE,
			avg_income DOUBLE,
			avg_col DOUBLE,
			avg_surplus DOUBLE
		)`,
		`DROP TABLE IF EXISTS state_changes`,
		`CREATE TABLE state_changes (
			state VARCHAR NOT NULL,
			mli_change DOUBLE,
			mli_2018 DOUBLE,
			mli_2023 DOUBLE
		)`,
		`DROP TABLE IF EXISTS savings_timeline`,
		`CREATE TABLE savings_timeline (
			year INTEGER NOT NULL,
			states_can_save INTEGER,
			states_paycheck INTEGER,
			states_deficit INTEGER
		)`,
		`DROP TABLE IF EXISTS market_comparison`,
		`CREATE TABLE market_comparison (
			window VARCHAR NOT NULL,
			year INTEGER NOT NULL,
			sp500_indexed DOUBLE,
			income_indexed DOUBLE,
			col_indexed DOUBLE,
			mli_indexed DOUBLE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	insertMetric, err := tx.Prepare(`INSERT INTO metrics VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare metrics insert: %w", err)
	}
	defer insertMetric.Close()

	insertCategory, err := tx.Prepare(`INSERT INTO categories VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("failed to prepare categories insert: %w", err)
	}
	defer insertCategory.Close()

	for _, name := range ds.StateNames() {
		st := ds.States[name]
		for year, ym := range st.Timeseries {
			if _, err := insertMetric.Exec(name, year, ym.MLI, ym.Income, ym.Col, ym.Surplus, ym.SurplusPct); err != nil {
				return fmt.Errorf("failed to insert metrics for %s/%d: %w", name, year, err)
			}
		}
		for category, cc := range st.Latest.Categories {
			if _, err := insertCategory.Exec(name, st.Latest.Year, category, cc.Cost); err != nil {
				return fmt.Errorf("failed to insert category %s for %s: %w", category, name, err)
			}
		}
	}

	for year, nat := range ds.National {
		if _, err := tx.Exec(`INSERT INTO national VALUES ($1, $2, $3, $4, $5)`,
			year, nat.AvgMLI, nat.AvgIncome, nat.AvgCol, nat.AvgSurplus); err != nil {
			return fmt.Errorf("failed to insert national row for %d: %w", year, err)
		}
	}

	if div != nil {
		for _, sc := range div.StateChanges {
			if _, err := tx.Exec(`INSERT INTO state_changes VALUES ($1, $2, $3, $4)`,
				sc.State, sc.MLIChange, sc.MLI2018, sc.MLI2023); err != nil {
				return fmt.Errorf("failed to insert state change for %s: %w", sc.State, err)
			}
		}
		for _, sp := range div.SavingsTimeline {
			if _, err := tx.Exec(`INSERT INTO savings_timeline VALUES ($1, $2, $3, $4)`,
				sp.Year, sp.StatesCanSave, sp.StatesPaycheck, sp.StatesDeficit); err != nil {
				return fmt.Errorf("failed to insert savings timeline for %d: %w", sp.Year, err)
			}
		}
		windows := map[string][]MarketPoint{
			"2012": div.Comparison2012,
			"2018": div.Comparison2018,
		}
		for window, points := range windows {
			for _, mp := range points {
				if _, err := tx.Exec(`INSERT INTO market_comparison VALUES ($1, $2, $3, $4, $5, $6)`,
					window, mp.Year, mp.SP500Indexed, mp.IncomeIndexed, mp.ColIndexed, mp.MLIIndexed); err != nil {
					return fmt.Errorf("failed to insert market comparison for %s/%d: %w", window, mp.Year, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// createInsightsCache creates the table holding AI analyst answers.
func (s *Store) createInsightsCache() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS insights_cache (
			question VARCHAR PRIMARY KEY,
			answer TEXT,
			sql_query TEXT,
			extracted_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create insights_cache table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// QueryResult holds the columns and rows of an ad-hoc SQL query.
type QueryResult struct {
	Columns []string
	Rows    [][]interface{}
}

// ExecuteQuery runs arbitrary SQL against the store and collects up to
// maxRows rows. Used by the query command and the AI analyst.
func (s *Store) ExecuteQuery(query string, maxRows int) (*QueryResult, error) {
	rows, err := s.conn.Query(query)
	if err != nil {
		if logger != nil {
			logger.Error("Ad-hoc query failed", "error", err, "sql", truncateString(query, 150))
		}
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &QueryResult{Columns: columns}
	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range columns {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if maxRows > 0 && len(result.Rows) >= maxRows {
			break
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		row := make([]interface{}, len(columns))
		copy(row, values)
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		if logger != nil {
			logger.Error("Row iteration error in query", "error", err, "rows_read", len(result.Rows))
		}
		return nil, err
	}

	return result, nil
}

// TableInfo describes one table of the relational mirror.
type TableInfo struct {
	Name     string
	RowCount int64
	Columns  []ColumnInfo
}

// ColumnInfo is one column of a table.
type ColumnInfo struct {
	Name string
	Type string
}

// DescribeTables returns the schema and row counts of every user table,
// feeding the schema command and the AI analyst's prompt.
func (s *Store) DescribeTables() ([]TableInfo, error) {
	rows, err := s.conn.Query(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var tables []TableInfo
	for _, name := range names {
		info := TableInfo{Name: name}

		colRows, err := s.conn.Query(`
			SELECT column_name, data_type
			FROM information_schema.columns
			WHERE table_schema = 'main' AND table_name = $1
			ORDER BY ordinal_position
		`, name)
		if err != nil {
			return nil, fmt.Errorf("failed to describe %s: %w", name, err)
		}
		for colRows.Next() {
			var col ColumnInfo
			if err := colRows.Scan(&col.Name, &col.Type); err != nil {
				colRows.Close()
				return nil, fmt.Errorf("scan failed: %w", err)
			}
			info.Columns = append(info.Columns, col)
		}
		if err := colRows.Err(); err != nil {
			colRows.Close()
			return nil, err
		}
		colRows.Close()

		if err := s.conn.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, name)).Scan(&info.RowCount); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}

		tables = append(tables, info)
	}

	return tables, nil
}

// SaveInsight caches one AI analyst answer keyed by the question text.
func (s *Store) SaveInsight(question, answer, sqlQuery string, extractedAt time.Time) error {
	query := `
		INSERT INTO insights_cache (question, answer, sql_query, extracted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (question) DO UPDATE SET
			answer = EXCLUDED.answer,
			sql_query = EXCLUDED.sql_query,
			extracted_at = EXCLUDED.extracted_at,
			created_at = CURRENT_TIMESTAMP
	`

	_, err := s.conn.Exec(query, question, answer, sqlQuery, extractedAt)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to save insight to cache", "error", err, "question", truncateString(question, 80))
		}
		return fmt.Errorf("failed to save insight: %w", err)
	}

	if logger != nil {
		logger.Info("Saved insight to cache", "question", truncateString(question, 80))
	}

	return nil
}

// LoadInsight returns a cached AI analyst answer younger than maxAge.
func (s *Store) LoadInsight(question string, maxAge time.Duration) (answer, sqlQuery string, extractedAt time.Time, err error) {
	query := `
		SELECT answer, sql_query, extracted_at
		FROM insights_cache
		WHERE question = $1
	`

	err = s.conn.QueryRow(query, question).Scan(&answer, &sqlQuery, &extractedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", "", time.Time{}, fmt.Errorf("no cache entry found")
		}
		if logger != nil {
			logger.Error("Failed to load insight from cache", "error", err, "question", truncateString(question, 80))
		}
		return "", "", time.Time{}, fmt.Errorf("failed to load insight: %w", err)
	}

	if time.Since(extractedAt) > maxAge {
		return "", "", time.Time{}, fmt.Errorf("cache expired")
	}

	if logger != nil {
		logger.Info("Loaded insight from cache", "question", truncateString(question, 80), "age_hours", int(time.Since(extractedAt).Hours()))
	}

	return answer, sqlQuery, extractedAt, nil
}
