package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/ademuri/spotify-genre-tools/internal/export"
)

// GetToken returns the stored token of an account, or nil if there is none.
func (s *Store) GetToken(account string) (*oauth2.Token, error) {
	row := s.db.QueryRow("SELECT spotify_token FROM Account WHERE name = ? AND spotify_token <> ''", account)
	var encoded string
	err := row.Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	token := new(oauth2.Token)
	if err := json.Unmarshal([]byte(encoded), token); err != nil {
		return nil, fmt.Errorf("decoding token for %q: %w", account, err)
	}
	return token, nil
}

func (s *Store) GetLastRun(account string) (time.Time, error) {
	row := s.db.QueryRow("SELECT last_run FROM Account WHERE name = ?", account)
	var t sql.NullTime
	err := row.Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("getting last run: %w", err)
	}
	return t.Time, nil
}

type RunInfo struct {
	ID       string
	Account  string
	Started  time.Time
	Finished time.Time
	Status   string
	Error    string
	Tables   int
}

const runQuery = `
	SELECT r.id, r.account, r.started, r.finished, r.status, r.error,
		(SELECT COUNT(*) FROM ReportTable t WHERE t.run = r.id)
	FROM Run r`

func scanRun(scan func(dest ...any) error) (RunInfo, error) {
	var info RunInfo
	var finished sql.NullTime
	if err := scan(&info.ID, &info.Account, &info.Started, &finished, &info.Status, &info.Error, &info.Tables); err != nil {
		return RunInfo{}, err
	}
	info.Finished = finished.Time
	return info, nil
}

// ListRuns returns the runs of an account, newest first.
func (s *Store) ListRuns(account string) ([]RunInfo, error) {
	rows, err := s.db.Query(runQuery+" WHERE r.account = ? ORDER BY r.started DESC", account)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		info, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

func (s *Store) GetRun(id string) (RunInfo, error) {
	info, err := scanRun(s.db.QueryRow(runQuery+" WHERE r.id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return RunInfo{}, fmt.Errorf("%w: %s", ErrNoRun, id)
	}
	if err != nil {
		return RunInfo{}, fmt.Errorf("getting run %s: %w", id, err)
	}
	return info, nil
}

// GetTables returns the tables of a run in the order they were saved.
func (s *Store) GetTables(runID string) ([]export.Table, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT name, columns FROM ReportTable WHERE run = ? ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	var tables []export.Table
	for rows.Next() {
		var t export.Table
		var columns string
		if err := rows.Scan(&t.Name, &columns); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		if err := json.Unmarshal([]byte(columns), &t.Columns); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decoding columns of %q: %w", t.Name, err)
		}
		tables = append(tables, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tables {
		if tables[i].Rows, err = s.getRows(runID, tables[i].Name); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func (s *Store) getRows(runID, report string) ([][]string, error) {
	rows, err := s.db.Query("SELECT cells FROM ReportRow WHERE run = ? AND report = ? ORDER BY position", runID, report)
	if err != nil {
		return nil, fmt.Errorf("querying rows of %q: %w", report, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, fmt.Errorf("scanning row of %q: %w", report, err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(encoded), &cells); err != nil {
			return nil, fmt.Errorf("decoding row of %q: %w", report, err)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

// GetArtistGenres returns cached genres of an artist. ok is false when the
// artist is not cached or its entry is older than maxAge; maxAge <= 0 accepts
// any age.
func (s *Store) GetArtistGenres(id string, maxAge time.Duration) (genres []string, ok bool, err error) {
	var updated sql.NullTime
	err = s.db.QueryRow("SELECT genres_last_updated FROM Artist WHERE id = ?", id).Scan(&updated)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting artist %q: %w", id, err)
	}
	if !updated.Valid {
		return nil, false, nil
	}
	if maxAge > 0 && time.Since(updated.Time) > maxAge {
		return nil, false, nil
	}

	rows, err := s.db.Query("SELECT genre FROM ArtistGenre WHERE artist = ? ORDER BY position", id)
	if err != nil {
		return nil, false, fmt.Errorf("querying genres of %q: %w", id, err)
	}
	defer rows.Close()

	genres = []string{}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, false, fmt.Errorf("scanning genre: %w", err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return genres, true, nil
}
