package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/ademuri/spotify-genre-tools/internal/export"
	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// CreateAccount ensures an account exists in the database.
func (s *Store) CreateAccount(account string) error {
	if _, err := s.db.Exec("INSERT OR IGNORE INTO Account (name) VALUES (?)", account); err != nil {
		return fmt.Errorf("inserting account %q: %w", account, err)
	}
	return nil
}

// SaveToken stores the OAuth token of an account, replacing any previous one.
func (s *Store) SaveToken(account string, token *oauth2.Token) error {
	if err := s.CreateAccount(account); err != nil {
		return err
	}
	encoded, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if _, err := s.db.Exec("UPDATE Account SET spotify_token = ? WHERE name = ?", string(encoded), account); err != nil {
		return fmt.Errorf("saving token for %q: %w", account, err)
	}
	return nil
}

func (s *Store) SetLastRun(account string, t time.Time) error {
	_, err := s.db.Exec("UPDATE Account SET last_run = ? WHERE name = ?", t, account)
	if err != nil {
		return fmt.Errorf("updating last_run for %q: %w", account, err)
	}
	return nil
}

// CreateRun records the start of a run and returns its ID.
func (s *Store) CreateRun(account string, started time.Time) (string, error) {
	if err := s.CreateAccount(account); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := s.db.Exec("INSERT INTO Run (id, account, started, status) VALUES (?, ?, ?, ?)", id, account, started, StatusRunning)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run as done. A non-nil runErr marks it failed.
func (s *Store) FinishRun(id string, finished time.Time, runErr error) error {
	status, message := StatusOK, ""
	if runErr != nil {
		status, message = StatusFailed, runErr.Error()
	}
	res, err := s.db.Exec("UPDATE Run SET finished = ?, status = ?, error = ? WHERE id = ?", finished, status, message, id)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNoRun, id)
	}
	return nil
}

// SaveTable stores a table under a run. Saving a table name twice replaces the
// earlier rows but keeps its position.
func (s *Store) SaveTable(runID string, t export.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	columns, err := json.Marshal(t.Columns)
	if err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM Run WHERE id = ?", runID).Scan(&exists); err != nil {
		return fmt.Errorf("checking run %s: %w", runID, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrNoRun, runID)
	}

	var position int
	err = tx.QueryRow("SELECT position FROM ReportTable WHERE run = ? AND name = ?", runID, t.Name).Scan(&position)
	switch {
	case err == sql.ErrNoRows:
		if err := tx.QueryRow("SELECT COALESCE(MAX(position) + 1, 0) FROM ReportTable WHERE run = ?", runID).Scan(&position); err != nil {
			return fmt.Errorf("finding table position: %w", err)
		}
	case err != nil:
		return fmt.Errorf("checking table %q: %w", t.Name, err)
	}

	if _, err := tx.Exec("DELETE FROM ReportRow WHERE run = ? AND report = ?", runID, t.Name); err != nil {
		return fmt.Errorf("clearing rows of %q: %w", t.Name, err)
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO ReportTable (run, name, position, columns) VALUES (?, ?, ?, ?)", runID, t.Name, position, string(columns)); err != nil {
		return fmt.Errorf("inserting table %q: %w", t.Name, err)
	}

	stmt, err := tx.Prepare("INSERT INTO ReportRow (run, report, position, cells) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing row insert: %w", err)
	}
	defer stmt.Close()
	for i, row := range t.Rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encoding row %d of %q: %w", i, t.Name, err)
		}
		if _, err := stmt.Exec(runID, t.Name, i, string(cells)); err != nil {
			return fmt.Errorf("inserting row %d of %q: %w", i, t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteRun removes a run and all of its tables.
func (s *Store) DeleteRun(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM ReportRow WHERE run = ?", id); err != nil {
		return fmt.Errorf("deleting rows of run %s: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM ReportTable WHERE run = ?", id); err != nil {
		return fmt.Errorf("deleting tables of run %s: %w", id, err)
	}
	res, err := tx.Exec("DELETE FROM Run WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveArtistGenres caches the genres of an artist, replacing older ones.
func (s *Store) SaveArtistGenres(artist genre.Artist, genres []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO Artist (id, name, genres_last_updated) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, genres_last_updated = excluded.genres_last_updated`,
		artist.ID, artist.Name, time.Now())
	if err != nil {
		return fmt.Errorf("inserting artist %q: %w", artist.ID, err)
	}
	if _, err := tx.Exec("DELETE FROM ArtistGenre WHERE artist = ?", artist.ID); err != nil {
		return fmt.Errorf("clearing genres of %q: %w", artist.ID, err)
	}
	for i, g := range genres {
		_, err := tx.Exec("INSERT OR IGNORE INTO ArtistGenre (artist, genre, position) VALUES (?, ?, ?)", artist.ID, g, i)
		if err != nil {
			return fmt.Errorf("linking genre %q to artist %q: %w", g, artist.ID, err)
		}
	}

	return tx.Commit()
}
