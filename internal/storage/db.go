package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"sursaud/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  stage TEXT NOT NULL,
  inputPath TEXT NOT NULL,
  outputPath TEXT NOT NULL,
  rowCount INTEGER NOT NULL,
  columnCount INTEGER NOT NULL,
  durationMs INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_traceId ON runs(traceId);

CREATE TABLE IF NOT EXISTS sources (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  fileName TEXT NOT NULL,
  raison TEXT NOT NULL,
  sha256 TEXT NOT NULL,
  rowCount INTEGER NOT NULL,
  FOREIGN KEY(runId) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS analysis_rows (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  date_semaine TEXT,
  region TEXT,
  classe_age TEXT,
  taux_passages_urgences REAL,
  taux_hospitalisation REAL,
  taux_actes_sos_medecins REAL,
  raison TEXT,
  annee INTEGER,
  mois INTEGER,
  semaine INTEGER,
  ratio_hosp REAL
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun records a successful stage together with the source files it read.
func (d *DB) InsertRun(traceID string, res internal.StageResult) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
INSERT INTO runs (traceId, stage, inputPath, outputPath, rowCount, columnCount, durationMs)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, traceID, res.Stage, res.InputPath, res.OutputPath, res.Rows, res.Columns, res.Duration.Milliseconds())
	if err != nil {
		return err
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	if len(res.Sources) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO sources (runId, fileName, raison, sha256, rowCount) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, s := range res.Sources {
			if _, err := stmt.Exec(runID, s.Name, s.Reason, s.SHA256, s.Rows); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// ReplaceDataset swaps the stored analysis rows for rows.
func (d *DB) ReplaceDataset(traceID string, rows []internal.AnalyticalRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM analysis_rows`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO analysis_rows (
  traceId, date_semaine, region, classe_age,
  taux_passages_urgences, taux_hospitalisation, taux_actes_sos_medecins,
  raison, annee, mois, semaine, ratio_hosp
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		var date *string
		if r.DateSemaine != nil {
			s := r.DateSemaine.Format(internal.DateLayout)
			date = &s
		}
		if _, err := stmt.Exec(
			traceID, date, r.Region, r.ClasseAge,
			r.TauxPassagesUrgences, r.TauxHospitalisation, r.TauxActesSOSMedecins,
			r.Raison, r.Annee, r.Mois, r.Semaine, r.RatioHosp,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) CountDataset() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM analysis_rows`).Scan(&n)
	return n, err
}

// ListDataset returns the stored analysis rows in insertion order.
func (d *DB) ListDataset() ([]internal.AnalyticalRow, error) {
	rows, err := d.conn.Query(`
SELECT date_semaine, region, classe_age,
       taux_passages_urgences, taux_hospitalisation, taux_actes_sos_medecins,
       raison, annee, mois, semaine, ratio_hosp
FROM analysis_rows ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.AnalyticalRow
	for rows.Next() {
		var r internal.AnalyticalRow
		var date sql.NullString
		if err := rows.Scan(
			&date, &r.Region, &r.ClasseAge,
			&r.TauxPassagesUrgences, &r.TauxHospitalisation, &r.TauxActesSOSMedecins,
			&r.Raison, &r.Annee, &r.Mois, &r.Semaine, &r.RatioHosp,
		); err != nil {
			return nil, err
		}
		if date.Valid {
			if t, err := time.Parse(internal.DateLayout, date.String); err == nil {
				r.DateSemaine = &t
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, stage, inputPath, outputPath, rowCount, columnCount, durationMs, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var r internal.RunRow
		if err := rows.Scan(&r.ID, &r.TraceID, &r.Stage, &r.InputPath, &r.OutputPath, &r.Rows, &r.Columns, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ListSources(runID int) ([]internal.SourceFile, error) {
	rows, err := d.conn.Query(`SELECT fileName, raison, sha256, rowCount FROM sources WHERE runId = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SourceFile
	for rows.Next() {
		var s internal.SourceFile
		if err := rows.Scan(&s.Name, &s.Reason, &s.SHA256, &s.Rows); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
