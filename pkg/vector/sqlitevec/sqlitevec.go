// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
// It serves single-node deployments that want a durable index without running
// Qdrant. The role filter is a vec0 metadata column, so it constrains the KNN
// scan itself rather than trimming results afterwards.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/vector"
)

// Driver implements vector.Driver using SQLite with the sqlite-vec extension.
type Driver struct {
	db         *sql.DB
	dimensions int
	logger     *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

// NewDriver opens the database and verifies sqlite-vec is loadable. The vec0
// table itself is created by Init once the embedding dimensionality is known;
// reopening an existing database picks the dimensionality up from the
// previous run.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// vec0 virtual tables and the chunk mapping table must observe each
	// other's writes, so everything goes through one connection.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS index_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating meta table: %w", err)
	}

	d := &Driver{
		db:     db,
		logger: logger,
	}

	if dims, ok, err := d.storedDimensions(); err != nil {
		db.Close()
		return nil, err
	} else if ok {
		d.dimensions = dims
	}

	logger.Info("sqlite-vec vector driver opened",
		zap.String("db_path", c.DBPath),
		zap.String("vec_version", vecVersion),
	)

	return d, nil
}

// Init creates the chunk mapping table and the vec0 virtual table. A
// populated index with a different dimensionality is an incompatibility; an
// empty one is dropped and recreated at the new size.
func (d *Driver) Init(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: invalid dimensions %d", vector.ErrIndexInit, dimensions)
	}

	if stored, ok, err := d.storedDimensions(); err != nil {
		return err
	} else if ok && stored != dimensions {
		var count int
		if err := d.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM chunks`,
		).Scan(&count); err != nil {
			return fmt.Errorf("counting chunks: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: index exists with dimensions %d, requested %d",
				vector.ErrIndexInit, stored, dimensions)
		}
		if _, err := d.db.ExecContext(ctx, `DROP TABLE IF EXISTS vec_chunks`); err != nil {
			return fmt.Errorf("dropping vec0 table: %w", err)
		}
	}

	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chunks (
			rowid       INTEGER PRIMARY KEY AUTOINCREMENT,
			chunk_id    TEXT NOT NULL UNIQUE,
			role        TEXT NOT NULL,
			source      TEXT NOT NULL,
			section     TEXT NOT NULL DEFAULT '',
			text        TEXT NOT NULL,
			chunk_index INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: creating chunks table: %v", vector.ErrIndexInit, err)
	}

	// vec0 rowids mirror the chunks table so KNN hits join back to payloads.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
			embedding float[%d] distance_metric=cosine,
			role text
		)`,
		dimensions,
	)
	if _, err := d.db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("%w: creating vec0 table: %v", vector.ErrIndexInit, err)
	}

	if _, err := d.db.ExecContext(ctx,
		`INSERT INTO index_meta (key, value) VALUES ('dimensions', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(dimensions),
	); err != nil {
		return fmt.Errorf("storing dimensions: %w", err)
	}

	d.dimensions = dimensions
	return nil
}

// Upsert inserts or replaces records keyed by chunk id. vec0 tables do not
// support UPDATE, so replacement is a delete plus insert inside one
// transaction.
func (d *Driver) Upsert(ctx context.Context, records []vector.Record) error {
	if d.dimensions == 0 {
		return vector.ErrNotInitialized
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		if len(rec.Vector) != d.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, index has %d",
				vector.ErrIndexInit, rec.ID, len(rec.Vector), d.dimensions)
		}

		embBlob := serializeFloat32(rec.Vector)

		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM chunks WHERE chunk_id = ?`, rec.ID,
		).Scan(&existingRowID)

		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE chunks SET role = ?, source = ?, section = ?, text = ?, chunk_index = ?
				 WHERE rowid = ?`,
				string(rec.Role), rec.Payload.Source, rec.Payload.Section,
				rec.Payload.Text, rec.Payload.ChunkIndex, existingRowID,
			); err != nil {
				return fmt.Errorf("updating chunk %s: %w", rec.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_chunks WHERE rowid = ?`, existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for chunk %s: %w", rec.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_chunks(rowid, embedding, role) VALUES (?, ?, ?)`,
				existingRowID, embBlob, string(rec.Role),
			); err != nil {
				return fmt.Errorf("re-inserting embedding for chunk %s: %w", rec.ID, err)
			}
		case sql.ErrNoRows:
			result, err := tx.ExecContext(ctx,
				`INSERT INTO chunks(chunk_id, role, source, section, text, chunk_index)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				rec.ID, string(rec.Role), rec.Payload.Source, rec.Payload.Section,
				rec.Payload.Text, rec.Payload.ChunkIndex,
			)
			if err != nil {
				return fmt.Errorf("inserting chunk %s: %w", rec.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for chunk %s: %w", rec.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_chunks(rowid, embedding, role) VALUES (?, ?, ?)`,
				rowID, embBlob, string(rec.Role),
			); err != nil {
				return fmt.Errorf("inserting embedding for chunk %s: %w", rec.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing chunk %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("upserted chunks into sqlite-vec",
		zap.Int("count", len(records)),
	)

	return nil
}

// Search runs a role-constrained KNN query. The role IN clause is part of the
// vec0 MATCH, so disallowed records never occupy a topK slot.
func (d *Driver) Search(ctx context.Context, query []float32, allowedRoles []rbac.Role, topK int) ([]vector.Result, error) {
	if d.dimensions == 0 {
		return nil, vector.ErrNotInitialized
	}
	if topK <= 0 || len(allowedRoles) == 0 {
		return nil, nil
	}

	queryBlob := serializeFloat32(query)

	placeholders := make([]string, len(allowedRoles))
	args := []any{queryBlob, topK}
	for i, role := range allowedRoles {
		placeholders[i] = "?"
		args = append(args, string(role))
	}

	q := fmt.Sprintf(`
		SELECT
			c.chunk_id,
			c.role,
			c.source,
			c.section,
			c.text,
			c.chunk_index,
			v.distance
		FROM vec_chunks v
		INNER JOIN chunks c ON c.rowid = v.rowid
		WHERE v.embedding MATCH ?
			AND v.k = ?
			AND v.role IN (%s)
		ORDER BY v.distance, c.chunk_id
	`, strings.Join(placeholders, ","))

	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.Result
	for rows.Next() {
		var (
			rec      vector.Record
			roleStr  string
			distance float64
		)
		if err := rows.Scan(&rec.ID, &roleStr, &rec.Payload.Source,
			&rec.Payload.Section, &rec.Payload.Text, &rec.Payload.ChunkIndex,
			&distance); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		rec.Role = rbac.Role(roleStr)

		results = append(results, vector.Result{
			Record: rec,
			// cosine distance in [0, 2]; similarity = 1 - distance
			Score: float32(1.0 - distance),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	d.logger.Debug("searched sqlite-vec",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Stats returns record counts per role and in total.
func (d *Driver) Stats(ctx context.Context) (*vector.Stats, error) {
	stats := &vector.Stats{
		PerRole:    make(map[rbac.Role]int),
		Dimensions: d.dimensions,
		Collection: "sqlite-vec",
	}

	if d.dimensions == 0 {
		return stats, nil
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT role, COUNT(*) FROM chunks GROUP BY role`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var roleStr string
		var count int
		if err := rows.Scan(&roleStr, &count); err != nil {
			return nil, fmt.Errorf("scanning role count: %w", err)
		}
		stats.PerRole[rbac.Role(roleStr)] = count
		stats.Total += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating role counts: %w", err)
	}

	return stats, nil
}

// Clear removes all records but keeps the tables, so a subsequent index run
// does not need to re-initialize.
func (d *Driver) Clear(ctx context.Context) error {
	if d.dimensions == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_chunks`); err != nil {
		return fmt.Errorf("clearing embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	return tx.Commit()
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

// storedDimensions reads the dimensionality persisted by a previous Init.
func (d *Driver) storedDimensions() (int, bool, error) {
	var value string
	err := d.db.QueryRow(
		`SELECT value FROM index_meta WHERE key = 'dimensions'`,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading stored dimensions: %w", err)
	}

	dims, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parsing stored dimensions %q: %w", value, err)
	}
	return dims, true, nil
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB format
// sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

var _ vector.Driver = (*Driver)(nil)
