// Package sqlite stores a pipeline document in a single SQLite file.
//
// Layout:
//
//	pipeline      one row: name, version, regressor type, intercept, base score
//	features      one row per input column, keyed by encoding position
//	categories    one-hot categories per categorical feature
//	coefficients  linear regressor weights
//	tree_nodes    gradient boosting nodes; leaf is NULL for split nodes
//
// The blank import registers the "sqlite3" driver with database/sql.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/car-price-api/internal/pipeline"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	CREATE TABLE IF NOT EXISTS pipeline (
		id             INTEGER PRIMARY KEY CHECK (id = 1),
		name           TEXT    NOT NULL,
		version        TEXT    NOT NULL,
		regressor_type TEXT    NOT NULL,
		intercept      REAL    NOT NULL,
		base_score     REAL    NOT NULL
	);
	CREATE TABLE IF NOT EXISTS features (
		position INTEGER PRIMARY KEY,
		name     TEXT    NOT NULL,
		kind     TEXT    NOT NULL,
		mean     REAL    NOT NULL,
		scale    REAL    NOT NULL
	);
	CREATE TABLE IF NOT EXISTS categories (
		feature  INTEGER NOT NULL,
		position INTEGER NOT NULL,
		value    TEXT    NOT NULL,
		PRIMARY KEY (feature, position)
	);
	CREATE TABLE IF NOT EXISTS coefficients (
		position INTEGER PRIMARY KEY,
		weight   REAL    NOT NULL
	);
	CREATE TABLE IF NOT EXISTS tree_nodes (
		tree        INTEGER NOT NULL,
		node        INTEGER NOT NULL,
		feature     INTEGER NOT NULL,
		threshold   REAL    NOT NULL,
		left_child  INTEGER NOT NULL,
		right_child INTEGER NOT NULL,
		leaf        REAL,
		PRIMARY KEY (tree, node)
	);
`

// SQLite is a pipeline artifact stored as a SQLite database file.
type SQLite struct {
	Path string
}

// New returns a SQLite artifact for path. Nothing is opened until Load or Save.
func New(path string) *SQLite {
	return &SQLite{Path: path}
}

// Load opens the artifact read-only, reassembles the document and closes the
// database again. A missing file is an error, never a fresh empty database.
func (s *SQLite) Load() (pipeline.Document, error) {
	db, err := sql.Open("sqlite3", "file:"+s.Path+"?mode=ro")
	if err != nil {
		return pipeline.Document{}, fmt.Errorf("sqlite.Load: open db: %w", err)
	}
	defer db.Close()

	var doc pipeline.Document

	err = db.QueryRow(
		"SELECT name, version, regressor_type, intercept, base_score FROM pipeline WHERE id = 1",
	).Scan(
		&doc.Name,
		&doc.Version,
		&doc.Regressor.Type,
		&doc.Regressor.Intercept,
		&doc.Regressor.BaseScore,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pipeline.Document{}, fmt.Errorf("sqlite.Load: no pipeline stored in %s", s.Path)
		}
		return pipeline.Document{}, fmt.Errorf("sqlite.Load: pipeline: %w", err)
	}

	if doc.Features, err = loadFeatures(db); err != nil {
		return pipeline.Document{}, err
	}
	if doc.Regressor.Coefficients, err = loadCoefficients(db); err != nil {
		return pipeline.Document{}, err
	}
	if doc.Regressor.Trees, err = loadTrees(db); err != nil {
		return pipeline.Document{}, err
	}

	return doc, nil
}

func loadFeatures(db *sql.DB) ([]pipeline.Feature, error) {
	rows, err := db.Query("SELECT position, name, kind, mean, scale FROM features ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("sqlite.Load: features: %w", err)
	}
	defer rows.Close()

	var features []pipeline.Feature
	for rows.Next() {
		var (
			pos int
			f   pipeline.Feature
		)
		if err := rows.Scan(&pos, &f.Name, &f.Kind, &f.Mean, &f.Scale); err != nil {
			return nil, fmt.Errorf("sqlite.Load: scan feature: %w", err)
		}
		if pos != len(features) {
			return nil, fmt.Errorf("sqlite.Load: feature positions are not contiguous at %d", pos)
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.Load: features iteration: %w", err)
	}

	crows, err := db.Query("SELECT feature, value FROM categories ORDER BY feature, position")
	if err != nil {
		return nil, fmt.Errorf("sqlite.Load: categories: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var (
			feature int
			value   string
		)
		if err := crows.Scan(&feature, &value); err != nil {
			return nil, fmt.Errorf("sqlite.Load: scan category: %w", err)
		}
		if feature < 0 || feature >= len(features) {
			return nil, fmt.Errorf("sqlite.Load: category %q refers to unknown feature %d", value, feature)
		}
		features[feature].Categories = append(features[feature].Categories, value)
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.Load: categories iteration: %w", err)
	}

	return features, nil
}

func loadCoefficients(db *sql.DB) ([]float64, error) {
	rows, err := db.Query("SELECT weight FROM coefficients ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("sqlite.Load: coefficients: %w", err)
	}
	defer rows.Close()

	var coef []float64
	for rows.Next() {
		var w float64
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("sqlite.Load: scan coefficient: %w", err)
		}
		coef = append(coef, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.Load: coefficients iteration: %w", err)
	}

	return coef, nil
}

func loadTrees(db *sql.DB) ([]pipeline.Tree, error) {
	rows, err := db.Query(
		"SELECT tree, node, feature, threshold, left_child, right_child, leaf FROM tree_nodes ORDER BY tree, node",
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Load: tree_nodes: %w", err)
	}
	defer rows.Close()

	var trees []pipeline.Tree
	for rows.Next() {
		var (
			tree, node int
			n          pipeline.Node
			leaf       sql.NullFloat64
		)
		if err := rows.Scan(&tree, &node, &n.Feature, &n.Threshold, &n.Left, &n.Right, &leaf); err != nil {
			return nil, fmt.Errorf("sqlite.Load: scan tree node: %w", err)
		}
		if tree == len(trees) {
			trees = append(trees, pipeline.Tree{})
		}
		if tree != len(trees)-1 || node != len(trees[tree].Nodes) {
			return nil, fmt.Errorf("sqlite.Load: tree node (%d,%d) out of sequence", tree, node)
		}
		if leaf.Valid {
			v := leaf.Float64
			n.Leaf = &v
		}
		trees[tree].Nodes = append(trees[tree].Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.Load: tree_nodes iteration: %w", err)
	}

	return trees, nil
}

// Save writes doc to the artifact, creating the file and schema if needed
// and replacing any pipeline already stored there.
func (s *SQLite) Save(doc pipeline.Document) error {
	db, err := sql.Open("sqlite3", s.Path)
	if err != nil {
		return fmt.Errorf("sqlite.Save: open db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite.Save: create tables: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite.Save: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"pipeline", "features", "categories", "coefficients", "tree_nodes"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("sqlite.Save: clear %s: %w", table, err)
		}
	}

	_, err = tx.Exec(
		"INSERT INTO pipeline (id, name, version, regressor_type, intercept, base_score) VALUES (1, ?, ?, ?, ?, ?)",
		doc.Name, doc.Version, doc.Regressor.Type, doc.Regressor.Intercept, doc.Regressor.BaseScore,
	)
	if err != nil {
		return fmt.Errorf("sqlite.Save: pipeline: %w", err)
	}

	if err := saveFeatures(tx, doc.Features); err != nil {
		return err
	}
	if err := saveCoefficients(tx, doc.Regressor.Coefficients); err != nil {
		return err
	}
	if err := saveTrees(tx, doc.Regressor.Trees); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite.Save: commit: %w", err)
	}

	return nil
}

func saveFeatures(tx *sql.Tx, features []pipeline.Feature) error {
	fstmt, err := tx.Prepare("INSERT INTO features (position, name, kind, mean, scale) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("sqlite.Save: prepare features: %w", err)
	}
	defer fstmt.Close()

	cstmt, err := tx.Prepare("INSERT INTO categories (feature, position, value) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("sqlite.Save: prepare categories: %w", err)
	}
	defer cstmt.Close()

	for i, f := range features {
		if _, err := fstmt.Exec(i, f.Name, f.Kind, f.Mean, f.Scale); err != nil {
			return fmt.Errorf("sqlite.Save: feature %q: %w", f.Name, err)
		}
		for j, c := range f.Categories {
			if _, err := cstmt.Exec(i, j, c); err != nil {
				return fmt.Errorf("sqlite.Save: category %q: %w", c, err)
			}
		}
	}

	return nil
}

func saveCoefficients(tx *sql.Tx, coef []float64) error {
	stmt, err := tx.Prepare("INSERT INTO coefficients (position, weight) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("sqlite.Save: prepare coefficients: %w", err)
	}
	defer stmt.Close()

	for i, w := range coef {
		if _, err := stmt.Exec(i, w); err != nil {
			return fmt.Errorf("sqlite.Save: coefficient %d: %w", i, err)
		}
	}

	return nil
}

func saveTrees(tx *sql.Tx, trees []pipeline.Tree) error {
	stmt, err := tx.Prepare(
		"INSERT INTO tree_nodes (tree, node, feature, threshold, left_child, right_child, leaf) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("sqlite.Save: prepare tree_nodes: %w", err)
	}
	defer stmt.Close()

	for t, tree := range trees {
		for n, node := range tree.Nodes {
			var leaf sql.NullFloat64
			if node.Leaf != nil {
				leaf = sql.NullFloat64{Float64: *node.Leaf, Valid: true}
			}
			if _, err := stmt.Exec(t, n, node.Feature, node.Threshold, node.Left, node.Right, leaf); err != nil {
				return fmt.Errorf("sqlite.Save: tree %d node %d: %w", t, n, err)
			}
		}
	}

	return nil
}
