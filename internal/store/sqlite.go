package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"

	"github.com/roach88/t3ns/internal/ir"
)

// sqlGroup is a group bound to the transaction of one Read or Write.
type sqlGroup struct {
	ctx   context.Context
	tx    *sql.Tx
	path  string
	codec Codec
}

func (g *sqlGroup) Path() string { return g.path }

func (g *sqlGroup) child(name string) *sqlGroup {
	return &sqlGroup{ctx: g.ctx, tx: g.tx, path: Child(g.path, name), codec: g.codec}
}

func (g *sqlGroup) CreateGroup(name string) (Group, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	c := g.child(name)
	_, err := g.tx.ExecContext(g.ctx,
		`INSERT INTO groups (path, parent) VALUES (?, ?)`, c.path, g.path)
	if err != nil {
		return nil, fmt.Errorf("create group %s: %w", c.path, err)
	}
	return c, nil
}

func (g *sqlGroup) OpenGroup(name string) (Group, error) {
	ok, err := g.HasGroup(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("group", name, g.path)
	}
	return g.child(name), nil
}

func (g *sqlGroup) HasGroup(name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	return g.exists(`SELECT 1 FROM groups WHERE path = ?`, Child(g.path, name))
}

func (g *sqlGroup) exists(query string, args ...any) (bool, error) {
	var one int
	err := g.tx.QueryRowContext(g.ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query %s: %w", g.path, err)
	}
	return true, nil
}

func (g *sqlGroup) Groups() ([]string, error) {
	rows, err := g.tx.QueryContext(g.ctx, `
		SELECT path FROM groups
		WHERE parent = ?
		ORDER BY path COLLATE BINARY ASC
	`, g.path)
	if err != nil {
		return nil, fmt.Errorf("list groups of %s: %w", g.path, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		names = append(names, path.Base(p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return names, nil
}

func (g *sqlGroup) setAttr(name string, kind Kind, n int, payload []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	_, err := g.tx.ExecContext(g.ctx, `
		INSERT INTO attributes (path, name, kind, length, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path, name) DO UPDATE SET
			kind = excluded.kind, length = excluded.length, payload = excluded.payload
	`, g.path, name, string(kind), n, payload)
	if err != nil {
		return fmt.Errorf("set attribute %s of %s: %w", name, g.path, err)
	}
	return nil
}

func (g *sqlGroup) attr(name string, want Kind) ([]byte, int, error) {
	var kind string
	var n int
	var payload []byte
	err := g.tx.QueryRowContext(g.ctx, `
		SELECT kind, length, payload FROM attributes
		WHERE path = ? AND name = ?
	`, g.path, name).Scan(&kind, &n, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, notFound("attribute", name, g.path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read attribute %s of %s: %w", name, g.path, err)
	}
	if Kind(kind) != want {
		return nil, 0, wrongKind("attribute", name, g.path, Kind(kind), want)
	}
	return payload, n, nil
}

func (g *sqlGroup) SetIntAttr(name string, v ...int) error {
	return g.setAttr(name, KindInt, len(v), encodeInts(v))
}

func (g *sqlGroup) IntAttr(name string) ([]int, error) {
	raw, n, err := g.attr(name, KindInt)
	if err != nil {
		return nil, err
	}
	return decodeInts(raw, n)
}

func (g *sqlGroup) SetFloatAttr(name string, v ...float64) error {
	return g.setAttr(name, KindFloat, len(v), encodeFloats(v))
}

func (g *sqlGroup) FloatAttr(name string) ([]float64, error) {
	raw, n, err := g.attr(name, KindFloat)
	if err != nil {
		return nil, err
	}
	return decodeFloats(raw, n)
}

func (g *sqlGroup) SetStringAttr(name, v string) error {
	return g.setAttr(name, KindString, len(v), []byte(v))
}

func (g *sqlGroup) StringAttr(name string) (string, error) {
	raw, n, err := g.attr(name, KindString)
	if err != nil {
		return "", err
	}
	if len(raw) != n {
		return "", ir.Errorf(ir.ErrCodeSizeMismatch,
			"attribute %s of %s holds %d bytes, want %d", name, g.path, len(raw), n)
	}
	return string(raw), nil
}

func (g *sqlGroup) HasDataset(name string) (bool, error) {
	return g.exists(`SELECT 1 FROM datasets WHERE path = ? AND name = ?`, g.path, name)
}

func (g *sqlGroup) writeDataset(name string, kind Kind, n int, raw []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	payload, err := compress(raw, g.codec)
	if err != nil {
		return fmt.Errorf("compress dataset %s of %s: %w", name, g.path, err)
	}
	_, err = g.tx.ExecContext(g.ctx, `
		INSERT INTO datasets (path, name, kind, length, codec, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, g.path, name, string(kind), n, string(g.codec), payload)
	if err != nil {
		return fmt.Errorf("write dataset %s of %s: %w", name, g.path, err)
	}
	return nil
}

func (g *sqlGroup) dataset(name string, want Kind) ([]byte, int, error) {
	var kind, codec string
	var n int
	var payload []byte
	err := g.tx.QueryRowContext(g.ctx, `
		SELECT kind, length, codec, payload FROM datasets
		WHERE path = ? AND name = ?
	`, g.path, name).Scan(&kind, &n, &codec, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, notFound("dataset", name, g.path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read dataset %s of %s: %w", name, g.path, err)
	}
	if Kind(kind) != want {
		return nil, 0, wrongKind("dataset", name, g.path, Kind(kind), want)
	}
	raw, err := decompress(payload, Codec(codec))
	if err != nil {
		return nil, 0, fmt.Errorf("dataset %s of %s: %w", name, g.path, err)
	}
	return raw, n, nil
}

func (g *sqlGroup) WriteInts(name string, v []int) error {
	return g.writeDataset(name, KindInt, len(v), encodeInts(v))
}

func (g *sqlGroup) ReadInts(name string) ([]int, error) {
	raw, n, err := g.dataset(name, KindInt)
	if err != nil {
		return nil, err
	}
	return decodeInts(raw, n)
}

func (g *sqlGroup) WriteFloats(name string, v []float64) error {
	return g.writeDataset(name, KindFloat, len(v), encodeFloats(v))
}

func (g *sqlGroup) ReadFloats(name string) ([]float64, error) {
	raw, n, err := g.dataset(name, KindFloat)
	if err != nil {
		return nil, err
	}
	return decodeFloats(raw, n)
}
