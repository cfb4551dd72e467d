package store

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/DeusData/kb-query/internal/schema"
)

// loadConcurrency bounds the per-class property queries issued by LoadSchema.
const loadConcurrency = 4

// SaveSchema replaces the named snapshot with the classes of sch.
func (s *Store) SaveSchema(name, sourcePath string, sch *schema.Schema) error {
	doc := schema.Describe(sch)
	return s.WithTransaction(func(tx *Store) error {
		if err := tx.DeleteSnapshot(name); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
		if err := tx.upsertSnapshot(name, sourcePath); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
		props := 0
		for _, c := range doc.Classes {
			if err := tx.insertClass(name, &c); err != nil {
				return fmt.Errorf("class %s: %w", c.Name, err)
			}
			props += len(c.Properties)
		}
		slog.Info("store.snapshot.saved", "name", name, "classes", len(doc.Classes), "properties", props)
		return nil
	})
}

func (s *Store) insertClass(snapshot string, c *schema.ClassDoc) error {
	_, err := s.q.Exec(`
		INSERT INTO classes (snapshot, name, inherits, is_edge, is_abstract) VALUES (?, ?, ?, ?, ?)`,
		snapshot, c.Name, marshalList(c.Inherits), c.Edge, c.Abstract)
	if err != nil {
		return err
	}
	for _, p := range c.Properties {
		_, err := s.q.Exec(`
			INSERT INTO properties (snapshot, class, name, type, iterable, linked_class, cast_name, choices)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snapshot, c.Name, p.Name, p.Type, p.Iterable, p.LinkedClass, p.Cast, marshalList(p.Choices))
		if err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
	}
	return nil
}

// LoadSchema reads the named snapshot and resolves it into a schema.
func (s *Store) LoadSchema(ctx context.Context, name string) (*schema.Schema, error) {
	if _, err := s.GetSnapshot(name); err != nil {
		return nil, err
	}
	classes, err := s.loadClasses(ctx, name)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i := range classes {
		c := &classes[i]
		g.Go(func() error {
			props, err := s.loadProperties(gctx, name, c.Name)
			if err != nil {
				return fmt.Errorf("class %s: %w", c.Name, err)
			}
			c.Properties = props
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := &schema.Document{Classes: classes}
	sch, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("build snapshot %s: %w", name, err)
	}
	slog.Debug("store.snapshot.loaded", "name", name, "classes", len(classes))
	return sch, nil
}

func (s *Store) loadClasses(ctx context.Context, snapshot string) ([]schema.ClassDoc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, inherits, is_edge, is_abstract FROM classes WHERE snapshot=? ORDER BY name`, snapshot)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()
	var result []schema.ClassDoc
	for rows.Next() {
		var c schema.ClassDoc
		var inherits string
		if err := rows.Scan(&c.Name, &inherits, &c.Edge, &c.Abstract); err != nil {
			return nil, err
		}
		c.Inherits = unmarshalList(inherits)
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) loadProperties(ctx context.Context, snapshot, class string) ([]schema.PropertyDoc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type, iterable, linked_class, cast_name, choices
		FROM properties WHERE snapshot=? AND class=? ORDER BY name`, snapshot, class)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []schema.PropertyDoc
	for rows.Next() {
		var p schema.PropertyDoc
		var choices string
		if err := rows.Scan(&p.Name, &p.Type, &p.Iterable, &p.LinkedClass, &p.Cast, &choices); err != nil {
			return nil, err
		}
		p.Choices = unmarshalList(choices)
		result = append(result, p)
	}
	return result, rows.Err()
}
