package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/consrope/internal/engine/rope"
	"github.com/dshills/consrope/internal/export"
)

// Concat joins parts left to right with the shared concatenator.
func (app *Application) Concat(parts ...string) (rope.StringLike, error) {
	b := rope.NewBuilder(app.concat)
	for _, p := range parts {
		if _, err := b.WriteString(p); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Put concatenates parts and persists the result under key.
func (app *Application) Put(ctx context.Context, key string, parts ...string) (int, error) {
	v, err := app.Concat(parts...)
	if err != nil {
		return 0, NewOperationError("put", key, err)
	}
	s, err := app.Store()
	if err != nil {
		return 0, err
	}
	if err := s.Put(ctx, key, v); err != nil {
		return 0, NewOperationError("put", key, err)
	}
	app.logger.Debug("stored %q (len=%d)", key, v.Len())
	return v.Len(), nil
}

// Get loads the value stored under key.
func (app *Application) Get(ctx context.Context, key string) (string, error) {
	s, err := app.Store()
	if err != nil {
		return "", err
	}
	r, err := s.Get(ctx, key)
	if err != nil {
		return "", NewOperationError("get", key, err)
	}
	out, err := r.Flatten()
	if err != nil {
		return "", NewOperationError("get", key, err)
	}
	return out, nil
}

// Keys lists the stored keys.
func (app *Application) Keys(ctx context.Context) ([]string, error) {
	s, err := app.Store()
	if err != nil {
		return nil, err
	}
	return s.Keys(ctx)
}

// ExportSpec is one entry of an export: name=part,part,...
type ExportSpec struct {
	Name  string
	Parts []string
}

// ParseExportSpec parses "name=a,b,c".
func ParseExportSpec(s string) (ExportSpec, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return ExportSpec{}, fmt.Errorf("invalid export spec %q: want name=parts", s)
	}
	var parts []string
	if rest != "" {
		parts = strings.Split(rest, ",")
	}
	return ExportSpec{Name: name, Parts: parts}, nil
}

// Export builds each spec into a rope and writes a JSON document of the
// materialized values. With stats, each entry's pre-flatten shape is
// recorded under _stats.
func (app *Application) Export(w io.Writer, specs []ExportSpec, stats bool) error {
	doc := export.New()
	for _, spec := range specs {
		v, err := app.Concat(spec.Parts...)
		if err != nil {
			return NewOperationError("export", spec.Name, err)
		}
		if stats {
			if r, ok := v.(*rope.Rope); ok {
				if err := doc.SetStats(spec.Name, r.Stats()); err != nil {
					return NewOperationError("export", spec.Name, err)
				}
			}
		}
		if err := doc.Set(spec.Name, v); err != nil {
			return NewOperationError("export", spec.Name, err)
		}
	}
	if _, err := doc.WriteTo(w); err != nil {
		return NewOperationError("export", "", err)
	}
	return nil
}
