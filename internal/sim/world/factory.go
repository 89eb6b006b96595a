package world

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tilevale/internal/sim/catalogs"
)

// Factory builds entities from the template table. It is stateless beyond
// the table itself, which can be hot-swapped with SetTemplates.
type Factory struct {
	templates map[string]catalogs.EntityTemplate
}

func NewFactory(cats *catalogs.Catalogs) *Factory {
	return &Factory{templates: cats.Entities.Templates}
}

// SetTemplates replaces the template table (definition hot reload).
func (f *Factory) SetTemplates(t map[string]catalogs.EntityTemplate) {
	f.templates = t
}

// CreateEntity instantiates templateKey at (x, y, z). A missing template is
// recoverable: it returns nil and the caller omits the entity. A component
// whose args fail to decode is skipped; the entity keeps the rest.
func (f *Factory) CreateEntity(templateKey string, x, y float64, z int, uid string) *Entity {
	tmpl, ok := f.templates[templateKey]
	if !ok {
		slog.Warn("missing entity template", "key", templateKey)
		return nil
	}
	e := &Entity{
		UID: uid,
		X:   x,
		Y:   y,
		Z:   z,
		Key: templateKey,
	}
	for _, desc := range tmpl.Components {
		if err := e.Components.instantiate(desc.Type, desc.Args); err != nil {
			slog.Warn("bad component args, skipping", "template", templateKey, "component", desc.Type, "err", err)
		}
	}
	return e
}

// GenUID derives a deterministic UID for entities placed by worldgen: the
// same seed and coordinates must always produce the same identity.
func GenUID(templateKey string, key ChunkKey, tx, ty int) string {
	return fmt.Sprintf("%s-%s-%dx%d", templateKey, key, tx, ty)
}

// RuntimeUID mints a unique UID for entities created by gameplay (build
// actions, growth replacement), where no deterministic origin exists.
func RuntimeUID(templateKey string, key ChunkKey) string {
	return fmt.Sprintf("%s-%s-%s", templateKey, key, uuid.NewString()[:8])
}
