package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const loadQuery = `
SELECT
	o.id, o.api_name, o.title, o.plural_title,
	o.is_standard, o.storage_schema, o.storage_table, o.supports_custom_fields,
	f.id, f.api_name, f.title, f.type, f.type_config,
	f.is_required, f.is_unique, f.is_standard,
	f.storage_column, f.lookup_object_id
FROM metadata.objects o
LEFT JOIN metadata.fields f ON f.object_id = o.id
ORDER BY o.api_name, f.created_at
`

// Cache holds object metadata by API name and ID. It is the type-metadata
// provider every predicate build resolves paths against.
type Cache struct {
	mu      sync.RWMutex
	objects map[string]*ObjectDef
	byID    map[uuid.UUID]*ObjectDef
}

func NewCache() *Cache {
	return &Cache{
		objects: make(map[string]*ObjectDef),
		byID:    make(map[uuid.UUID]*ObjectDef),
	}
}

// NewCacheFromObjects returns a cache preloaded with objs.
func NewCacheFromObjects(objs ...*ObjectDef) *Cache {
	c := NewCache()
	c.Replace(objs...)
	return c
}

// Replace swaps the cache contents for objs.
func (c *Cache) Replace(objs ...*ObjectDef) {
	objects := make(map[string]*ObjectDef, len(objs))
	byID := make(map[uuid.UUID]*ObjectDef, len(objs))
	for _, obj := range objs {
		if obj.FieldsByAPIName == nil {
			obj.Index()
		}
		objects[obj.APIName] = obj
		byID[obj.ID] = obj
	}

	c.mu.Lock()
	c.objects = objects
	c.byID = byID
	c.mu.Unlock()
}

// Querier is the part of *pgxpool.Pool the cache loader needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Load replaces the cache contents with the metadata catalog read from db.
func (c *Cache) Load(ctx context.Context, db Querier) error {
	rows, err := db.Query(ctx, loadQuery)
	if err != nil {
		return fmt.Errorf("schema cache load: %w", err)
	}
	defer rows.Close()

	objects := make(map[string]*ObjectDef)

	for rows.Next() {
		var (
			oID             uuid.UUID
			oAPIName        string
			oTitle          string
			oPluralTitle    string
			oIsStandard     bool
			oStorageSchema  *string
			oStorageTable   *string
			oSupportsCustom bool
			fID             *uuid.UUID
			fAPIName        *string
			fTitle          *string
			fType           *string
			fTypeConfig     json.RawMessage
			fIsRequired     *bool
			fIsUnique       *bool
			fIsStandard     *bool
			fStorageColumn  *string
			fLookupObjectID *uuid.UUID
		)

		err := rows.Scan(
			&oID, &oAPIName, &oTitle, &oPluralTitle,
			&oIsStandard, &oStorageSchema, &oStorageTable, &oSupportsCustom,
			&fID, &fAPIName, &fTitle, &fType, &fTypeConfig,
			&fIsRequired, &fIsUnique, &fIsStandard,
			&fStorageColumn, &fLookupObjectID,
		)
		if err != nil {
			return fmt.Errorf("schema cache scan: %w", err)
		}

		obj, exists := objects[oAPIName]
		if !exists {
			obj = &ObjectDef{
				ID:                   oID,
				APIName:              oAPIName,
				Title:                oTitle,
				PluralTitle:          oPluralTitle,
				IsStandard:           oIsStandard,
				StorageSchema:        oStorageSchema,
				StorageTable:         oStorageTable,
				SupportsCustomFields: oSupportsCustom,
			}
			objects[oAPIName] = obj
		}

		if fID != nil {
			field := FieldDef{
				ID:             *fID,
				ObjectID:       oID,
				APIName:        *fAPIName,
				Title:          *fTitle,
				Type:           FieldType(*fType),
				TypeConfig:     fTypeConfig,
				IsRequired:     *fIsRequired,
				IsUnique:       *fIsUnique,
				IsStandard:     *fIsStandard,
				StorageColumn:  fStorageColumn,
				LookupObjectID: fLookupObjectID,
			}
			obj.Fields = append(obj.Fields, field)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("schema cache rows: %w", err)
	}

	objs := make([]*ObjectDef, 0, len(objects))
	for _, obj := range objects {
		// Fields may have been reallocated while appending.
		obj.Index()
		objs = append(objs, obj)
	}
	c.Replace(objs...)

	return nil
}

// Get finds an object definition by its API name.
func (c *Cache) Get(apiName string) *ObjectDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.objects[apiName]
}

// GetByID finds an object definition by its UUID.
func (c *Cache) GetByID(id uuid.UUID) *ObjectDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

// ObjectCount returns the number of loaded objects.
func (c *Cache) ObjectCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}
