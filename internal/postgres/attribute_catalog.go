package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool, *pgx.Conn and pgx.Tx the catalog uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AttributeCatalog implements domain.AddressAttributeRepository using PostgreSQL.
type AttributeCatalog struct {
	db DBTX
}

// Compile-time check to ensure AttributeCatalog implements domain.AddressAttributeRepository.
var _ domain.AddressAttributeRepository = (*AttributeCatalog)(nil)

// NewAttributeCatalog creates a new AttributeCatalog instance.
func NewAttributeCatalog(db DBTX) *AttributeCatalog {
	return &AttributeCatalog{db: db}
}

// =============================================================================
// Queries
// =============================================================================

const getAddressAttribute = `
SELECT id, name, is_required, control_type, display_order
FROM address_attributes
WHERE id = $1`

const getAddressAttributeValue = `
SELECT id, address_attribute_id, name, is_pre_selected, display_order
FROM address_attribute_values
WHERE id = $1`

const listAddressAttributes = `
SELECT id, name, is_required, control_type, display_order
FROM address_attributes
ORDER BY display_order, id`

const insertAddressAttribute = `
INSERT INTO address_attributes (id, name, is_required, control_type, display_order)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    is_required = EXCLUDED.is_required,
    control_type = EXCLUDED.control_type,
    display_order = EXCLUDED.display_order,
    updated_at = NOW()`

const insertAddressAttributeValue = `
INSERT INTO address_attribute_values (id, address_attribute_id, name, is_pre_selected, display_order)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET address_attribute_id = EXCLUDED.address_attribute_id,
    name = EXCLUDED.name,
    is_pre_selected = EXCLUDED.is_pre_selected,
    display_order = EXCLUDED.display_order,
    updated_at = NOW()`

// =============================================================================
// Reads
// =============================================================================

// GetAttributeByID returns the attribute with the given id.
func (c *AttributeCatalog) GetAttributeByID(ctx context.Context, id int) (*domain.AddressAttribute, error) {
	const op = "postgres.get_address_attribute"

	attr, err := scanAttribute(c.db.QueryRow(ctx, getAddressAttribute, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "address attribute", strconv.Itoa(id))
		}
		return nil, domain.Internal(err, op, "failed to load address attribute")
	}
	return &attr, nil
}

// GetAttributeValueByID returns the attribute value with the given id.
func (c *AttributeCatalog) GetAttributeValueByID(ctx context.Context, id int) (*domain.AddressAttributeValue, error) {
	const op = "postgres.get_address_attribute_value"

	var v domain.AddressAttributeValue
	err := c.db.QueryRow(ctx, getAddressAttributeValue, id).Scan(
		&v.ID,
		&v.AddressAttributeID,
		&v.Name,
		&v.IsPreSelected,
		&v.DisplayOrder,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "address attribute value", strconv.Itoa(id))
		}
		return nil, domain.Internal(err, op, "failed to load address attribute value")
	}
	return &v, nil
}

// GetAllAttributes returns every attribute ordered by display order.
func (c *AttributeCatalog) GetAllAttributes(ctx context.Context) ([]domain.AddressAttribute, error) {
	const op = "postgres.list_address_attributes"

	rows, err := c.db.Query(ctx, listAddressAttributes)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list address attributes")
	}
	defer rows.Close()

	var attrs []domain.AddressAttribute
	for rows.Next() {
		attr, err := scanAttribute(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan address attribute")
		}
		attrs = append(attrs, attr)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to list address attributes")
	}
	return attrs, nil
}

// =============================================================================
// Seeding
// =============================================================================

// Upsert writes attribute definitions and their values, replacing rows that
// share an id. Used to seed a database from a catalog fixture.
func (c *AttributeCatalog) Upsert(ctx context.Context, attrs []domain.AddressAttribute, values []domain.AddressAttributeValue) error {
	for _, a := range attrs {
		if _, err := c.db.Exec(ctx, insertAddressAttribute,
			a.ID, a.Name, a.IsRequired, int(a.ControlType), a.DisplayOrder,
		); err != nil {
			return fmt.Errorf("failed to upsert address attribute %d: %w", a.ID, err)
		}
	}
	for _, v := range values {
		if _, err := c.db.Exec(ctx, insertAddressAttributeValue,
			v.ID, v.AddressAttributeID, v.Name, v.IsPreSelected, v.DisplayOrder,
		); err != nil {
			return fmt.Errorf("failed to upsert address attribute value %d: %w", v.ID, err)
		}
	}
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

func scanAttribute(row pgx.Row) (domain.AddressAttribute, error) {
	var (
		a           domain.AddressAttribute
		controlType int32
	)
	err := row.Scan(&a.ID, &a.Name, &a.IsRequired, &controlType, &a.DisplayOrder)
	a.ControlType = domain.AttributeControlType(controlType)
	return a, err
}
