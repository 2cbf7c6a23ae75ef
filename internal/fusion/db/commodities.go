package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

// commodityRow mirrors a row of the commodities table.
type commodityRow struct {
	ID         string  `db:"id"`
	Name       string  `db:"name"`
	Type       string  `db:"type"`
	Rarity     string  `db:"rarity"`
	FuseAmount int     `db:"fuse_amount"`
	Rate       float64 `db:"rate"`
}

func (r commodityRow) commodity() fusion.Commodity {
	return fusion.Commodity{
		ID:         r.ID,
		Name:       r.Name,
		Type:       r.Type,
		Rarity:     fusion.Rarity(r.Rarity),
		FuseAmount: r.FuseAmount,
		Rate:       r.Rate,
	}
}

type familyRow struct {
	CommodityID string `db:"commodity_id"`
	Family      string `db:"family"`
}

// CommodityStore handles commodity data access.
type CommodityStore struct {
	db *DB
}

// NewCommodityStore creates a new CommodityStore.
func NewCommodityStore(db *DB) *CommodityStore {
	return &CommodityStore{db: db}
}

// GetCommodity retrieves a single commodity with its families.
// Returns nil, nil if the commodity does not exist.
func (s *CommodityStore) GetCommodity(ctx context.Context, id string) (*fusion.Commodity, error) {
	var row commodityRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, type, rarity, fuse_amount, rate
		FROM commodities WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying commodity: %w", err)
	}

	c := row.commodity()
	if err := s.db.SelectContext(ctx, &c.Families, `
		SELECT family FROM commodity_families
		WHERE commodity_id = ?
		ORDER BY family
	`, id); err != nil {
		return nil, fmt.Errorf("querying commodity families: %w", err)
	}

	return &c, nil
}

// ListCommodities returns every commodity ordered by id.
func (s *CommodityStore) ListCommodities(ctx context.Context) ([]fusion.Commodity, error) {
	var rows []commodityRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, type, rarity, fuse_amount, rate
		FROM commodities
		ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("querying commodities: %w", err)
	}

	var families []familyRow
	if err := s.db.SelectContext(ctx, &families, `
		SELECT commodity_id, family FROM commodity_families
		ORDER BY commodity_id, family
	`); err != nil {
		return nil, fmt.Errorf("querying commodity families: %w", err)
	}

	byID := make(map[string][]string)
	for _, f := range families {
		byID[f.CommodityID] = append(byID[f.CommodityID], f.Family)
	}

	commodities := make([]fusion.Commodity, 0, len(rows))
	for _, row := range rows {
		c := row.commodity()
		c.Families = byID[row.ID]
		commodities = append(commodities, c)
	}
	return commodities, nil
}

// ListIDs returns every commodity id in sorted order.
func (s *CommodityStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM commodities ORDER BY id`); err != nil {
		return nil, fmt.Errorf("querying commodity ids: %w", err)
	}
	return ids, nil
}

// CountCommodities returns the number of stored commodities.
func (s *CommodityStore) CountCommodities(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM commodities`); err != nil {
		return 0, fmt.Errorf("counting commodities: %w", err)
	}
	return n, nil
}

// BulkInsertCommodities upserts commodities and replaces their families.
// Existing rows are updated in place so recipes referencing them survive.
func (s *CommodityStore) BulkInsertCommodities(ctx context.Context, commodities []fusion.Commodity) error {
	return s.db.InTransaction(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, `
			INSERT INTO commodities (id, name, type, rarity, fuse_amount, rate)
			VALUES (:id, :name, :type, :rarity, :fuse_amount, :rate)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				type = excluded.type,
				rarity = excluded.rarity,
				fuse_amount = excluded.fuse_amount,
				rate = excluded.rate
		`)
		if err != nil {
			return fmt.Errorf("preparing commodity insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, c := range commodities {
			row := commodityRow{
				ID:         c.ID,
				Name:       c.Name,
				Type:       c.Type,
				Rarity:     string(c.Rarity),
				FuseAmount: c.FuseAmount,
				Rate:       c.Rate,
			}
			if _, err := stmt.ExecContext(ctx, row); err != nil {
				return fmt.Errorf("inserting commodity %s: %w", c.ID, err)
			}

			if _, err := tx.ExecContext(ctx, `DELETE FROM commodity_families WHERE commodity_id = ?`, c.ID); err != nil {
				return fmt.Errorf("clearing families for %s: %w", c.ID, err)
			}
			for _, fam := range c.Families {
				if _, err := tx.ExecContext(ctx, `
					INSERT OR IGNORE INTO commodity_families (commodity_id, family)
					VALUES (?, ?)
				`, c.ID, fam); err != nil {
					return fmt.Errorf("inserting family %s for %s: %w", fam, c.ID, err)
				}
			}
		}

		return nil
	})
}

// ClearCommodities removes all commodities. Families and recipes cascade.
func (s *CommodityStore) ClearCommodities(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM commodities`); err != nil {
		return fmt.Errorf("clearing commodities: %w", err)
	}
	return nil
}
