package models

// UnitTotal is the summed quantity for one unit over a filtered ticket set.
type UnitTotal struct {
	Unit          string  `bun:"unit" json:"unit"`
	TotalQuantity float64 `bun:"total_quantity" json:"total_quantity"`
}

// MaterialTotal is the summed quantity for one (material, unit) pair over a
// filtered ticket set.
type MaterialTotal struct {
	MaterialName  string  `bun:"material_name_snapshot" json:"material_name"`
	Unit          string  `bun:"unit" json:"unit"`
	TotalQuantity float64 `bun:"total_quantity" json:"total_quantity"`
}
