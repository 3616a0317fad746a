package models

import "github.com/uptrace/bun"

type Truck struct {
	bun.BaseModel `bun:"table:trucks"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	TruckNumber string `bun:"truck_number,unique,notnull" json:"truck_number"`
	Description string `bun:"description" json:"description"`
	TruckSize   string `bun:"truck_size" json:"truck_size"`
	HauledBy    string `bun:"hauled_by" json:"hauled_by"`
	Active      bool   `bun:"active,notnull,default:true" json:"active"`
}
