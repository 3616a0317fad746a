package models

import "github.com/uptrace/bun"

type Material struct {
	bun.BaseModel `bun:"table:materials"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	MaterialName string `bun:"material_name,unique,notnull" json:"material_name"`
	Active       bool   `bun:"active,notnull,default:true" json:"active"`
}
