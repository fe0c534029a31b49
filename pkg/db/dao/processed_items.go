package dao

import (
	"time"

	"github.com/uptrace/bun"
)

// ProcessedItemDao is a data access object that maps directly to the 'processed_items' table in PostgreSQL.
// The (kind, item_key) pair is unique.
type ProcessedItemDao struct {
	bun.BaseModel `bun:"table:processed_items"`
	ID            int64     `json:"id" bun:",pk,autoincrement"`
	Kind          string    `json:"kind" bun:",notnull,unique:kind_item_key,type:varchar(32)"`
	ItemKey       string    `json:"item_key" bun:",notnull,unique:kind_item_key,type:varchar(255)"`
	Note          string    `json:"note" bun:",type:text"`
	CreatedAt     time.Time `json:"created_at" bun:",notnull,nullzero,default:current_timestamp"`
}
