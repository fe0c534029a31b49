package dao

import (
	"time"

	"github.com/uptrace/bun"
)

// ChainStateDao is a data access object that maps directly to the 'chain_state' table in PostgreSQL.
type ChainStateDao struct {
	bun.BaseModel `bun:"table:chain_state"`
	Chain         string    `json:"chain" bun:",pk,type:varchar(100)"`
	LastBlock     int64     `json:"last_block" bun:",notnull"`
	UpdatedAt     time.Time `json:"updated_at" bun:",notnull,nullzero,default:current_timestamp"`
}
