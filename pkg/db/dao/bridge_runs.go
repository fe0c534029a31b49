package dao

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BridgeRunDao is a data access object that maps directly to the 'bridge_runs' table in PostgreSQL.
type BridgeRunDao struct {
	bun.BaseModel         `bun:"table:bridge_runs"`
	ID                    uuid.UUID `json:"id" bun:",pk,type:uuid"`
	OrderID               string    `json:"order_id" bun:",type:varchar(128)"`
	UserAddress           string    `json:"user_address" bun:",notnull,type:varchar(42)"`
	Amount                string    `json:"amount" bun:",notnull,type:numeric(78,0)"`
	ZeroForOne            bool      `json:"zero_for_one" bun:",notnull"`
	Status                string    `json:"status" bun:",notnull,type:varchar(20)"`
	Stage                 string    `json:"stage" bun:",notnull,type:varchar(32)"`
	BridgeToDestinationTx string    `json:"bridge_to_destination_tx" bun:",type:varchar(66)"`
	MintOnDestinationTx   string    `json:"mint_on_destination_tx" bun:",type:varchar(66)"`
	SwapTx                string    `json:"swap_tx" bun:",type:varchar(66)"`
	BridgeBackTx          string    `json:"bridge_back_tx" bun:",type:varchar(66)"`
	MintOnSourceTx        string    `json:"mint_on_source_tx" bun:",type:varchar(66)"`
	Error                 string    `json:"error" bun:",type:text"`
	CreatedAt             time.Time `json:"created_at" bun:",notnull,nullzero,default:current_timestamp"`
	UpdatedAt             time.Time `json:"updated_at" bun:",notnull,nullzero,default:current_timestamp"`
}
