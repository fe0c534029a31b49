// Package db persists the relayer's processed sets, chain cursors and
// orchestration runs.
package db

import (
	"time"

	"github.com/google/uuid"
)

// ItemKind names one processed set
type ItemKind string

const (
	KindOrder      ItemKind = "order"
	KindLimitOrder ItemKind = "limit_order"
	KindLeaderSwap ItemKind = "leader_swap"
	KindIdea       ItemKind = "idea"
)

// RunStatus represents the current state of a bridge-and-swap run
type RunStatus string

const (
	RunStatusStarted   RunStatus = "started"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// BridgeRun is the audit record of one bridge-and-swap run
type BridgeRun struct {
	ID                    uuid.UUID `json:"id"`
	OrderID               string    `json:"order_id,omitempty"`
	UserAddress           string    `json:"user_address"`
	Amount                string    `json:"amount"`
	ZeroForOne            bool      `json:"zero_for_one"`
	Status                RunStatus `json:"status"`
	Stage                 string    `json:"stage"`
	BridgeToDestinationTx string    `json:"bridge_to_destination_tx,omitempty"`
	MintOnDestinationTx   string    `json:"mint_on_destination_tx,omitempty"`
	SwapTx                string    `json:"swap_tx,omitempty"`
	BridgeBackTx          string    `json:"bridge_back_tx,omitempty"`
	MintOnSourceTx        string    `json:"mint_on_source_tx,omitempty"`
	Error                 string    `json:"error,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
