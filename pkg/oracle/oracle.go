// Package oracle asks a language model whether a detected trade should be
// acted on.
package oracle

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Action is the oracle's decision
type Action string

const (
	ActionExecute Action = "execute"
	ActionSkip    Action = "skip"
	ActionWait    Action = "wait"
)

// Valid reports whether a is one of the three known actions
func (a Action) Valid() bool {
	switch a {
	case ActionExecute, ActionSkip, ActionWait:
		return true
	}
	return false
}

// Confidence thresholds an execute verdict must reach before anything is proposed
const (
	IdeaThreshold       = 0.5
	LeaderSwapThreshold = 0.6
	LimitOrderThreshold = 0.7
)

// Order types suggested for idea posts
const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// Adjustments are optional execution hints attached to a verdict
type Adjustments struct {
	SlippageBps int    `json:"slippage_bps,omitempty"`
	Urgency     string `json:"urgency,omitempty"`
}

// Verdict is the oracle's answer for a leader swap or a limit order
type Verdict struct {
	Action      Action       `json:"action"`
	Reason      string       `json:"reason"`
	Confidence  float64      `json:"confidence"`
	Adjustments *Adjustments `json:"adjustments,omitempty"`
}

// Approves reports whether the verdict is execute with at least threshold confidence
func (v Verdict) Approves(threshold float64) bool {
	return v.Action == ActionExecute && v.Confidence >= threshold
}

// SlippageBps returns the suggested slippage, zero when none was given
func (v Verdict) SlippageBps() int {
	if v.Adjustments == nil {
		return 0
	}
	return v.Adjustments.SlippageBps
}

// Urgency returns the suggested urgency, empty when none was given
func (v Verdict) Urgency() string {
	if v.Adjustments == nil {
		return ""
	}
	return v.Adjustments.Urgency
}

// IdeaVerdict extends Verdict with sizing for idea posts
type IdeaVerdict struct {
	Verdict
	OrderType            string      `json:"order_type"`
	SuggestedAmount      LooseString `json:"suggested_amount,omitempty"`
	SuggestedSlippageBps int         `json:"suggested_slippage_bps,omitempty"`
}

// LooseString accepts either a JSON string or a JSON number. Models are not
// consistent about quoting amounts.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler
func (s *LooseString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = LooseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = LooseString(num.String())
	return nil
}

// LeaderSwapContext describes a leader's swap observed on the hook
type LeaderSwapContext struct {
	Leader           common.Address
	FollowerCount    int
	ZeroForOne       bool
	Amount           string
	Delta0           string
	Delta1           string
	LeaderTradeCount int
}

// LimitOrderContext describes one on-chain limit order
type LimitOrderContext struct {
	OrderID      uint64
	Owner        common.Address
	ZeroForOne   bool
	Amount       string
	TriggerPrice string
	CurrentPrice string
	CreatedAt    time.Time
}

// IdeaContext describes one trade idea post
type IdeaContext struct {
	PostID   string
	Content  string
	Pair     string
	Side     string
	Price    string
	Username string
	Address  string
	IsLeader bool
	Token0   string
	Token1   string
}

// OrderType returns limit when the idea carries a price, market otherwise
func (c IdeaContext) OrderType() string {
	if HasPrice(c.Price) {
		return OrderTypeLimit
	}
	return OrderTypeMarket
}

// HasPrice reports whether price is set and not zero
func HasPrice(price string) bool {
	if price == "" {
		return false
	}
	if f, err := strconv.ParseFloat(price, 64); err == nil {
		return f != 0
	}
	return price != "0"
}

// Oracle decides on trades. Implementations never return an error: any
// failure is folded into a wait or skip verdict with zero confidence.
type Oracle interface {
	EvaluateLeaderSwap(ctx context.Context, in LeaderSwapContext) Verdict
	EvaluateLimitOrder(ctx context.Context, in LimitOrderContext) Verdict
	AnalyzeIdea(ctx context.Context, in IdeaContext) IdeaVerdict
}
