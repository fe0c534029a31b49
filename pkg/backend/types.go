package backend

// ProposalType is the kind of trade proposal offered to a user
type ProposalType string

const (
	ProposalCopyTrade    ProposalType = "copy-trade"
	ProposalLimitOrder   ProposalType = "limit-order"
	ProposalAISuggestion ProposalType = "ai-suggestion"
)

// OrderStatus is the terminal status reported for a pending order
type OrderStatus string

const (
	OrderExecuted OrderStatus = "executed"
	OrderFailed   OrderStatus = "failed"
)

// EventOrderExecuted is sent after an order settles
const EventOrderExecuted = "order-executed"

// Defaults applied to proposals that leave the field unset
const (
	DefaultPoolFee     = 3000
	DefaultSlippageBps = 50
	DefaultUrgency     = "medium"
)

// Proposal is a user-approvable trade created by the agent
type Proposal struct {
	UserAddress   string
	Type          ProposalType
	ZeroForOne    bool
	Amount        string
	Token0        string
	Token1        string
	PoolFee       uint32
	LeaderAddress string
	AIConfidence  float64
	AIReason      string
	SlippageBps   int
	Urgency       string
}

type proposalRequest struct {
	UserAddress   string       `json:"user_address"`
	Type          ProposalType `json:"type"`
	ZeroForOne    bool         `json:"zero_for_one"`
	Amount        string       `json:"amount"`
	Token0        string       `json:"token0"`
	Token1        string       `json:"token1"`
	PoolFee       uint32       `json:"pool_fee"`
	LeaderAddress string       `json:"leader_address"`
	AIConfidence  float64      `json:"ai_confidence"`
	AIReason      string       `json:"ai_reason"`
	SlippageBps   int          `json:"slippage_bps"`
	Urgency       string       `json:"urgency"`
}

func (p Proposal) request() proposalRequest {
	req := proposalRequest{
		UserAddress:   p.UserAddress,
		Type:          p.Type,
		ZeroForOne:    p.ZeroForOne,
		Amount:        p.Amount,
		Token0:        p.Token0,
		Token1:        p.Token1,
		PoolFee:       p.PoolFee,
		LeaderAddress: p.LeaderAddress,
		AIConfidence:  p.AIConfidence,
		AIReason:      p.AIReason,
		SlippageBps:   p.SlippageBps,
		Urgency:       p.Urgency,
	}
	if req.PoolFee == 0 {
		req.PoolFee = DefaultPoolFee
	}
	if req.SlippageBps == 0 {
		req.SlippageBps = DefaultSlippageBps
	}
	if req.Urgency == "" {
		req.Urgency = DefaultUrgency
	}
	return req
}

// PendingOrder is a user order waiting for the agent to execute it
type PendingOrder struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	UserAddress  string `json:"user_address"`
	Username     string `json:"username"`
	PoolKeyHash  string `json:"pool_key_hash"`
	ZeroForOne   int    `json:"zero_for_one"`
	Amount       string `json:"amount"`
	TriggerPrice string `json:"trigger_price"`
	Pair         string `json:"pair"`
	PairAddress0 string `json:"pair_address_0"`
	PairAddress1 string `json:"pair_address_1"`
	PoolFee      uint32 `json:"pool_fee"`
}

// IdeaPost is a trade idea published on the social feed
type IdeaPost struct {
	ID           string `json:"id"`
	AuthorID     string `json:"author_id"`
	Content      string `json:"content"`
	Pair         string `json:"pair"`
	PairAddress0 string `json:"pair_address_0"`
	PairAddress1 string `json:"pair_address_1"`
	PoolFee      uint32 `json:"pool_fee"`
	Side         string `json:"side"`
	Price        string `json:"price"`
	Username     string `json:"username"`
	Address      string `json:"address"`
	IsLeader     int    `json:"is_leader"`
}

type ordersResponse struct {
	Orders []PendingOrder `json:"orders"`
}

type ideasResponse struct {
	Ideas []IdeaPost `json:"ideas"`
}

type proposalResponse struct {
	Proposal struct {
		ID string `json:"id"`
	} `json:"proposal"`
}

type statusRequest struct {
	Status OrderStatus `json:"status"`
	TxHash string      `json:"tx_hash"`
}

type markProcessedRequest struct {
	PostID string `json:"post_id"`
}

type eventRequest struct {
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}
