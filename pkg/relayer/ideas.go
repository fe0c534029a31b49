package relayer

import (
	"context"
	"strings"

	"github.com/chainsafe/copytrade-relayer/internal/metrics"
	"github.com/chainsafe/copytrade-relayer/pkg/backend"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/oracle"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// defaultIdeaAmount is proposed when the oracle does not size an idea
const defaultIdeaAmount = "10"

// IdeaProcessor turns trade ideas from the social feed into proposals for the
// author's followers
type IdeaProcessor struct {
	hook    Hook
	oracle  oracle.Oracle
	backend Backend
	store   ProcessedStore
	logger  *zap.Logger
}

// NewIdeaProcessor creates a processor. Without a hook, proposals go to the
// author only.
func NewIdeaProcessor(hook Hook, o oracle.Oracle, b Backend, store ProcessedStore, logger *zap.Logger) *IdeaProcessor {
	return &IdeaProcessor{
		hook:    hook,
		oracle:  o,
		backend: b,
		store:   store,
		logger:  logger.Named("ideas"),
	}
}

// Process analyses every unprocessed idea. An idea is marked processed
// whatever the verdict.
func (p *IdeaProcessor) Process(ctx context.Context) error {
	ideas := p.backend.FetchUnprocessedIdeas(ctx)
	if len(ideas) == 0 {
		return nil
	}

	p.logger.Info("Processing idea posts", zap.Int("count", len(ideas)))

	for i := range ideas {
		idea := &ideas[i]
		seen, err := p.store.IsProcessed(ctx, db.KindIdea, idea.ID)
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("ideas", "store").Inc()
			p.logger.Error("Failed to check idea", zap.String("post_id", idea.ID), zap.Error(err))
			continue
		}
		if !seen {
			p.handle(ctx, idea)
		}

		// a repeat means the backend missed the earlier mark
		p.backend.MarkIdeaProcessed(ctx, idea.ID)
		if _, err := p.store.MarkProcessed(ctx, db.KindIdea, idea.ID, idea.Username); err != nil {
			metrics.ErrorsTotal.WithLabelValues("ideas", "store").Inc()
			p.logger.Error("Failed to record idea", zap.String("post_id", idea.ID), zap.Error(err))
		}
	}
	return nil
}

func (p *IdeaProcessor) handle(ctx context.Context, idea *backend.IdeaPost) {
	logger := p.logger.With(
		zap.String("post_id", idea.ID),
		zap.String("author", idea.Username))

	logger.Info("Analysing idea",
		zap.String("pair", idea.Pair),
		zap.String("side", idea.Side),
		zap.String("price", idea.Price))

	verdict := p.oracle.AnalyzeIdea(ctx, oracle.IdeaContext{
		PostID:   idea.ID,
		Content:  idea.Content,
		Pair:     idea.Pair,
		Side:     idea.Side,
		Price:    idea.Price,
		Username: idea.Username,
		Address:  idea.Address,
		IsLeader: idea.IsLeader != 0,
		Token0:   idea.PairAddress0,
		Token1:   idea.PairAddress1,
	})
	logger.Info("Oracle verdict",
		zap.String("action", string(verdict.Action)),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("order_type", verdict.OrderType),
		zap.String("reason", verdict.Reason))

	if !verdict.Approves(oracle.IdeaThreshold) {
		return
	}

	proposalType := backend.ProposalAISuggestion
	if verdict.OrderType == oracle.OrderTypeLimit {
		proposalType = backend.ProposalLimitOrder
	}
	amount := string(verdict.SuggestedAmount)
	if amount == "" {
		amount = defaultIdeaAmount
	}
	slippage := verdict.SuggestedSlippageBps
	if slippage == 0 {
		slippage = verdict.SlippageBps()
	}

	targets := p.targets(ctx, idea, logger)
	for _, target := range targets {
		p.backend.CreateTradeProposal(ctx, backend.Proposal{
			UserAddress:   target,
			Type:          proposalType,
			ZeroForOne:    strings.EqualFold(idea.Side, "sell"),
			Amount:        amount,
			Token0:        idea.PairAddress0,
			Token1:        idea.PairAddress1,
			PoolFee:       idea.PoolFee,
			LeaderAddress: idea.Address,
			AIConfidence:  verdict.Confidence,
			AIReason:      "[Idea by @" + idea.Username + "] " + verdict.Reason,
			SlippageBps:   slippage,
			Urgency:       verdict.Urgency(),
		})
	}
	logger.Info("Created idea proposals",
		zap.String("type", string(proposalType)),
		zap.Int("targets", len(targets)))
}

// targets returns the author's followers, or the author alone when there are
// none or they cannot be read
func (p *IdeaProcessor) targets(ctx context.Context, idea *backend.IdeaPost, logger *zap.Logger) []string {
	author := []string{idea.Address}
	if p.hook == nil || !common.IsHexAddress(idea.Address) {
		return author
	}
	followers, err := p.hook.Followers(ctx, common.HexToAddress(idea.Address))
	if err != nil {
		logger.Warn("Could not read followers, proposing to author only", zap.Error(err))
		return author
	}
	if len(followers) == 0 {
		return author
	}
	out := make([]string, len(followers))
	for i, f := range followers {
		out[i] = f.Hex()
	}
	return out
}
