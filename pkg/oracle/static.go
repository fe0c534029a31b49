package oracle

import "context"

// Static returns the same verdict for every question
type Static struct {
	Verdict Verdict
	// Idea overrides the idea verdict; when nil Verdict is used for ideas too
	Idea *IdeaVerdict
}

var _ Oracle = (*Static)(nil)

// NotConfigured is the oracle used when no API key is set
func NotConfigured() *Static {
	return &Static{Verdict: Verdict{Action: ActionSkip, Reason: "AI not configured"}}
}

// EvaluateLeaderSwap implements Oracle
func (s *Static) EvaluateLeaderSwap(context.Context, LeaderSwapContext) Verdict {
	return s.Verdict
}

// EvaluateLimitOrder implements Oracle
func (s *Static) EvaluateLimitOrder(context.Context, LimitOrderContext) Verdict {
	return s.Verdict
}

// AnalyzeIdea implements Oracle
func (s *Static) AnalyzeIdea(_ context.Context, in IdeaContext) IdeaVerdict {
	if s.Idea != nil {
		v := *s.Idea
		v.OrderType = in.OrderType()
		return v
	}
	return IdeaVerdict{Verdict: s.Verdict, OrderType: in.OrderType()}
}
