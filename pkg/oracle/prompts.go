package oracle

import (
	"fmt"
	"strings"
	"time"
)

const systemPrompt = `You are an autonomous trading agent operating on a Uniswap v4 pool through a copy-trade hook contract.

You relay leader swaps to followers, decide whether on-chain limit orders should execute, and turn trade ideas from a social feed into proposals.

Answer with a single JSON object and nothing else:
{
  "action": "execute" | "skip" | "wait",
  "reason": "brief explanation",
  "confidence": 0.0-1.0,
  "adjustments": {
    "slippage_bps": number (optional, default 50),
    "urgency": "high" | "medium" | "low"
  }
}

Rules:
- USDC is the native currency on the home chain (18 decimals there, 6 as a token elsewhere)
- Weigh gas costs against trade size
- Copy trades: relay when the leader has a good track record
- Limit orders: execute when the current price has crossed the trigger price
- When unsure answer "wait". Protect user funds.`

func directionLabel(zeroForOne bool, buy, sell string) string {
	if zeroForOne {
		return buy
	}
	return sell
}

func leaderSwapPrompt(in LeaderSwapContext) string {
	var b strings.Builder
	b.WriteString("A leader just swapped on the pool. Should this be relayed to their followers?\n\n")
	fmt.Fprintf(&b, "Leader: %s\n", in.Leader.Hex())
	fmt.Fprintf(&b, "Followers: %d\n", in.FollowerCount)
	fmt.Fprintf(&b, "Direction: %s\n", directionLabel(in.ZeroForOne, "token0 -> token1 (buy)", "token1 -> token0 (sell)"))
	fmt.Fprintf(&b, "Amount: %s\n", in.Amount)
	fmt.Fprintf(&b, "Delta0: %s\n", in.Delta0)
	fmt.Fprintf(&b, "Delta1: %s\n", in.Delta1)
	fmt.Fprintf(&b, "Leader's total trade count: %d\n\n", in.LeaderTradeCount)
	b.WriteString("Evaluate and respond with the JSON decision.")
	return b.String()
}

func limitOrderPrompt(in LimitOrderContext, now time.Time) string {
	var b strings.Builder
	b.WriteString("A user has a pending limit order. Should it execute now?\n\n")
	fmt.Fprintf(&b, "Order ID: %d\n", in.OrderID)
	fmt.Fprintf(&b, "Owner: %s\n", in.Owner.Hex())
	fmt.Fprintf(&b, "Direction: %s\n", directionLabel(in.ZeroForOne, "buy (zeroForOne)", "sell (oneForZero)"))
	fmt.Fprintf(&b, "Amount: %s\n", in.Amount)
	fmt.Fprintf(&b, "Trigger Price: %s\n", in.TriggerPrice)
	fmt.Fprintf(&b, "Current Pool Price (sqrtPriceX96): %s\n", in.CurrentPrice)
	fmt.Fprintf(&b, "Created: %s\n", in.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Age: %d hours\n\n", int(now.Sub(in.CreatedAt).Hours()))
	b.WriteString("Evaluate whether the current price has crossed the trigger price and respond with the JSON decision.")
	return b.String()
}

func ideaPrompt(in IdeaContext) string {
	orderType := in.OrderType()
	role := "(Regular user)"
	if in.IsLeader {
		role = "(Leader)"
	}
	price := "NOT SET (market order)"
	priceRule := "No price was set, so this is a MARKET order executed at the current price."
	if orderType == OrderTypeLimit {
		price = in.Price
		priceRule = fmt.Sprintf("Price %s was set, so this is a LIMIT order. Only execute when the price reaches %s.", in.Price, in.Price)
	}
	sideRule := "buy token0 with token1 (zeroForOne=false)"
	if in.Side == "sell" {
		sideRule = "sell token0 for token1 (zeroForOne=true)"
	}

	var b strings.Builder
	b.WriteString("A trade idea was posted to the social feed and may become trade proposals for the author's followers.\n\n")
	b.WriteString("=== IDEA ===\n")
	fmt.Fprintf(&b, "Post ID: %s\n", in.PostID)
	fmt.Fprintf(&b, "Author: @%s %s\n", in.Username, role)
	fmt.Fprintf(&b, "Author Address: %s\n", in.Address)
	fmt.Fprintf(&b, "Pair: %s\n", in.Pair)
	fmt.Fprintf(&b, "Token0: %s\n", orUnknown(in.Token0))
	fmt.Fprintf(&b, "Token1: %s\n", orUnknown(in.Token1))
	fmt.Fprintf(&b, "Side: %s\n", strings.ToUpper(in.Side))
	fmt.Fprintf(&b, "Price: %s\n", price)
	fmt.Fprintf(&b, "Description: %q\n", in.Content)
	fmt.Fprintf(&b, "Order Type: %s\n\n", orderType)
	b.WriteString("Respond with JSON:\n")
	b.WriteString("{\n")
	b.WriteString(`  "action": "execute" | "skip" | "wait",` + "\n")
	b.WriteString(`  "reason": "brief explanation",` + "\n")
	b.WriteString(`  "confidence": 0.0-1.0,` + "\n")
	fmt.Fprintf(&b, "  \"order_type\": %q,\n", orderType)
	b.WriteString(`  "suggested_amount": "trade amount in USDC, e.g. '10'",` + "\n")
	b.WriteString(`  "suggested_slippage_bps": number (default 50, max 500),` + "\n")
	b.WriteString(`  "adjustments": {"slippage_bps": number, "urgency": "high" | "medium" | "low"}` + "\n")
	b.WriteString("}\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Give ideas from leaders higher confidence\n")
	fmt.Fprintf(&b, "- %s\n", priceRule)
	fmt.Fprintf(&b, "- Side %q means the author wants to %s\n", in.Side, sideRule)
	b.WriteString("- Suggest conservative amounts\n")
	b.WriteString("- Skip vague or low quality ideas")
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
