package analysis

import (
	"fmt"
	"strings"
)

// systemPrompt frames every analysis conversation. The "live market data"
// wording is prompt copy carried over from the product: the model is asked
// to answer as if it had scraped current listings. No scraping happens
// anywhere in this service.
const systemPrompt = `You are a senior Dubai real-estate market analyst. ` +
	`Answer as if you had just reviewed live listing data from the major Dubai ` +
	`property portals and the Dubai Land Department transaction registry. ` +
	`Quote prices in AED, cite typical ranges rather than single figures, and ` +
	`clearly separate facts from projections. Keep the tone professional and ` +
	`suitable for an investor-facing report.`

func marketPrompt(q MarketQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prepare a market analysis for %s properties in %s, Dubai.\n\n",
		q.PropertyType, q.Location)
	if q.Bedrooms > 0 {
		fmt.Fprintf(&b, "Focus on %d-bedroom units.\n", q.Bedrooms)
	}
	if q.BudgetAED > 0 {
		fmt.Fprintf(&b, "The buyer's budget is approximately %.0f AED.\n", q.BudgetAED)
	}
	b.WriteString(`
Cover the following sections:
1. Current asking-price range and price per square foot.
2. Transaction volume and how it compares to the previous quarter.
3. Typical gross rental yield for this segment.
4. Supply pipeline: notable projects handing over in the next 18 months.
5. A short verdict: is this a buyer's or seller's market right now?`)
	return b.String()
}

func investmentPrompt(q InvestmentQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Advise an investor considering %s, Dubai.\n\n", q.Location)
	fmt.Fprintf(&b, "Primary goal: %s.\n", q.Goal)
	if q.HorizonYrs > 0 {
		fmt.Fprintf(&b, "Investment horizon: %d years.\n", q.HorizonYrs)
	}
	if q.RiskProfile != "" {
		fmt.Fprintf(&b, "Risk profile: %s.\n", q.RiskProfile)
	}
	b.WriteString(`
Structure the advice as:
1. Suitability of the area for the stated goal.
2. Expected gross and net rental yield after service charges.
3. Capital-growth outlook with the main drivers and risks.
4. Two alternative areas worth comparing, with one-line reasons.
5. Practical next steps (financing, fees, DLD registration costs).`)
	return b.String()
}

func trendPrompt(q TrendQuery) string {
	period := q.Period
	if period == "" {
		period = "the last 12 months"
	}
	return fmt.Sprintf(`Summarize property market trends for %s, Dubai over %s.

Include:
1. Direction and magnitude of sale-price movement.
2. Rental market movement and vacancy pressure.
3. Off-plan versus ready-property demand balance.
4. The single most important trend an investor should watch next quarter.`,
		q.Area, period)
}

func translatePrompt(q TranslateQuery) string {
	return fmt.Sprintf(
		"Translate the following real-estate content into %s. Preserve numbers, "+
			"currency amounts and proper nouns exactly. Return only the translation.\n\n%s",
		q.TargetLanguage, q.Text)
}
