package analysis

import "time"

// MarketQuery carries the search criteria for a market analysis.
type MarketQuery struct {
	Location     string  `json:"location"`
	PropertyType string  `json:"propertyType"`
	Bedrooms     int     `json:"bedrooms,omitempty"`
	BudgetAED    float64 `json:"budgetAED,omitempty"`
	Model        string  `json:"model,omitempty"`
}

// InvestmentQuery carries the criteria for investment advice.
type InvestmentQuery struct {
	Location    string `json:"location"`
	Goal        string `json:"goal"` // e.g. rental-income, capital-growth
	HorizonYrs  int    `json:"horizonYears,omitempty"`
	RiskProfile string `json:"riskProfile,omitempty"`
	Model       string `json:"model,omitempty"`
}

// TrendQuery carries the criteria for a trend report.
type TrendQuery struct {
	Area   string `json:"area"`
	Period string `json:"period,omitempty"` // e.g. "last 12 months"
	Model  string `json:"model,omitempty"`
}

// TranslateQuery carries a translation relay request.
type TranslateQuery struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	Model          string `json:"model,omitempty"`
}

// Report is the result of any analysis operation. Fallback marks content
// that was generated locally because the provider call failed.
type Report struct {
	Endpoint    string    `json:"endpoint"`
	Content     string    `json:"content"`
	Model       string    `json:"model,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Fallback    bool      `json:"fallback"`
	GeneratedAt time.Time `json:"generated_at"`
}
