package contracts

// FeatureSpec 피처 카탈로그 항목
type FeatureSpec struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Source    string    `json:"source"`
	SourceID  string    `json:"source_id"` // 티커 또는 FRED 시리즈 ID
	Frequency Frequency `json:"frequency"`
}

// TargetFeature 예측 대상 (금 현물가)
const TargetFeature = "gold_spot"

// DefaultFeatureCatalog GoldSight 피처 카탈로그
// 시장 데이터는 일별(yfinance), 거시 지표와 지정학 리스크는 월별
func DefaultFeatureCatalog() []FeatureSpec {
	return []FeatureSpec{
		{Name: TargetFeature, Label: "Gold Spot", Source: "gold_org", Frequency: FrequencyDaily},
		{Name: "gold_futures", Label: "Gold Futures", Source: "yfinance", SourceID: "GC=F", Frequency: FrequencyDaily},
		{Name: "silver_futures", Label: "Silver Futures", Source: "yfinance", SourceID: "SI=F", Frequency: FrequencyDaily},
		{Name: "sp500", Label: "S&P 500", Source: "yfinance", SourceID: "^GSPC", Frequency: FrequencyDaily},
		{Name: "nasdaq", Label: "NASDAQ", Source: "yfinance", SourceID: "^IXIC", Frequency: FrequencyDaily},
		{Name: "crude_oil", Label: "Crude Oil", Source: "yfinance", SourceID: "CL=F", Frequency: FrequencyDaily},
		{Name: "vix", Label: "VIX Index", Source: "yfinance", SourceID: "^VIX", Frequency: FrequencyDaily},
		{Name: "gld", Label: "Gold ETF", Source: "yfinance", SourceID: "GLD", Frequency: FrequencyDaily},
		{Name: "cpi", Label: "CPI (Inflation)", Source: "fred", SourceID: "CPIAUCSL", Frequency: FrequencyMonthly},
		{Name: "fed_funds", Label: "Fed Funds Rate", Source: "fred", SourceID: "FEDFUNDS", Frequency: FrequencyMonthly},
		{Name: "treasury_10y", Label: "10Y Treasury", Source: "fred", SourceID: "GS10", Frequency: FrequencyMonthly},
		{Name: "real_rate_10y", Label: "10Y Real Rate", Source: "fred", SourceID: "DFII10", Frequency: FrequencyMonthly},
		{Name: "usd_index", Label: "USD Index", Source: "fred", SourceID: "DTWEXBGS", Frequency: FrequencyMonthly},
		{Name: "m2", Label: "M2 Money Supply", Source: "fred", SourceID: "M2SL", Frequency: FrequencyMonthly},
		{Name: "unemployment", Label: "Unemployment Rate", Source: "fred", SourceID: "UNRATE", Frequency: FrequencyMonthly},
		{Name: "gpr", Label: "Geopolitical Risk", Source: "gpr", SourceID: "GPR", Frequency: FrequencyMonthly},
		{Name: "gpr_acts", Label: "GPR Acts", Source: "gpr", SourceID: "GPRA", Frequency: FrequencyMonthly},
		{Name: "gpr_threats", Label: "GPR Threats", Source: "gpr", SourceID: "GPRT", Frequency: FrequencyMonthly},
	}
}

// FeatureFrequency 카탈로그에서 피처 주기 조회 (없으면 daily)
func FeatureFrequency(name string) Frequency {
	for _, f := range DefaultFeatureCatalog() {
		if f.Name == name {
			return f.Frequency
		}
	}
	return FrequencyDaily
}
