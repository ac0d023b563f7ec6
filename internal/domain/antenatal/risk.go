package antenatal

import (
	"github.com/samber/lo"
)

// Risk levels assigned to a pregnancy.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// highRiskFactors dominate: any one of these makes the pregnancy high risk.
var highRiskFactors = []string{
	"previous-caesarean",
	"pre-eclampsia",
	"eclampsia",
	"placenta-praevia",
	"multiple-gestation",
	"gestational-diabetes",
	"chronic-hypertension",
	"cardiac-disease",
	"hiv-positive",
	"sickle-cell-disease",
	"previous-stillbirth",
	"rh-negative-sensitised",
}

var mediumRiskFactors = []string{
	"maternal-age-under-18",
	"maternal-age-over-35",
	"grand-multiparity",
	"previous-miscarriage",
	"anaemia",
	"obesity",
	"underweight",
	"previous-preterm-birth",
	"asthma",
	"thyroid-disorder",
}

// KnownRiskFactor reports whether tag belongs to either membership list.
func KnownRiskFactor(tag string) bool {
	return lo.Contains(highRiskFactors, tag) || lo.Contains(mediumRiskFactors, tag)
}

// RiskFactors returns the recognised tags grouped by severity.
func RiskFactors() (high, medium []string) {
	return highRiskFactors, mediumRiskFactors
}

// ScoreRisk classifies a pregnancy from its selected risk-factor tags.
// Duplicates are ignored; any high tag wins, then any medium tag, else low.
func ScoreRisk(tags []string) string {
	unique := lo.Uniq(tags)

	if lo.Some(unique, highRiskFactors) {
		return RiskHigh
	}
	if lo.Some(unique, mediumRiskFactors) {
		return RiskMedium
	}
	return RiskLow
}
