package antenatal

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

var (
	standardWeeks = []int{16, 20, 26, 30, 34, 36, 38, 40}
	highRiskWeeks = []int{16, 20, 24, 28, 30, 32, 34, 36, 37, 38, 39, 40}
)

// PlannedVisit is one entry of a generated visit schedule.
type PlannedVisit struct {
	Seq     int       `json:"seq"`
	Week    int       `json:"week"`
	Date    time.Time `json:"date"`
	Purpose string    `json:"purpose"`
}

// visitPurpose maps a gestational week to the visit's clinical purpose.
func visitPurpose(week int) string {
	switch {
	case week < 20:
		return "Early Antenatal Assessment"
	case week == 20:
		return "Anomaly Scan & Assessment"
	case week >= 36:
		return "Birth Preparation & Monitoring"
	default:
		return "Routine Antenatal Check"
	}
}

// GenerateSchedule produces the remaining antenatal visits for a pregnancy.
// Weeks come from the tier list (high-risk pregnancies are seen more often);
// each visit lands at EDD - 7*(40-week) days. Only weeks beyond currentWeek
// with dates strictly after now are kept. The output is deterministic for
// identical inputs.
func GenerateSchedule(edd time.Time, highRisk bool, currentWeek int, now time.Time) ([]PlannedVisit, error) {
	if edd.IsZero() {
		return nil, fmt.Errorf("due date is required")
	}

	weeks := standardWeeks
	if highRisk {
		weeks = highRiskWeeks
	}

	upcoming := lo.Filter(weeks, func(week int, _ int) bool {
		return week > currentWeek
	})

	var visits []PlannedVisit
	for _, week := range upcoming {
		date := edd.AddDate(0, 0, -7*(40-week))
		if !date.After(now) {
			continue
		}
		visits = append(visits, PlannedVisit{
			Seq:     len(visits) + 1,
			Week:    week,
			Date:    date,
			Purpose: visitPurpose(week),
		})
	}
	return visits, nil
}
