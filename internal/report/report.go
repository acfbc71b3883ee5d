// Package report computes dashboard aggregates over already-scoped entity
// slices. Callers pass data obtained through a resolved scope; nothing here
// reads the store directly.
package report

import (
	"time"

	"kindercore/pkg/domain"
)

// BranchStats summarizes one branch for dashboard cards.
type BranchStats struct {
	BranchID      string  `json:"branch_id"`
	GroupsCount   int     `json:"groups_count"`
	StudentsCount int     `json:"students_count"`
	CapacityRatio float64 `json:"capacity_ratio"`
}

// ComputeBranchStats counts the branch's groups and students and derives the
// occupancy ratio. The ratio clamps at 1.0; a branch without a declared
// capacity reports 0.
func ComputeBranchStats(branch domain.Branch, groups []domain.Group, students []domain.Student) BranchStats {
	stats := BranchStats{BranchID: branch.ID}
	for _, group := range groups {
		if group.BranchID == branch.ID {
			stats.GroupsCount++
		}
	}
	for _, student := range students {
		if student.BranchID == branch.ID {
			stats.StudentsCount++
		}
	}
	if branch.Capacity > 0 {
		ratio := float64(stats.StudentsCount) / float64(branch.Capacity)
		if ratio > 1 {
			ratio = 1
		}
		stats.CapacityRatio = ratio
	}
	return stats
}

// Total sums the amounts of records matching the given type, month, and year.
func Total(records []domain.FinancialRecord, recordType domain.RecordType, month time.Month, year int) float64 {
	var total float64
	for _, record := range records {
		if record.Type != recordType {
			continue
		}
		if record.Date.Month() != month || record.Date.Year() != year {
			continue
		}
		total += record.Amount
	}
	return total
}

// Growth returns the percentage change from last to current. A zero baseline
// reports 100 when there is any current value, 0 otherwise.
func Growth(current, last float64) float64 {
	if last == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - last) / last * 100
}

// MonthlyPoint is one calendar-month bucket of a financial series.
type MonthlyPoint struct {
	Month   time.Month `json:"month"`
	Year    int        `json:"year"`
	Revenue float64    `json:"revenue"`
	Expense float64    `json:"expense"`
	Profit  float64    `json:"profit"`
}

// MonthlySeries buckets records into the trailing months calendar months
// ending at now, oldest first. Records outside the window are ignored.
func MonthlySeries(records []domain.FinancialRecord, now time.Time, months int) []MonthlyPoint {
	if months <= 0 {
		return nil
	}
	series := make([]MonthlyPoint, 0, months)
	index := make(map[[2]int]int, months)
	// Step from the first of the month so that month arithmetic never
	// normalizes a short month away (Mar 31 minus one month is not Feb 31).
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := months - 1; i >= 0; i-- {
		anchor := first.AddDate(0, -i, 0)
		key := [2]int{anchor.Year(), int(anchor.Month())}
		index[key] = len(series)
		series = append(series, MonthlyPoint{Month: anchor.Month(), Year: anchor.Year()})
	}
	for _, record := range records {
		key := [2]int{record.Date.Year(), int(record.Date.Month())}
		pos, ok := index[key]
		if !ok {
			continue
		}
		switch record.Type {
		case domain.RecordRevenue:
			series[pos].Revenue += record.Amount
		case domain.RecordExpense:
			series[pos].Expense += record.Amount
		}
	}
	for i := range series {
		series[i].Profit = series[i].Revenue - series[i].Expense
	}
	return series
}

// PlatformBranchStats extends BranchStats with financial totals for
// platform-level reporting.
type PlatformBranchStats struct {
	BranchStats
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
	Expense float64 `json:"expense"`
}

// PlatformStats summarizes every branch for superadmin reporting, preserving
// branch order.
type PlatformStats struct {
	Branches      []PlatformBranchStats `json:"branches"`
	BranchesCount int                   `json:"branches_count"`
	UsersCount    int                   `json:"users_count"`
	StudentsCount int                   `json:"students_count"`
	TotalRevenue  float64               `json:"total_revenue"`
	TotalExpense  float64               `json:"total_expense"`
}

// ComputePlatformStats aggregates per-branch counts and lifetime financial
// totals across the supplied slices.
func ComputePlatformStats(branches []domain.Branch, groups []domain.Group, students []domain.Student, users []domain.User, records []domain.FinancialRecord) PlatformStats {
	stats := PlatformStats{
		BranchesCount: len(branches),
		UsersCount:    len(users),
		StudentsCount: len(students),
	}
	revenueByBranch := make(map[string]float64)
	expenseByBranch := make(map[string]float64)
	for _, record := range records {
		switch record.Type {
		case domain.RecordRevenue:
			revenueByBranch[record.BranchID] += record.Amount
			stats.TotalRevenue += record.Amount
		case domain.RecordExpense:
			expenseByBranch[record.BranchID] += record.Amount
			stats.TotalExpense += record.Amount
		}
	}
	for _, branch := range branches {
		stats.Branches = append(stats.Branches, PlatformBranchStats{
			BranchStats: ComputeBranchStats(branch, groups, students),
			Name:        branch.Name,
			Revenue:     revenueByBranch[branch.ID],
			Expense:     expenseByBranch[branch.ID],
		})
	}
	return stats
}
