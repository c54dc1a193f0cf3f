package usecase

import (
	"fmt"
	"strings"
)

// DayRetention keeps the Recent newest generations plus, among older ones,
// every generation taken on one of MonthDays.
type DayRetention struct {
	Recent    int
	MonthDays []int
}

// RetentionPolicy combines the retention rules of a backup set.
// A zero KeepRecent or a nil KeepDays disables the corresponding rule.
type RetentionPolicy struct {
	KeepRecent int
	KeepDays   *DayRetention
}

// Active reports whether any rule is enabled.
func (p RetentionPolicy) Active() bool {
	return p.KeepRecent > 0 || p.KeepDays != nil
}

// Validate rejects out-of-range values before any deletion is planned.
func (p RetentionPolicy) Validate() error {
	if p.KeepRecent < 0 {
		return fmt.Errorf("keep_recent must be positive, got %d: %w", p.KeepRecent, ErrUsage)
	}
	if p.KeepDays == nil {
		return nil
	}
	if p.KeepDays.Recent < 1 {
		return fmt.Errorf("keep_days.recent must be positive, got %d: %w", p.KeepDays.Recent, ErrUsage)
	}
	if len(p.KeepDays.MonthDays) == 0 {
		return fmt.Errorf("keep_days.month_days is empty: %w", ErrUsage)
	}
	for _, d := range p.KeepDays.MonthDays {
		if d < 1 || d > 31 {
			return fmt.Errorf("keep_days.month_days: %d out of range 1..31: %w", d, ErrUsage)
		}
	}
	return nil
}

// String renders the policy for logs.
func (p RetentionPolicy) String() string {
	var parts []string
	if p.KeepRecent > 0 {
		parts = append(parts, fmt.Sprintf("keep %d", p.KeepRecent))
	}
	if p.KeepDays != nil {
		parts = append(parts, fmt.Sprintf("keep %d + days %v", p.KeepDays.Recent, p.KeepDays.MonthDays))
	}
	if len(parts) == 0 {
		return "keep all"
	}
	return strings.Join(parts, ", ")
}

// SelectRetention partitions chronologically ascending generation
// identifiers into those to delete and those to keep. Both results keep the
// input order.
//
// The day rule runs first over the whole list. The count rule then trims
// the oldest generations the day rule left alive until at most KeepRecent
// remain.
func SelectRetention(ids []string, policy RetentionPolicy) (toDelete, toKeep []string) {
	alive := make([]bool, len(ids))
	for i := range alive {
		alive[i] = true
	}

	applyDayRetention(ids, policy.KeepDays, alive)
	applyKeepRecent(policy.KeepRecent, alive)

	for i, id := range ids {
		if alive[i] {
			toKeep = append(toKeep, id)
		} else {
			toDelete = append(toDelete, id)
		}
	}
	return toDelete, toKeep
}

func applyDayRetention(ids []string, rule *DayRetention, alive []bool) {
	if rule == nil || rule.Recent <= 0 {
		return
	}
	days := make(map[int]struct{}, len(rule.MonthDays))
	for _, d := range rule.MonthDays {
		days[d] = struct{}{}
	}
	for i := len(ids) - rule.Recent - 1; i >= 0; i-- {
		if _, ok := days[generationDay(ids[i])]; ok {
			continue
		}
		alive[i] = false
	}
}

func applyKeepRecent(keep int, alive []bool) {
	if keep <= 0 {
		return
	}
	live := 0
	for _, ok := range alive {
		if ok {
			live++
		}
	}
	toRemove := live - keep
	for i := 0; i < len(alive) && toRemove > 0; i++ {
		if !alive[i] {
			continue
		}
		alive[i] = false
		toRemove--
	}
}

func generationDay(id string) int {
	if g, ok := ParseGeneration(id); ok {
		return timestampDay(g.Timestamp)
	}
	return timestampDay(id)
}
