// Package pkg holds small dependency-free helpers.
package pkg

import (
	"strconv"
	"time"
)

var chineseMonths = [12]string{
	"一月", "二月", "三月", "四月", "五月", "六月",
	"七月", "八月", "九月", "十月", "十一月", "十二月",
}

var chineseWeeks = [6]string{"一周", "二周", "三周", "四周", "五周", "六周"}

// WeekOfMonth returns the 1-based week of t within its month, with weeks
// starting on Sunday: ceil((day + weekday of the 1st) / 7).
func WeekOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return (t.Day() + int(first.Weekday()) + 6) / 7
}

// WeekLabel formats the localized week label for now shifted by offsetWeeks,
// e.g. "2025年三月二周". It uses now's own calendar date and location.
func WeekLabel(now time.Time, offsetWeeks int) string {
	target := now.AddDate(0, 0, offsetWeeks*7)
	n := WeekOfMonth(target)

	week := strconv.Itoa(n) + "周"
	if n >= 1 && n <= len(chineseWeeks) {
		week = chineseWeeks[n-1]
	}
	return strconv.Itoa(target.Year()) + "年" + chineseMonths[target.Month()-1] + week
}
