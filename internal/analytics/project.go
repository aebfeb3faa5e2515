package analytics

import (
	"fmt"
	"math"
	"time"
)

// 结果投影辅助：数值统一舍入到 2 位小数，日期统一按 UTC 日粒度处理。

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// monthsBetween 计算整月差（b - a），a、b 均应为月初
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()-a.Month())
}

// isoWeekStart 返回 t 所在 ISO 周的周一（UTC 日粒度），作为周分组键
func isoWeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	// time.Weekday: Sunday=0 … Saturday=6；ISO 周从周一开始
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// isoWeekLabel 返回 "2026-W09" 形式的 ISO 周标签
func isoWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// mean 计算均值；空输入返回 absent
func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return Float(sum / float64(len(values)))
}
