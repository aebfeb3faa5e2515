package analytics

import "sort"

// 窗口计算原语。所有函数都假定输入序列已经是单个分区、且已按目标排序键
// 排好序（与 SQL 窗口函数的 PARTITION BY / ORDER BY 等价）。分区必须在
// 调用前完整物化，原始行序作为并列时的稳定 tie-break。

// Lag 返回每行向前第 offset 行的值；不存在前行时为 absent（nil）
func Lag(values []*float64, offset int) []*float64 {
	if offset < 1 {
		offset = 1
	}
	out := make([]*float64, len(values))
	for i := range values {
		if i-offset >= 0 {
			out[i] = values[i-offset]
		}
	}
	return out
}

// RowNumber 返回 1 起始的行号（稳定：并列按原始行序）
func RowNumber(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Rank 对已按排序键排好序的键序列计算 SQL RANK：
// 并列键共享名次，下一个不同键的名次 = 之前名次 + 并列组大小
func Rank(keys []float64) []int {
	out := make([]int, len(keys))
	for i := range keys {
		if i > 0 && keys[i] == keys[i-1] {
			out[i] = out[i-1]
		} else {
			out[i] = i + 1
		}
	}
	return out
}

// MovingAverage 计算滑动平均，窗口为 [max(0, i-preceding), i]（含当前行）。
// 分区开头不足 preceding+1 行时只用已有行（不补零）。窗口内 absent 值被
// 忽略（与 SQL AVG 忽略 NULL 一致）；窗口内全为 absent 时结果 absent。
func MovingAverage(values []*float64, preceding int) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		start := i - preceding
		if start < 0 {
			start = 0
		}
		sum := 0.0
		count := 0
		for j := start; j <= i; j++ {
			if values[j] != nil {
				sum += *values[j]
				count++
			}
		}
		if count > 0 {
			out[i] = Float(sum / float64(count))
		}
	}
	return out
}

// PercentileCont 计算连续百分位（PERCENTILE_CONT）：在排序后的顺序统计量
// 之间做线性插值，插值点为 p*(n-1)。p 取值 [0,1]。空输入返回 absent。
func PercentileCont(values []float64, p float64) *float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return Float(values[0])
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return Float(sorted[0])
	}
	if p >= 1 {
		return Float(sorted[n-1])
	}

	pos := p * float64(n-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= n {
		return Float(sorted[n-1])
	}
	return Float(sorted[lo] + frac*(sorted[lo+1]-sorted[lo]))
}
