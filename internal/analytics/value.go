package analytics

// 空值语义：SQL NULL 在引擎内用 *float64 的 nil 表示（absent）。
// absent 参与运算时向结果传播，绝不折算为 0，也绝不引发除零错误。

// Float 返回指向 v 的指针（present 值）
func Float(v float64) *float64 {
	return &v
}

// Sub 计算 a - b；任一侧 absent 则结果 absent
func Sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return Float(*a - *b)
}

// Add 计算 a + b；任一侧 absent 则结果 absent
func Add(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return Float(*a + *b)
}

// Ratio 计算 num / den；分母为零或任一侧 absent 时结果 absent（除零守卫）
func Ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	return Float(*num / *den)
}

// PercentChange 计算 (cur - prev) / prev * 100；prev 为零或 absent 时结果 absent
func PercentChange(cur, prev *float64) *float64 {
	diff := Sub(cur, prev)
	r := Ratio(diff, prev)
	if r == nil {
		return nil
	}
	return Float(*r * 100)
}

// Round2 四舍五入到 2 位小数；absent 原样传播
func Round2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(round2(*v))
}
