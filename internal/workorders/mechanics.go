package workorders

// splitEvenly divides total percentage points across n slots: the first
// total%n slots get one extra point so the parts always sum to exactly total.
func splitEvenly(total, n int) []int {
	if n <= 0 {
		return nil
	}
	base := total / n
	remainder := total - base*n

	parts := make([]int, n)
	for i := range parts {
		parts[i] = base
		if i < remainder {
			parts[i]++
		}
	}
	return parts
}

// clampPercent bounds a requested contribution percent to [1,100].
func clampPercent(percent int) int {
	if percent < 1 {
		return 1
	}
	if percent > 100 {
		return 100
	}
	return percent
}
