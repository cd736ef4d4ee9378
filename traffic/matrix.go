package traffic

// UniformMatrix returns a traffic matrix with equal weight on every ordered
// pair and zero on the diagonal
func UniformMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i != j {
				m[i][j] = 1
			}
		}
	}
	return m
}

// Normalise scales the matrix in place so its entries sum to 1.
// A zero matrix is returned unchanged.
func Normalise(m [][]float64) [][]float64 {
	total := 0.0
	for i := range m {
		for j := range m[i] {
			total += m[i][j]
		}
	}
	if total == 0 {
		return m
	}
	for i := range m {
		for j := range m[i] {
			m[i][j] /= total
		}
	}
	return m
}
