package route

const improvementEps = 1e-9

// twoOpt runs deterministic first-improvement 2-opt on a closed tour.
// Reversing tour[i..j] replaces edges (i-1,i) and (j,j+1) with (i-1,j)
// and (i,j+1); any move that shortens the cycle by more than eps is taken
// immediately and the scan restarts. The start vertex stays fixed, so the
// result is reproducible.
func twoOpt(m [][]float64, tour []int) []int {
	n := len(tour)
	if n < 4 {
		return tour
	}

	cur := make([]int, n)
	copy(cur, tour)

	improved := true
	for improved {
		improved = false
		for i := 1; i < n-1 && !improved; i++ {
			for j := i + 1; j < n; j++ {
				a, b := cur[i-1], cur[i]
				c, d := cur[j], cur[(j+1)%n]
				delta := m[a][c] + m[b][d] - m[a][b] - m[c][d]
				if delta < -improvementEps {
					reverse(cur, i, j)
					improved = true
					break
				}
			}
		}
	}
	return cur
}

func reverse(tour []int, i, j int) {
	for i < j {
		tour[i], tour[j] = tour[j], tour[i]
		i++
		j--
	}
}
