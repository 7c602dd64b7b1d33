package board

// CardDropIndex turns a vertical drop position into a target index: the first
// sibling whose midpoint lies below the pointer, otherwise the end.
func CardDropIndex(midpoints []float64, pointerY float64) int {
	for i, mid := range midpoints {
		if pointerY < mid {
			return i
		}
	}
	return len(midpoints)
}

// ColumnDropIndex does the same horizontally for columns. midpoints include
// the dragged column itself, so when it moves right the result is shifted
// left by one to account for its removal.
func ColumnDropIndex(midpoints []float64, pointerX float64, fromIndex int) int {
	to := CardDropIndex(midpoints, pointerX)
	if to > fromIndex {
		to--
	}
	return to
}
