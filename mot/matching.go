package mot

import (
	"sort"

	"github.com/arthurkushman/go-hungarian"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracked objects
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmGreedy resolves objects ordered by their closest detection distance. Default one.
	MatchingAlgorithmGreedy MatchingAlgorithm = iota
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian
)

func (algorithm MatchingAlgorithm) String() string {
	switch algorithm {
	case MatchingAlgorithmGreedy:
		return "greedy"
	case MatchingAlgorithmHungarian:
		return "hungarian"
	default:
		return "unknown"
	}
}

// distanceMatrix computes pairwise Euclidean distances: rows are existing objects, columns are detections
func distanceMatrix(objects, detections []Point) *mat.Dense {
	dist := mat.NewDense(len(objects), len(detections), nil)
	for i := range objects {
		for j := range detections {
			dist.Set(i, j, euclideanDistance(objects[i], detections[j]))
		}
	}
	return dist
}

// greedyMatching matches rows to columns.
// Rows are resolved in order of ascending row-minimum distance (ties by row index).
// Each row proposes its closest column; proposal is rejected when the row or column
// is already used or the distance exceeds maxDistance.
// Returns a slice of {row, col} pairs in resolution order.
func greedyMatching(dist *mat.Dense, maxDistance float64) [][2]int {
	rows, cols := dist.Dims()
	matches := make([][2]int, 0)
	if rows == 0 || cols == 0 {
		return matches
	}
	priorityQueue := make(distanceHeap, 0, rows)
	for i := 0; i < rows; i++ {
		rowView := dist.RawRowView(i)
		col := floats.MinIdx(rowView)
		priorityQueue.Push(&rowCandidate{
			row:      i,
			col:      col,
			distance: rowView[col],
		})
	}
	usedRows := make(map[int]struct{}, rows)
	usedCols := make(map[int]struct{}, cols)
	for priorityQueue.Len() > 0 {
		candidate := priorityQueue.Pop()
		if _, ok := usedRows[candidate.row]; ok {
			continue
		}
		if _, ok := usedCols[candidate.col]; ok {
			continue
		}
		if candidate.distance > maxDistance {
			continue
		}
		usedRows[candidate.row] = struct{}{}
		usedCols[candidate.col] = struct{}{}
		matches = append(matches, [2]int{candidate.row, candidate.col})
	}
	return matches
}

// hungarianMatching finds assignment maximizing total closeness among pairs within maxDistance.
// Pairs beyond maxDistance get zero score and are dropped after solving.
// Returns a slice of {row, col} pairs sorted by row.
func hungarianMatching(dist *mat.Dense, maxDistance float64) [][2]int {
	rows, cols := dist.Dims()
	matches := make([][2]int, 0)
	if rows == 0 || cols == 0 {
		return matches
	}
	// Square matrix is required. Padding is done with 0.0 values (lowest score)
	paddedSize := maxInt(rows, cols)
	scores := make([][]float64, paddedSize)
	for i := 0; i < paddedSize; i++ {
		scores[i] = make([]float64, paddedSize)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := dist.At(i, j)
			if d <= maxDistance {
				scores[i][j] = maxDistance + 1.0 - d
			}
		}
	}
	assignmentsMap := hungarian.SolveMax(scores)
	for row, rowMap := range assignmentsMap {
		for col := range rowMap {
			if row >= rows || col >= cols {
				continue
			}
			if dist.At(row, col) > maxDistance {
				continue
			}
			matches = append(matches, [2]int{row, col})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i][0] < matches[j][0]
	})
	return matches
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
