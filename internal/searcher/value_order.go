package searcher

import "sort"

// degreeSort stable-sorts branch values by descending pair-0 target
// degree, or ascending when reverse is set.
func (s *Searcher) degreeSort(branchV []int, reverse bool) {
	sort.SliceStable(branchV, func(i, j int) bool {
		a := s.model.TargetDegree(0, branchV[i])
		b := s.model.TargetDegree(0, branchV[j])
		if reverse {
			return a < b
		}
		return a > b
	})
}

// softmaxShuffle repeatedly picks a softmax-biased vertex and moves
// it to the front, considering only positions further right on each
// following round. Floating point is too slow here, and the softmax
// base turns out not to matter, so weights are powers of two built
// with shifts.
func (s *Searcher) softmaxShuffle(branchV []int) {
	const sufficientSpaceForAddingUp = 63 - 18
	largestTargetDegree := s.model.LargestTargetDegree()
	expish := func(degree int) int64 {
		shift := degree - largestTargetDegree + sufficientSpaceForAddingUp
		if shift < 0 {
			shift = 0
		}
		return 1 << uint(shift)
	}

	var total int64
	for _, v := range branchV {
		total += expish(s.model.TargetDegree(0, v))
	}

	for start := 0; start < len(branchV); start++ {
		// a random score between 1 and total inclusive
		selectScore := 1 + s.rand.Int63n(total)

		selectElement := start
		for ; selectElement+1 < len(branchV); selectElement++ {
			selectScore -= expish(s.model.TargetDegree(0, branchV[selectElement]))
			if selectScore <= 0 {
				break
			}
		}

		total -= expish(s.model.TargetDegree(0, branchV[selectElement]))
		branchV[selectElement], branchV[start] = branchV[start], branchV[selectElement]
	}
}
