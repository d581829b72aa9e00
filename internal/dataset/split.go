package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit shuffles the rows with a seeded source and splits off the
// test share, rounding the test size up.
func TrainTestSplit(f *Frame, testRatio float64, seed int64) (train, test *Frame, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio must be in (0, 1), got %v", testRatio)
	}

	n := f.Len()
	nTest := int(math.Ceil(float64(n) * testRatio))
	if n > 0 && nTest >= n {
		return nil, nil, fmt.Errorf("cannot split %d rows with test ratio %v", n, testRatio)
	}

	indices := rand.New(rand.NewSource(seed)).Perm(n)
	return f.Take(indices[nTest:]), f.Take(indices[:nTest]), nil
}
