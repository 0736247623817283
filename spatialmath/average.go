package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// AverageTransforms returns the mean of a set of rigid transforms. Rotations are averaged element-wise and
// projected back onto the nearest proper rotation (the chordal mean); translations are averaged
// arithmetically. The chordal mean is close to the geodesic mean only when the rotations are tightly
// clustered and is biased for large spreads. An empty input yields the identity transform.
func AverageTransforms(transforms []*Transform) *Transform {
	if len(transforms) == 0 {
		return NewIdentityTransform()
	}
	sum := mat.NewDense(3, 3, nil)
	var tSum r3.Vector
	for _, t := range transforms {
		sum.Add(sum, t.rotation.Dense())
		tSum = tSum.Add(t.translation)
	}
	n := float64(len(transforms))
	sum.Scale(1/n, sum)
	return NewTransform(NearestRotation(sum), tSum.Mul(1/n))
}
