package domain

import (
	"math"
	"testing"
)

func TestRandStream_Deterministic(t *testing.T) {
	// 同种子必须产出完全一致的序列
	r1 := newRandStream(42)
	r2 := newRandStream(42)
	for i := 0; i < 1000; i++ {
		if r1.nextNormal() != r2.nextNormal() {
			t.Fatalf("streams diverged at step %d", i)
		}
	}
}

func TestRandStream_UniformDistribution(t *testing.T) {
	r := newRandStream(42)
	n := 10000
	sum := 0.0
	for i := 0; i < n; i++ {
		u := r.nextUniform()
		if u < 0 || u >= 1 {
			t.Fatalf("uniform out of range: %v", u)
		}
		sum += u
	}
	mean := sum / float64(n)
	if !almostEqual(mean, 0.5, 0.02) {
		t.Fatalf("uniform mean drifted: %v", mean)
	}
}

func TestRandStream_NormalMoments(t *testing.T) {
	r := newRandStream(7)
	n := 50000
	sum, sqSum := 0.0, 0.0
	for i := 0; i < n; i++ {
		z := r.nextNormal()
		sum += z
		sqSum += z * z
	}
	mean := sum / float64(n)
	variance := sqSum/float64(n) - mean*mean
	if !almostEqual(mean, 0, 0.02) {
		t.Fatalf("normal mean drifted: %v", mean)
	}
	if !almostEqual(variance, 1, 0.05) {
		t.Fatalf("normal variance drifted: %v", variance)
	}
}

func TestRandStream_CorrelatedPair(t *testing.T) {
	rho := -0.7
	r := newRandStream(99)
	n := 50000
	var sumXY, sumX, sumY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		x, y := r.nextCorrelatedPair(rho)
		sumXY += x * y
		sumX += x
		sumY += y
		sumX2 += x * x
		sumY2 += y * y
	}
	fn := float64(n)
	cov := sumXY/fn - (sumX/fn)*(sumY/fn)
	sdX := math.Sqrt(sumX2/fn - (sumX/fn)*(sumX/fn))
	sdY := math.Sqrt(sumY2/fn - (sumY/fn)*(sumY/fn))
	got := cov / (sdX * sdY)
	if !almostEqual(got, rho, 0.03) {
		t.Fatalf("empirical correlation %v, want about %v", got, rho)
	}
}
