package common

import (
	"math/rand"
	"testing"
)

// BenchmarkIoU_NonOverlapping tests boxes that don't overlap, which return as
// soon as the intersection is empty.
func BenchmarkIoU_NonOverlapping(b *testing.B) {
	a := NewBox(0, 0, 100, 100)
	c := NewBox(200, 200, 300, 300)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = a.IoU(c)
	}
}

// BenchmarkIoU_PartialOverlap tests the typical duplicate detection case.
func BenchmarkIoU_PartialOverlap(b *testing.B) {
	a := NewBox(0, 0, 100, 100)
	c := NewBox(50, 50, 150, 150)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = a.IoU(c)
	}
}

// BenchmarkIoU_RandomPairs tests random pairs on a 1080p frame.
func BenchmarkIoU_RandomPairs(b *testing.B) {
	rng := rand.New(rand.NewSource(1))

	pairs := make([][2]Box, 1000)
	for i := range pairs {
		for j := 0; j < 2; j++ {
			x, y := float32(rng.Intn(1920)), float32(rng.Intn(1080))
			w, h := float32(rng.Intn(300)+20), float32(rng.Intn(300)+20)
			pairs[i][j] = NewBox(x, y, x+w, y+h)
		}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		pair := pairs[i%len(pairs)]
		_ = pair[0].IoU(pair[1])
	}
}
