package aggregator

import (
	"math"
	"sort"

	"github.com/nvr-ai/go-behavior/models"
	"github.com/nvr-ai/go-behavior/models/postprocess"
	"github.com/samber/lo"
)

// Statistics summarizes the behaviors seen over a video.
type Statistics struct {
	// BehaviorCounts is the number of detections of each class.
	BehaviorCounts map[string]int `json:"behavior_counts"`
	// BehaviorFrames is the ascending set of frame indices each class
	// appeared in.
	BehaviorFrames map[string][]int `json:"behavior_frames"`
	// TotalDetections is the sum of BehaviorCounts.
	TotalDetections int `json:"total_detections"`
	// BehaviorDurations estimates the seconds each class was visible as
	// len(BehaviorFrames[class]) * SamplingStride / FPS. Every sampled frame
	// stands for the stride of source frames it was picked from, so the value
	// is stride times larger than a count of sampled frames over FPS.
	BehaviorDurations map[string]float64 `json:"behavior_durations"`
	// BehaviorPercentages is each class's share of TotalDetections.
	BehaviorPercentages map[string]float64 `json:"behavior_percentages"`
}

// accumulator collects per-class counts and frame sets during a run.
type accumulator struct {
	counts map[string]int
	frames map[string]map[int]struct{}
}

// newAccumulator pre-registers every known class with zero entries.
func newAccumulator(known []models.Class) *accumulator {
	acc := &accumulator{
		counts: make(map[string]int, len(known)),
		frames: make(map[string]map[int]struct{}, len(known)),
	}
	for _, c := range known {
		acc.register(c.Name)
	}
	return acc
}

func (acc *accumulator) register(class string) {
	if _, ok := acc.counts[class]; ok {
		return
	}
	acc.counts[class] = 0
	acc.frames[class] = make(map[int]struct{})
}

// add records the detections of one frame. Classes that were not
// pre-registered are added on demand.
func (acc *accumulator) add(index int, detections []postprocess.Detection) {
	for class, n := range postprocess.CountByClass(detections) {
		acc.register(class)
		acc.counts[class] += n
		acc.frames[class][index] = struct{}{}
	}
}

// finalize builds the statistics. Durations assume every sampled frame stands
// for stride source frames.
func (acc *accumulator) finalize(stride int, fps float64) Statistics {
	stats := Statistics{
		BehaviorCounts:      make(map[string]int, len(acc.counts)),
		BehaviorFrames:      make(map[string][]int, len(acc.frames)),
		BehaviorDurations:   make(map[string]float64, len(acc.counts)),
		BehaviorPercentages: make(map[string]float64, len(acc.counts)),
	}

	for class, n := range acc.counts {
		stats.BehaviorCounts[class] = n
		stats.TotalDetections += n
	}

	for class, set := range acc.frames {
		frames := lo.Keys(set)
		sort.Ints(frames)
		stats.BehaviorFrames[class] = frames

		duration := 0.0
		if fps > 0 {
			duration = float64(len(frames)*stride) / fps
		}
		stats.BehaviorDurations[class] = round2(duration)
	}

	for class, n := range acc.counts {
		pct := 0.0
		if stats.TotalDetections > 0 {
			pct = float64(n) / float64(stats.TotalDetections) * 100
		}
		stats.BehaviorPercentages[class] = round2(pct)
	}

	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
