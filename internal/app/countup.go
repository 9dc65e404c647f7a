package app

import (
	"math"
	"time"
)

// EaseOutCubic maps progress t in [0,1] to 1-(1-t)^3. Values outside the range are clamped.
func EaseOutCubic(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return 1 - math.Pow(1-t, 3)
}

// CountUpValue is the displayed value after elapsed of a count-up from start to end lasting duration.
func CountUpValue(start, end int, elapsed, duration time.Duration) int {
	progress := 1.0
	if duration > 0 {
		progress = math.Min(float64(elapsed)/float64(duration), 1)
	}
	return int(math.Round(float64(start) + float64(end-start)*EaseOutCubic(progress)))
}

// Frame is one step of a count-up animation.
type Frame struct {
	At    time.Duration
	Value int
}

// CountUpFrames samples a count-up every frame interval. The last frame always lands on
// duration with the end value.
func CountUpFrames(start, end int, duration, frame time.Duration) []Frame {
	if duration <= 0 || frame <= 0 {
		return []Frame{{At: 0, Value: end}}
	}
	frames := make([]Frame, 0, int(duration/frame)+2)
	for at := time.Duration(0); at < duration; at += frame {
		frames = append(frames, Frame{At: at, Value: CountUpValue(start, end, at, duration)})
	}
	return append(frames, Frame{At: duration, Value: end})
}
