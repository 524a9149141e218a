// Package video - Frame sources and sinks.
package video

import (
	"image"
)

// Frame is one decoded frame of a video.
type Frame struct {
	// Index is the zero-based position of the frame in its source.
	Index int
	// Image holds the pixels.
	Image image.Image
}

// Info describes a video source. It is readable before streaming starts.
type Info struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frame_count"`
}

// Duration returns the length of the video in seconds, or 0 when the frame
// rate is unknown.
func (i Info) Duration() float64 {
	if i.FPS <= 0 {
		return 0
	}
	return float64(i.FrameCount) / i.FPS
}

// Timestamp returns the time of the frame at index in seconds, or 0 when the
// frame rate is unknown.
func (i Info) Timestamp(index int) float64 {
	if i.FPS <= 0 {
		return 0
	}
	return float64(index) / i.FPS
}

// Source reads frames sequentially.
type Source interface {
	// Info returns the properties of the source.
	Info() Info
	// Read returns the next frame. ok is false at the end of the source.
	Read() (frame Frame, ok bool, err error)
	// Close releases the source.
	Close() error
}

// Sink writes frames sequentially, preserving the source's dimensions and
// frame rate.
type Sink interface {
	// Write appends a frame.
	Write(frame Frame) error
	// Close flushes and releases the sink.
	Close() error
}
