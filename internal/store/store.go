// Package store records capture sessions: the frames a device sent (rx) and
// the frames written to it (tx), in order. The implementation uses SQLite
// (pure Go, no CGO).
package store

import (
	"context"
	"time"
)

// Direction tells which way a frame travelled relative to the host.
type Direction string

const (
	DirectionRx Direction = "rx"
	DirectionTx Direction = "tx"
)

func (d Direction) Valid() bool { return d == DirectionRx || d == DirectionTx }

// Capture is one recording session against a device.
type Capture struct {
	ID         string    `json:"id"`
	Device     string    `json:"device"`
	Codec      string    `json:"codec"`
	StartedAt  time.Time `json:"started_at"`
	FrameCount int       `json:"frame_count"`
}

// FrameRecord is a single recorded frame.
type FrameRecord struct {
	Seq       int64     `json:"seq"`
	CaptureID string    `json:"capture_id"`
	Direction Direction `json:"direction"`
	Payload   []byte    `json:"payload"`
	At        time.Time `json:"at"`
}

// Store is the capture journal. All methods are safe for concurrent use.
// Lookups of missing records return nil without an error.
type Store interface {
	CaptureCreate(ctx context.Context, device, codec string) (*Capture, error)
	CaptureList(ctx context.Context) ([]Capture, error)
	CaptureGet(ctx context.Context, id string) (*Capture, error)
	CaptureDelete(ctx context.Context, id string) error

	FrameAppend(ctx context.Context, captureID string, dir Direction, payload []byte) error
	FrameList(ctx context.Context, captureID string) ([]FrameRecord, error)

	// Close releases resources (e.g. closes the database).
	Close() error
}
