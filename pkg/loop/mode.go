package loop

import (
	"fmt"
	"strings"
)

// ProcessingMode trades ordering guarantees for throughput. It is fixed at
// startup and read by the scheduler on every cycle.
type ProcessingMode string

const (
	// ModeSerial processes every batch and every message strictly one at a
	// time, preserving a single total order across the whole system.
	ModeSerial ProcessingMode = "serial"

	// ModeHalfConcurrent processes batches concurrently but keeps each
	// conversation's messages in arrival order. This is the recommended
	// balance.
	ModeHalfConcurrent ProcessingMode = "half_concurrent"

	// ModeConcurrent processes every message as an independent task bounded
	// by the concurrency limit. No ordering is guaranteed, not even within
	// one conversation; history entries may interleave.
	ModeConcurrent ProcessingMode = "concurrent"
)

// ParseMode converts a configuration string into a ProcessingMode.
func ParseMode(value string) (ProcessingMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ModeSerial):
		return ModeSerial, nil
	case string(ModeHalfConcurrent):
		return ModeHalfConcurrent, nil
	case string(ModeConcurrent):
		return ModeConcurrent, nil
	default:
		return "", fmt.Errorf("unsupported processing mode %q", value)
	}
}
