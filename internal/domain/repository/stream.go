package repository

import "HealthTwin/internal/domain/models"

// IsValidStream returns true if s is a supported stream.
func IsValidStream(s models.Stream) bool {
	switch s {
	case models.StreamECG, models.StreamEEG:
		return true
	default:
		return false
	}
}

// NormalizeStream converts a raw string to a stream, or "" if unknown.
func NormalizeStream(s string) models.Stream {
	st := models.Stream(s)
	if IsValidStream(st) {
		return st
	}
	return ""
}
