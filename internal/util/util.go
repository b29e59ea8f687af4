package util

import (
	"math"
	"time"
)

const (
	ISOLayout     = "2006-01-02T15:04:05.000000"
	DisplayLayout = "2006-01-02 15:04:05"
	gib           = 1 << 30
)

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GB converts bytes to gibibytes rounded to two decimals.
func GB(b uint64) float64 {
	return Round2(float64(b) / gib)
}

func ISOTime(t time.Time) string {
	return t.Format(ISOLayout)
}

// Epoch returns t as fractional Unix seconds.
func Epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
