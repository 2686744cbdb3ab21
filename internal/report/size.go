package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/klauspost/compress/gzip"
)

// gzipRatio is the rough share of the minified size left after gzip
const gzipRatio = 0.3

// KB converts a byte count to kilobytes rounded to two decimals.
func KB(n int) float64 {
	return math.Round(float64(n)/1024*100) / 100
}

// FormatKB renders a byte count as "12.34 KB".
func FormatKB(n int) string {
	return fmt.Sprintf("%.2f KB", float64(n)/1024)
}

// EstimateGzipKB returns the heuristic compressed size of a minified
// artifact: its size in KB, rounded to two decimals, times 0.3.
func EstimateGzipKB(minified int) float64 {
	return math.Round(KB(minified)*gzipRatio*100) / 100
}

// MeasureGzip compresses data at the best compression level and returns the
// compressed size in bytes.
func MeasureGzip(data []byte) (int, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(data); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}
