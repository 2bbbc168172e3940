package parser

import (
	"fmt"
	"time"

	"github.com/studioops/funnelio/pkg/models"
)

type bucketKey struct {
	year  int
	month int
}

// bucketMap lazily creates one FunnelBucket per (year, month) as rows are
// processed. It lives only for the duration of one import call.
type bucketMap map[bucketKey]*models.FunnelBucket

func (b bucketMap) at(t time.Time) *models.FunnelBucket {
	key := bucketKey{year: t.Year(), month: int(t.Month())}
	bucket, ok := b[key]
	if !ok {
		bucket = &models.FunnelBucket{Year: key.year, Month: key.month}
		b[key] = bucket
	}
	return bucket
}

func (b bucketMap) slice() []models.FunnelBucket {
	out := make([]models.FunnelBucket, 0, len(b))
	for _, bucket := range b {
		out = append(out, *bucket)
	}
	return out
}

// safeRow runs one row's processing and converts a panic into a fatal
// row error instead of letting it escape the import call.
func safeRow(result *models.ImportResult, rowNum int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: unexpected error: %v", rowNum, r))
		}
	}()
	fn()
}
