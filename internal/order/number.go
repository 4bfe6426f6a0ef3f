package order

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNumber builds the human-readable order label
// UZI-YYYYMMDD-NNNN. The suffix is random and not guaranteed unique; the
// order's uuid is the real key, the number is for packing slips and support.
func GenerateOrderNumber() string {
	now := time.Now().UTC()

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("UZI-%s-%04d", now.Format("20060102"), n.Int64())
}
