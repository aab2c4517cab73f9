package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	referencePrefix   = "EA"
	referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referenceSuffix   = 4
)

// NewBookingReference returns EA, the UTC date as YYMMDD and four random
// uppercase alphanumerics, e.g. EA250314K7QZ.
func NewBookingReference(at time.Time) (string, error) {
	suffix := make([]byte, referenceSuffix)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("booking reference: %w", err)
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return referencePrefix + at.UTC().Format("060102") + string(suffix), nil
}
