package services

import (
	"crypto/rand"
	"math/big"
)

// OutcomeSource yields a uniform integer in [0, max). The draw never sees
// player input, so outcomes cannot be conditioned on the chosen side.
type OutcomeSource interface {
	Draw(max int64) (int64, error)
}

type CryptoOutcomeSource struct{}

func (CryptoOutcomeSource) Draw(max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}
