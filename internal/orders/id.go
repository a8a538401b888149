package orders

import (
	"errors"
	"fmt"
	"math/rand"
)

// idAttempts bounds collision retries in NewOrderID.
const idAttempts = 8

// ErrIDSpaceExhausted means NewOrderID could not find a free 6-digit ID.
var ErrIDSpaceExhausted = errors.New("could not generate unused order id")

// NewOrderID returns a random 6-digit order ID not currently in use. taken
// reports whether an ID already exists; generation retries on collision
// rather than assuming the ID space is sparse.
func NewOrderID(rng *rand.Rand, taken func(string) bool) (string, error) {
	for i := 0; i < idAttempts; i++ {
		id := fmt.Sprintf("%06d", rng.Intn(1000000))
		if taken == nil || !taken(id) {
			return id, nil
		}
	}
	return "", ErrIDSpaceExhausted
}
