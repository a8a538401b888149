package binstore

import (
	"context"
	"errors"
	"fmt"
)

// mutateAttempts bounds conflict retries inside Mutate.
const mutateAttempts = 3

// Mutate applies a read-modify-write cycle to one collection. When the store
// hands out ETags the write is conditional and a lost race is re-read and
// re-applied; without ETags it degrades to the plain whole-document overwrite
// the store contract allows. Read failures are surfaced, never papered over
// with defaults: overwriting a collection with a fallback value would destroy
// it.
func Mutate[T any](ctx context.Context, c *Client, col Collection, apply func(T) (T, error)) error {
	var lastErr error
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		var doc T
		etag, err := c.FetchStrict(ctx, col, &doc)
		if err != nil {
			return err
		}

		doc, err = apply(doc)
		if err != nil {
			return err
		}

		err = c.replace(ctx, col, doc, etag)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("mutate %s: retries exhausted: %w", col, lastErr)
}
