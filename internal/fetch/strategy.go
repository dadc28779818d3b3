// Package fetch retrieves raw filing bodies through an ordered chain of
// retrieval strategies, ending in a headless-browser fallback.
package fetch

import "context"

// Strategy retrieves the raw body of one filing by receipt number. A
// strategy returns an error when its response is unusable, which sends
// the chain on to the next strategy.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, receiptNo string) (string, error)
}
