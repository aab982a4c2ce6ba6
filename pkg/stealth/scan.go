package stealth

import (
	"context"

	"github.com/meshcrypt/core-go/pkg/math/curve"
	"golang.org/x/sync/errgroup"
)

// ScanPaymentsParallel is ScanPayments spread over parallelism goroutines.
// Every check is independent, so the only coordination is collecting the
// results back into input order.
func ScanPaymentsParallel(ctx context.Context, viewPriv *curve.Scalar, spendPub *curve.Point, payments []*Address, parallelism int) ([]*Address, error) {
	if parallelism <= 1 || len(payments) < 2 {
		return ScanPayments(viewPriv, spendPub, payments), nil
	}

	matches := make([]bool, len(payments))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range payments {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			matches[i] = IsPaymentForRecipient(payments[i], viewPriv, spendPub, payments[i].Metadata)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var matched []*Address
	for i, ok := range matches {
		if ok {
			matched = append(matched, payments[i])
		}
	}
	return matched, nil
}
