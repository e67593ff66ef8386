package disposable

import (
	"errors"
	"fmt"

	"github.com/aretw0/rill/pkg/domain"
)

// DisposeAll disposes every value in order. A panic raised while disposing one value
// is recovered, converted into an error, and the loop continues. The collected
// failures are returned joined.
func DisposeAll(ds ...Disposable) error {
	var errs []error
	for i, d := range ds {
		if isNil(d) {
			continue
		}
		if err := disposeSafely(d); err != nil {
			errs = append(errs, fmt.Errorf("dispose #%d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func disposeSafely(d Disposable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.PanicError(r)
		}
	}()
	d.Dispose()
	return nil
}
