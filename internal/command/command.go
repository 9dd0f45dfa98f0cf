// Package command contains the application Command Handlers: each one loads
// an Aggregate through its Repository, calls a business method and saves
// the Aggregate back.
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/get-eventually/booking/aggregate"
)

// ErrNotFound is returned when the Command targets an Aggregate that does not exist.
var ErrNotFound = errors.New("command: aggregate not found")

func update[I aggregate.ID, T aggregate.Root[I]](
	ctx context.Context,
	repository aggregate.Repository[I, T],
	name string,
	id I,
	fn func(T) error,
) error {
	root, found, err := repository.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("command.%s: failed to get aggregate from repository, %w", name, err)
	}

	if !found {
		return fmt.Errorf("command.%s: %w, '%s'", name, ErrNotFound, id)
	}

	if err := fn(root); err != nil {
		return fmt.Errorf("command.%s: %w", name, err)
	}

	if err := repository.Save(ctx, root); err != nil {
		return fmt.Errorf("command.%s: failed to save aggregate, %w", name, err)
	}

	return nil
}
