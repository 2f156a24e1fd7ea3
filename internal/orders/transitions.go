package orders

import (
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
)

// CheckTransition reports whether an order may move from one status to
// another. Any move is allowed except leaving a terminal status; re-applying
// the same status is always allowed so notifications can be re-sent.
func CheckTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", to)
	}
	if from == to {
		return nil
	}
	if from.IsTerminal() {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s and can no longer change status", from.Label())
	}
	return nil
}
