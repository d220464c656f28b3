package ledger

import "fmt"

// NotFoundError reports an operation addressed at an identity that no
// record currently holds, either because it was never issued or because
// the record was deleted.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %d not found", e.ID)
}
