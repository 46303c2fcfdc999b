package tdledger

import (
	"fmt"

	"github.com/etnz/tdledger/date"
)

// UnhandledTransactionError reports a transaction with no handler for its
// (type, description) pair.
type UnhandledTransactionError struct {
	Key Key
	ID  string
}

func (e *UnhandledTransactionError) Error() string {
	return fmt.Sprintf("unhandled transaction %s: %s", e.ID, e.Key)
}

// DataIntegrityError reports broker data breaking an assumption the handlers
// rely on. It is always fatal.
type DataIntegrityError struct {
	ID     string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error in transaction %s: %s", e.ID, e.Reason)
}

// BookingError reports a posting whose cost could not be resolved against the
// held lots.
type BookingError struct {
	Date      date.Date
	Narration string
	Account   string
	Currency  string
	Reason    string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s %q: %s %s: %s", e.Date, e.Narration, e.Account, e.Currency, e.Reason)
}
