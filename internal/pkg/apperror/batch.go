package apperror

import "fmt"

// BatchItemError wraps a failure raised while processing one item of a batch.
type BatchItemError struct {
	ItemID string
	Code   string
	Err    error
}

// NewBatchItemError derives the code from err when it is a domain error.
func NewBatchItemError(itemID string, err error) *BatchItemError {
	return &BatchItemError{ItemID: itemID, Code: CodeOf(err), Err: err}
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("item %s: %s: %v", e.ItemID, e.Code, e.Err)
}

func (e *BatchItemError) Unwrap() error {
	return e.Err
}
