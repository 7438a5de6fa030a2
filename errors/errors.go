package errors

import "fmt"

var (
	ErrNotFound            = fmt.Errorf("key not found")
	ErrCorruptRecord       = fmt.Errorf("corrupt record")
	ErrThreadNotFound      = fmt.Errorf("thread not found")
	ErrThreadAlreadyExists = fmt.Errorf("thread already exists")
	ErrInvalidThread       = fmt.Errorf("invalid thread")
	ErrInvalidInteraction  = fmt.Errorf("invalid interaction")
)
