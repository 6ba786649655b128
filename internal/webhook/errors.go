package webhook

import "fmt"

// GenerationError marks a failure of the reply generation collaborator.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("reply generation failed: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// DeliveryError marks a failure of the outbound WhatsApp transport.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return fmt.Sprintf("message delivery failed: %v", e.Err) }
func (e *DeliveryError) Unwrap() error { return e.Err }

// StorageError marks a failure of the conversation store. Op names the
// pipeline step ("store_inbound" or "store_outbound").
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s failed: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }
