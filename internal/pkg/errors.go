package pkg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrContentRejected     = errors.New("content rejected")
	ErrValidationTransport = errors.New("validation transport failure")
	ErrStoreFailure        = errors.New("store failure")
	ErrPartialFailure      = errors.New("partial failure")
	ErrInvalidArgument     = errors.New("invalid argument")
)

const (
	ModalityText  = "text"
	ModalityImage = "image"
)

// RejectedError 审核未通过，带上触发的模态
type RejectedError struct {
	Modality string
	Reason   string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s rejected by moderation", e.Modality)
	}
	return fmt.Sprintf("%s rejected by moderation: %s", e.Modality, e.Reason)
}

func (e *RejectedError) Unwrap() error { return ErrContentRejected }

// TransportError 审核服务不可达或返回非2xx
type TransportError struct {
	Modality   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s classifier returned status %d", e.Modality, e.StatusCode)
	}
	return fmt.Sprintf("%s classifier unreachable: %v", e.Modality, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidationTransport}
	}
	return []error{ErrValidationTransport, e.Err}
}

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreFailure, e.Err}
}

// PartialFailureError 跨存储操作一边成功一边失败
type PartialFailureError struct {
	Op        string
	Succeeded []string
	Failed    []string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s partially failed (ok: %s, failed: %s): %v",
		e.Op, strings.Join(e.Succeeded, ","), strings.Join(e.Failed, ","), e.Err)
}

func (e *PartialFailureError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPartialFailure}
	}
	return []error{ErrPartialFailure, e.Err}
}

// Store wraps err as a StoreError unless it already carries a domain kind.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreFailure) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
