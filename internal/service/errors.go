package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateOffer      = errors.New("farm has already offered on this pre-order")
	ErrOfferAlreadyHandled = errors.New("offer already handled")
	ErrPreOrderLocked      = errors.New("pre-order can no longer be changed")
	ErrInsufficientSupply  = errors.New("insufficient supply")
	ErrNotificationFailed  = errors.New("notification delivery failed")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// notFoundOr maps a missing row to ErrNotFound and passes anything else through.
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
