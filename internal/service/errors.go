package service

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrQueueUnavailable   = errors.New("queue unavailable")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrOrderInputInvalid  = errors.New("order input invalid")

	ErrCommissionRuleNotFound = errors.New("commission rule not found")
	ErrCommissionRuleExists   = errors.New("commission rule already exists")
	ErrCommissionRateInvalid  = errors.New("commission rate invalid")

	ErrPayoutNotFound      = errors.New("payout not found")
	ErrPayoutAlreadyPaid   = errors.New("payout already paid")
	ErrPayoutPeriodInvalid = errors.New("payout period invalid")

	ErrLinkNotFound         = errors.New("link not found")
	ErrLinkInactive         = errors.New("link inactive")
	ErrLinkExpired          = errors.New("link expired")
	ErrLinkDomainNotAllowed = errors.New("link domain not allowed")
	ErrTrackingURLInvalid   = errors.New("tracking url invalid")
	ErrShortCodeExhausted   = errors.New("short code generation exhausted")

	ErrSyncInProgress      = errors.New("sync already in progress")
	ErrAdmitadDisabled     = errors.New("admitad integration disabled")
	ErrReportFormatInvalid = errors.New("report format not supported")
	ErrReportHeaderInvalid = errors.New("report header invalid")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
