package core

import "fmt"

// Error codes for domain errors.
const (
	ErrCodeRoomNotFound   = "room_not_found"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeEmptyMessage   = "empty_message"
	ErrCodeMessageTooLong = "message_too_long"
	ErrCodeNotActive      = "not_active"
	ErrCodeSlowConsumer   = "slow_consumer"

	ErrCodeFetchFailed        = "fetch_failed"
	ErrCodeDeliveryFailed     = "delivery_failed"
	ErrCodeSubscriptionFailed = "subscription_failed"
)

var (
	ErrRoomNotFound   = coreError(ErrCodeRoomNotFound, "room not found")
	ErrBadRequest     = coreError(ErrCodeBadRequest, "bad request")
	ErrUnauthorized   = coreError(ErrCodeUnauthorized, "unauthorized")
	ErrEmptyMessage   = coreError(ErrCodeEmptyMessage, "message is empty")
	ErrMessageTooLong = coreError(ErrCodeMessageTooLong, fmt.Sprintf("message exceeds %d characters", MaxMessageLength))
	ErrNotActive      = coreError(ErrCodeNotActive, "room session is not active")
	ErrSlowConsumer   = coreError(ErrCodeSlowConsumer, "subscriber fell behind the live feed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// FetchError reports a failed read of rooms or room history.
type FetchError struct {
	Room string // empty for directory reads
	Err  error
}

func (e *FetchError) Error() string {
	if e.Room == "" {
		return fmt.Sprintf("fetch rooms: %v", e.Err)
	}
	return fmt.Sprintf("fetch messages for room %s: %v", e.Room, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Code returns the error code used on the wire and in notices.
func (e *FetchError) Code() string { return ErrCodeFetchFailed }

// DeliveryError reports a rejected message write.
type DeliveryError struct {
	Room string
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver message to room %s: %v", e.Room, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Code returns the error code used on the wire and in notices.
func (e *DeliveryError) Code() string { return ErrCodeDeliveryFailed }

// SubscriptionError reports a live feed that could not be established or dropped.
type SubscriptionError struct {
	Room string
	Err  error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("live feed for room %s: %v", e.Room, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// Code returns the error code used on the wire and in notices.
func (e *SubscriptionError) Code() string { return ErrCodeSubscriptionFailed }
