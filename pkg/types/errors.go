// Error taxonomy for the ontology data layer. Every failure an adapter or
// service can surface is one of the typed errors below, carrying a stable
// code, the offending identifier where one applies, and an optional wrapped
// cause for diagnostics. Backend-native errors never cross the adapter
// boundary; adapters map them onto the nearest member here.
package types

import (
	"errors"
	"fmt"
)

// Stable error codes. One code per failure variant, grouped by entity family.
const (
	CodeThingNotFound     = "thing_not_found"
	CodeThingCreateFailed = "thing_create_failed"
	CodeThingUpdateFailed = "thing_update_failed"

	CodeConnectionNotFound     = "connection_not_found"
	CodeConnectionCreateFailed = "connection_create_failed"

	CodeEventCreateFailed = "event_create_failed"

	CodeKnowledgeNotFound = "knowledge_not_found"

	CodeGroupNotFound     = "group_not_found"
	CodeGroupCreateFailed = "group_create_failed"

	CodeQueryFailed = "query_failed"

	CodeInvalidCredentials = "invalid_credentials"
	CodeUserNotFound       = "user_not_found"
	CodeEmailAlreadyExists = "email_already_exists"
	CodeWeakPassword       = "weak_password"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeNetworkError       = "network_error"
	CodeRateLimitExceeded  = "rate_limit_exceeded"
	CodeEmailNotVerified   = "email_not_verified"
	CodeTwoFactorRequired  = "two_factor_required"
	CodeInvalid2FACode     = "invalid_2fa_code"

	// Service-level invariant violations. Only services construct these;
	// adapters never do.
	CodeSelfLoop                = "self_loop"
	CodeInvalidStatusTransition = "invalid_status_transition"
	CodeValidationFailed        = "validation_failed"
	CodeResourceLimitExceeded   = "resource_limit_exceeded"
)

// TaxonomyError is implemented by every error family in the taxonomy.
// CodeOf extracts the stable code without callers naming the concrete type.
type TaxonomyError interface {
	error
	TaxonomyCode() string
}

// CodeOf returns the taxonomy code of err, or "" if err is not a taxonomy
// error. Wrapped taxonomy errors are found via errors.As.
func CodeOf(err error) string {
	var te TaxonomyError
	if errors.As(err, &te) {
		return te.TaxonomyCode()
	}
	return ""
}

// ThingError is a failure from the Thing operation family.
type ThingError struct {
	Code    string
	ThingID string
	Message string
	Cause   error
}

func (e *ThingError) Error() string {
	if e.ThingID != "" {
		return fmt.Sprintf("%s: %s (thing %s)", e.Code, e.Message, e.ThingID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ThingError) Unwrap() error        { return e.Cause }
func (e *ThingError) TaxonomyCode() string { return e.Code }

// NewThingNotFound reports that no thing exists with the given ID.
func NewThingNotFound(id string) *ThingError {
	return &ThingError{Code: CodeThingNotFound, ThingID: id, Message: "thing not found"}
}

// NewThingCreateFailed reports a failed thing creation.
func NewThingCreateFailed(msg string, cause error) *ThingError {
	return &ThingError{Code: CodeThingCreateFailed, Message: msg, Cause: cause}
}

// NewThingUpdateFailed reports a failed thing update.
func NewThingUpdateFailed(id, msg string, cause error) *ThingError {
	return &ThingError{Code: CodeThingUpdateFailed, ThingID: id, Message: msg, Cause: cause}
}

// ConnectionError is a failure from the Connection operation family.
type ConnectionError struct {
	Code         string
	ConnectionID string
	Message      string
	Cause        error
}

func (e *ConnectionError) Error() string {
	if e.ConnectionID != "" {
		return fmt.Sprintf("%s: %s (connection %s)", e.Code, e.Message, e.ConnectionID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ConnectionError) Unwrap() error        { return e.Cause }
func (e *ConnectionError) TaxonomyCode() string { return e.Code }

// NewConnectionNotFound reports that no connection exists with the given ID.
func NewConnectionNotFound(id string) *ConnectionError {
	return &ConnectionError{Code: CodeConnectionNotFound, ConnectionID: id, Message: "connection not found"}
}

// NewConnectionCreateFailed reports a failed connection creation.
func NewConnectionCreateFailed(msg string, cause error) *ConnectionError {
	return &ConnectionError{Code: CodeConnectionCreateFailed, Message: msg, Cause: cause}
}

// EventError is a failure from the Event operation family.
type EventError struct {
	Code    string
	Message string
	Cause   error
}

func (e *EventError) Error() string        { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func (e *EventError) Unwrap() error        { return e.Cause }
func (e *EventError) TaxonomyCode() string { return e.Code }

// NewEventCreateFailed reports a failed event append.
func NewEventCreateFailed(msg string, cause error) *EventError {
	return &EventError{Code: CodeEventCreateFailed, Message: msg, Cause: cause}
}

// KnowledgeError is a failure from the Knowledge operation family.
type KnowledgeError struct {
	Code        string
	KnowledgeID string
	Message     string
	Cause       error
}

func (e *KnowledgeError) Error() string {
	if e.KnowledgeID != "" {
		return fmt.Sprintf("%s: %s (knowledge %s)", e.Code, e.Message, e.KnowledgeID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *KnowledgeError) Unwrap() error        { return e.Cause }
func (e *KnowledgeError) TaxonomyCode() string { return e.Code }

// NewKnowledgeNotFound reports that no knowledge item exists with the given ID.
func NewKnowledgeNotFound(id string) *KnowledgeError {
	return &KnowledgeError{Code: CodeKnowledgeNotFound, KnowledgeID: id, Message: "knowledge not found"}
}

// GroupError is a failure from the Group operation family.
type GroupError struct {
	Code    string
	GroupID string
	Message string
	Cause   error
}

func (e *GroupError) Error() string {
	if e.GroupID != "" {
		return fmt.Sprintf("%s: %s (group %s)", e.Code, e.Message, e.GroupID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GroupError) Unwrap() error        { return e.Cause }
func (e *GroupError) TaxonomyCode() string { return e.Code }

// NewGroupNotFound reports that no group exists with the given ID or slug.
func NewGroupNotFound(id string) *GroupError {
	return &GroupError{Code: CodeGroupNotFound, GroupID: id, Message: "group not found"}
}

// NewGroupCreateFailed reports a failed group creation.
func NewGroupCreateFailed(msg string, cause error) *GroupError {
	return &GroupError{Code: CodeGroupCreateFailed, Message: msg, Cause: cause}
}

// QueryError is the generic read failure used when no family-specific
// variant applies.
type QueryError struct {
	Message string
	Cause   error
}

func (e *QueryError) Error() string        { return fmt.Sprintf("%s: %s", CodeQueryFailed, e.Message) }
func (e *QueryError) Unwrap() error        { return e.Cause }
func (e *QueryError) TaxonomyCode() string { return CodeQueryFailed }

// NewQueryFailed reports a generic read failure.
func NewQueryFailed(msg string, cause error) *QueryError {
	return &QueryError{Message: msg, Cause: cause}
}

// AuthError is a failure from the Auth operation family.
type AuthError struct {
	Code    string
	UserID  string
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("%s: %s (user %s)", e.Code, e.Message, e.UserID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error        { return e.Cause }
func (e *AuthError) TaxonomyCode() string { return e.Code }

// NewAuthError constructs an auth failure with the given code.
func NewAuthError(code, msg string) *AuthError {
	return &AuthError{Code: code, Message: msg}
}

// ServiceError is an invariant violation detected by a business service
// before (or instead of) calling the provider contract. Field names the
// input field at fault, where one applies.
type ServiceError struct {
	Code    string
	Field   string
	Message string
}

func (e *ServiceError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) TaxonomyCode() string { return e.Code }

// NewSelfLoop reports a connection whose endpoints are the same entity.
func NewSelfLoop(id string) *ServiceError {
	return &ServiceError{Code: CodeSelfLoop, Message: fmt.Sprintf("connection endpoints are both %q", id)}
}

// NewInvalidStatusTransition reports a status change not present in the
// transition table.
func NewInvalidStatusTransition(from, to string) *ServiceError {
	return &ServiceError{
		Code:    CodeInvalidStatusTransition,
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %q to %q", from, to),
	}
}

// NewValidationFailed reports a missing or malformed input field.
func NewValidationFailed(field, msg string) *ServiceError {
	return &ServiceError{Code: CodeValidationFailed, Field: field, Message: msg}
}

// NewResourceLimitExceeded reports that a metered resource is at or over its
// plan-derived ceiling.
func NewResourceLimitExceeded(resource string, usage, limit int) *ServiceError {
	return &ServiceError{
		Code:    CodeResourceLimitExceeded,
		Field:   resource,
		Message: fmt.Sprintf("usage %d of %q is at the plan limit %d", usage, resource, limit),
	}
}
