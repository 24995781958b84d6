package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	cause := errors.New("disk on fire")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "thing not found", err: NewThingNotFound("t1"), want: CodeThingNotFound},
		{name: "thing create failed", err: NewThingCreateFailed("boom", cause), want: CodeThingCreateFailed},
		{name: "connection not found", err: NewConnectionNotFound("c1"), want: CodeConnectionNotFound},
		{name: "event create failed", err: NewEventCreateFailed("boom", nil), want: CodeEventCreateFailed},
		{name: "knowledge not found", err: NewKnowledgeNotFound("k1"), want: CodeKnowledgeNotFound},
		{name: "group not found", err: NewGroupNotFound("g1"), want: CodeGroupNotFound},
		{name: "query failed", err: NewQueryFailed("boom", cause), want: CodeQueryFailed},
		{name: "auth invalid credentials", err: NewAuthError(CodeInvalidCredentials, "nope"), want: CodeInvalidCredentials},
		{name: "self loop", err: NewSelfLoop("t1"), want: CodeSelfLoop},
		{name: "invalid transition", err: NewInvalidStatusTransition(StatusArchived, StatusActive), want: CodeInvalidStatusTransition},
		{name: "wrapped taxonomy error", err: fmt.Errorf("listing: %w", NewThingNotFound("t2")), want: CodeThingNotFound},
		{name: "plain error has no code", err: errors.New("plain"), want: ""},
		{name: "nil-safe", err: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := NewThingUpdateFailed("t1", "saving", cause)
	assert.ErrorIs(t, err, cause)

	var te *ThingError
	assert.ErrorAs(t, fmt.Errorf("outer: %w", err), &te)
	assert.Equal(t, "t1", te.ThingID)
}

func TestErrorMessagesCarryIdentifier(t *testing.T) {
	assert.Contains(t, NewThingNotFound("wp-42").Error(), "wp-42")
	assert.Contains(t, NewGroupNotFound("acme").Error(), "acme")
	assert.Contains(t, NewInvalidStatusTransition("archived", "active").Error(), "archived")
}
