package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{name: "draft to active", from: StatusDraft, to: StatusActive, want: true},
		{name: "draft to archived", from: StatusDraft, to: StatusArchived, want: true},
		{name: "draft to published skips activation", from: StatusDraft, to: StatusPublished, want: false},
		{name: "active to published", from: StatusActive, to: StatusPublished, want: true},
		{name: "active to inactive", from: StatusActive, to: StatusInactive, want: true},
		{name: "active to archived", from: StatusActive, to: StatusArchived, want: true},
		{name: "active to draft not allowed", from: StatusActive, to: StatusDraft, want: false},
		{name: "published back to active", from: StatusPublished, to: StatusActive, want: true},
		{name: "published to inactive not allowed", from: StatusPublished, to: StatusInactive, want: false},
		{name: "inactive to active", from: StatusInactive, to: StatusActive, want: true},
		{name: "archived is terminal", from: StatusArchived, to: StatusActive, want: false},
		{name: "archived to archived", from: StatusArchived, to: StatusArchived, want: false},
		{name: "unknown from", from: "bogus", to: StatusActive, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestThingValidate(t *testing.T) {
	tests := []struct {
		name      string
		thing     Thing
		wantField string
	}{
		{
			name:  "valid order",
			thing: Thing{Type: "order", Name: "Order X", Properties: map[string]any{"total": 100}},
		},
		{
			name:      "empty name",
			thing:     Thing{Type: "order"},
			wantField: "name",
		},
		{
			name:      "unrecognized type",
			thing:     Thing{Type: "starship", Name: "X"},
			wantField: "type",
		},
		{
			name:      "unknown schema property",
			thing:     Thing{Type: "order", Name: "X", Properties: map[string]any{"flavor": "vanilla"}},
			wantField: "flavor",
		},
		{
			name:      "wrong property kind",
			thing:     Thing{Type: "order", Name: "X", Properties: map[string]any{"total": "a lot"}},
			wantField: "total",
		},
		{
			name:  "escape hatch key allowed",
			thing: Thing{Type: "order", Name: "X", Properties: map[string]any{"x_custom": []int{1}}},
		},
		{
			name:  "type without schema accepts any bag",
			thing: Thing{Type: "project", Name: "X", Properties: map[string]any{"anything": "goes"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.thing.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var se *ServiceError
			assert.ErrorAs(t, err, &se)
			assert.Equal(t, CodeValidationFailed, se.Code)
			assert.Equal(t, tt.wantField, se.Field)
		})
	}
}
