package command

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type messageCarrier struct{ text string }

func (m messageCarrier) Message() string { return m.text }

type namedValue struct{}

func (namedValue) String() string { return "named value" }

func TestNormalize(t *testing.T) {
	base := errors.New("errorMessage")
	plain := struct{ Hello string }{"randomObj"}

	tests := []struct {
		name            string
		value           any
		expectedMessage string
		expectedKind    ErrorKind
	}{
		{"error keeps message", base, "errorMessage", KindCollaborator},
		{"wrapped error keeps full message", fmt.Errorf("outer: %w", base), "outer: errorMessage", KindCollaborator},
		{"message carrier", messageCarrier{text: "carried"}, "carried", KindCollaborator},
		{"map", map[string]string{"hello": "randomObj"}, "Unknown error: [object Object]", KindUnknown},
		{"struct", plain, "Unknown error: [object Object]", KindUnknown},
		{"pointer to struct", &plain, "Unknown error: [object Object]", KindUnknown},
		{"string", "boom", "Unknown error: boom", KindUnknown},
		{"number", 42, "Unknown error: 42", KindUnknown},
		{"stringer", namedValue{}, "Unknown error: named value", KindUnknown},
		{"nil pointer", (*struct{})(nil), "Unknown error: null", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Normalize(tt.value)

			var cmdErr *Error
			if assert.ErrorAs(t, err, &cmdErr) {
				assert.Equal(t, tt.expectedMessage, cmdErr.Error())
				assert.Equal(t, tt.expectedKind, cmdErr.Kind)
			}
		})
	}
}

func TestNormalize_Nil(t *testing.T) {
	assert.NoError(t, Normalize(nil))
}

func TestNormalize_KeepsCommandErrors(t *testing.T) {
	usage := NewUsageError("Flag --integrationId expects a value")

	assert.Same(t, usage, Normalize(usage))
	assert.Equal(t, KindUsage, usage.Kind)
}

func TestNormalize_Unwraps(t *testing.T) {
	base := errors.New("errorMessage")

	assert.ErrorIs(t, Normalize(base), base)
}
