package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeActivityDetails_RoundTrip(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()

	cases := []ActivityDetails{
		&TaskCreatedDetails{TaskID: taskID, Title: "Run gel"},
		&TaskStatusChangedDetails{TaskID: taskID, OldStatus: TaskStatusTodo, NewStatus: TaskStatusDone},
		&CollaboratorInvitedDetails{UserID: userID, Role: RoleEditor},
		&CollaboratorRespondedDetails{UserID: userID, Status: StatusActive},
		&CollaboratorRemovedDetails{UserID: userID, Left: true},
		&RoleChangedDetails{UserID: userID, OldRole: RoleEditor, NewRole: RoleOwner},
	}

	for _, details := range cases {
		t.Run(details.ActivityKind(), func(t *testing.T) {
			raw, err := json.Marshal(details)
			require.NoError(t, err)

			decoded, err := DecodeActivityDetails(details.ActivityKind(), raw)
			require.NoError(t, err)
			assert.Equal(t, details, decoded)
		})
	}
}

func TestDecodeActivityDetails_UnknownKind(t *testing.T) {
	_, err := DecodeActivityDetails("made_up", []byte(`{}`))
	assert.Error(t, err)
}
