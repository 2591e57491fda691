package neurovibe

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
)

func TestRosterExcludesLocalParticipant(t *testing.T) {
	local := models.NewAnonymousParticipant("me")
	remote := models.NewAnonymousParticipant("ann")

	registry := NewRegistry(local.ID)
	registry.ApplyReceiverList([]models.Participant{local, remote})

	roster := registry.Roster()

	require.Len(t, roster, 1)
	assert.Equal(t, remote.ID, roster[0].Participant.ID)
}

func TestRosterSortedByName(t *testing.T) {
	registry := NewRegistry(uuid.New())
	registry.ApplyReceiverList([]models.Participant{
		models.NewAnonymousParticipant("zoe"),
		models.NewAnonymousParticipant("ann"),
		models.NewAnonymousParticipant("ben"),
	})

	roster := registry.Roster()

	require.Len(t, roster, 3)
	assert.Equal(t, "ann", roster[0].Participant.Name)
	assert.Equal(t, "ben", roster[1].Participant.Name)
	assert.Equal(t, "zoe", roster[2].Participant.Name)
}

func TestDocumentMetadataWinsOverIdentify(t *testing.T) {
	id := uuid.New()
	registry := NewRegistry(uuid.New())

	registry.ApplyDocument(&models.Room{
		Active:    true,
		Receivers: []models.Participant{{ID: id, Name: "Ann Smith", Photo: "p.jpg"}},
	})
	registry.ApplyIdentify(models.Participant{ID: id, Name: "ann"}, models.RoleReceiver)

	roster := registry.Roster()

	require.Len(t, roster, 1)
	assert.Equal(t, "Ann Smith", roster[0].Participant.Name)
	assert.Equal(t, "p.jpg", roster[0].Participant.Photo)
	assert.True(t, roster[0].Live, "identify still drives liveness")
}

func TestIdentifyFillsMissingMetadata(t *testing.T) {
	id := uuid.New()
	registry := NewRegistry(uuid.New())

	registry.ApplyIdentify(models.Participant{ID: id, Name: "ann"}, models.RoleReceiver)
	registry.ApplyIdentify(models.Participant{ID: id, Name: "ann renamed"}, models.RoleReceiver)

	roster := registry.Roster()

	require.Len(t, roster, 1)
	assert.Equal(t, "ann renamed", roster[0].Participant.Name)
}

func TestReceiverListDrivesLiveness(t *testing.T) {
	ann := models.NewAnonymousParticipant("ann")
	ben := models.NewAnonymousParticipant("ben")

	registry := NewRegistry(uuid.New())
	registry.ApplyReceiverList([]models.Participant{ann, ben})
	registry.ApplyReceiverList([]models.Participant{ann})

	roster := registry.Roster()

	require.Len(t, roster, 2)
	for _, entry := range roster {
		switch entry.Participant.ID {
		case ann.ID:
			assert.True(t, entry.Live)
		case ben.ID:
			assert.False(t, entry.Live, "dropped from roster broadcast")
		}
	}
}

func TestDocumentRemovalForgetsParticipant(t *testing.T) {
	ann := models.NewAnonymousParticipant("ann")
	ben := models.NewAnonymousParticipant("ben")

	registry := NewRegistry(uuid.New())
	registry.ApplyDocument(&models.Room{
		Active:    true,
		Receivers: []models.Participant{ann, ben},
	})
	registry.ApplyDocument(&models.Room{
		Active:    true,
		Receivers: []models.Participant{ann},
	})

	roster := registry.Roster()

	require.Len(t, roster, 1)
	assert.Equal(t, ann.ID, roster[0].Participant.ID)
}

func TestSenderLost(t *testing.T) {
	sender := models.NewAnonymousParticipant("alice")

	registry := NewRegistry(uuid.New())
	registry.ApplyDocument(&models.Room{Active: true, Sender: &sender})
	registry.ApplyIdentify(sender, models.RoleSender)

	registry.ApplySenderLost()

	roster := registry.Roster()

	require.Len(t, roster, 1)
	assert.Equal(t, models.RoleSender, roster[0].Role)
	assert.False(t, roster[0].Live)
}

func TestTransportDownClearsLiveness(t *testing.T) {
	ann := models.NewAnonymousParticipant("ann")

	registry := NewRegistry(uuid.New())
	registry.ApplyReceiverList([]models.Participant{ann})

	registry.ApplyTransportDown()

	roster := registry.Roster()

	require.Len(t, roster, 1)
	assert.False(t, roster[0].Live)
}

func TestDocumentPreservesSeenLiveness(t *testing.T) {
	ann := models.NewAnonymousParticipant("ann")

	registry := NewRegistry(uuid.New())
	registry.ApplyIdentify(ann, models.RoleReceiver)
	registry.ApplyDocument(&models.Room{Active: true, Receivers: []models.Participant{ann}})

	roster := registry.Roster()

	require.Len(t, roster, 1)
	assert.True(t, roster[0].Live)
}
