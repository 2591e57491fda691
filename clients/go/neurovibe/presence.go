package neurovibe

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
)

// PresenceEntry is one remote participant as the local client sees them.
type PresenceEntry struct {
	Participant models.Participant
	Role        string
	Live        bool
}

type presenceRecord struct {
	participant models.Participant
	role        string
	live        bool
	fromDoc     bool
}

// Registry reconciles the two sources of membership truth: the persisted
// room document and live socket events. Document metadata wins over
// metadata carried in identify events; socket events win for liveness. The
// local participant is never part of the roster.
type Registry struct {
	mu      sync.Mutex
	localID uuid.UUID
	records map[uuid.UUID]*presenceRecord
}

func NewRegistry(localID uuid.UUID) *Registry {
	return &Registry{
		localID: localID,
		records: make(map[uuid.UUID]*presenceRecord),
	}
}

// ApplyDocument merges a room document snapshot. Membership and metadata
// follow the document; liveness of already-seen participants is preserved.
func (r *Registry) ApplyDocument(room *models.Room) {
	if room == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uuid.UUID]bool)

	if room.Sender != nil {
		r.upsertLocked(*room.Sender, models.RoleSender, true)
		seen[room.Sender.ID] = true
	}

	for _, receiver := range room.Receivers {
		r.upsertLocked(receiver, models.RoleReceiver, true)
		seen[receiver.ID] = true
	}

	// Participants dropped from the document are gone for good.
	for id := range r.records {
		if !seen[id] {
			delete(r.records, id)
		}
	}
}

// ApplyIdentify records a participant announced over the socket. Metadata
// from identify fills gaps but never overwrites document metadata.
func (r *Registry) ApplyIdentify(participant models.Participant, role string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.upsertLocked(participant, role, false)

	if rec, ok := r.records[participant.ID]; ok {
		rec.live = true
	}
}

// ApplyReceiverList replaces the live receiver set with a server roster
// broadcast. Receivers missing from the roster go offline but keep their
// document membership.
func (r *Registry) ApplyReceiverList(users []models.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listed := make(map[uuid.UUID]bool, len(users))
	for _, user := range users {
		r.upsertLocked(user, models.RoleReceiver, false)
		if rec, ok := r.records[user.ID]; ok {
			rec.live = true
		}
		listed[user.ID] = true
	}

	for id, rec := range r.records {
		if rec.role == models.RoleReceiver && !listed[id] {
			rec.live = false
		}
	}
}

// ApplySenderLost marks the sender offline after a disconnect broadcast.
func (r *Registry) ApplySenderLost() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.role == models.RoleSender {
			rec.live = false
		}
	}
}

// ApplyTransportDown marks every remote participant offline. Called when the
// local socket drops so the UI never shows stale liveness.
func (r *Registry) ApplyTransportDown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		rec.live = false
	}
}

// Roster returns remote participants sorted by name, local excluded.
func (r *Registry) Roster() []PresenceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]PresenceEntry, 0, len(r.records))
	for id, rec := range r.records {
		if id == r.localID {
			continue
		}
		entries = append(entries, PresenceEntry{
			Participant: rec.participant,
			Role:        rec.role,
			Live:        rec.live,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Participant.Name != entries[j].Participant.Name {
			return entries[i].Participant.Name < entries[j].Participant.Name
		}
		return entries[i].Participant.ID.String() < entries[j].Participant.ID.String()
	})

	return entries
}

// upsertLocked merges one participant record. Callers must hold r.mu.
func (r *Registry) upsertLocked(participant models.Participant, role string, fromDoc bool) {
	rec, ok := r.records[participant.ID]
	if !ok {
		r.records[participant.ID] = &presenceRecord{
			participant: participant,
			role:        role,
			fromDoc:     fromDoc,
		}
		return
	}

	if fromDoc || !rec.fromDoc {
		rec.participant = participant
		rec.fromDoc = rec.fromDoc || fromDoc
	}
	rec.role = role
}
