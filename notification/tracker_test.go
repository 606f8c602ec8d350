package notification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"dm-lab/domain"
)

func newMessage(conversationID string) domain.Message {
	return domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		AuthorID:       "alice",
		Content:        "ping",
	}
}

func TestTracker_RecordAndCount(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	req.True(tracker.Record(newMessage("conv-1")))
	req.True(tracker.Record(newMessage("conv-1")))
	req.True(tracker.Record(newMessage("conv-2")))

	req.Equal(3, tracker.Count())
	req.Equal(map[string]int{"conv-1": 2, "conv-2": 1}, tracker.Unread())
	req.Len(tracker.UnreadByConversation("conv-1"), 2)
}

func TestTracker_ViewedConversationIsSuppressed(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.SetViewing("conv-1")

	// On-screen conversation never accumulates unread entries.
	req.False(tracker.Record(newMessage("conv-1")))
	req.True(tracker.Record(newMessage("conv-2")))

	req.Equal(1, tracker.Count())
	req.Empty(tracker.UnreadByConversation("conv-1"))
}

func TestTracker_OpeningAConversationReadsIt(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.Record(newMessage("conv-1"))
	tracker.Record(newMessage("conv-1"))
	req.Equal(2, tracker.Count())

	// Switching to the conversation clears its backlog.
	tracker.SetViewing("conv-1")
	req.Equal(0, tracker.Count())

	// Leaving it re-enables accumulation.
	tracker.SetViewing("")
	req.True(tracker.Record(newMessage("conv-1")))
	req.Equal(1, tracker.Count())
}

func TestTracker_AcknowledgeRemovesOneMessage(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	first := newMessage("conv-1")
	second := newMessage("conv-1")
	other := newMessage("conv-2")
	tracker.Record(first)
	tracker.Record(second)
	tracker.Record(other)

	// Exactly the acknowledged record disappears, the rest stay.
	tracker.Acknowledge(first.ID)
	req.Equal(map[string]int{"conv-1": 1, "conv-2": 1}, tracker.Unread())
	req.Equal(second.ID, tracker.UnreadByConversation("conv-1")[0].ID)

	// Last record of a conversation takes its counter with it.
	tracker.Acknowledge(second.ID)
	req.Equal(map[string]int{"conv-2": 1}, tracker.Unread())

	// Unknown ids are a no-op.
	tracker.Acknowledge("never-recorded")
	req.Equal(1, tracker.Count())
}

func TestTracker_AcknowledgeAllAndClear(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.Record(newMessage("conv-1"))
	tracker.Record(newMessage("conv-1"))
	tracker.Record(newMessage("conv-2"))

	tracker.AcknowledgeAll("conv-1")
	req.Equal(map[string]int{"conv-2": 1}, tracker.Unread())

	tracker.Clear()
	req.Equal(0, tracker.Count())
	req.Empty(tracker.Unread())
}

func TestTracker_OrderPreservedPerConversation(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	first := newMessage("conv-1")
	second := newMessage("conv-1")
	tracker.Record(first)
	tracker.Record(second)

	pending := tracker.UnreadByConversation("conv-1")
	req.Equal([]string{first.ID, second.ID},
		[]string{pending[0].ID, pending[1].ID})
}
