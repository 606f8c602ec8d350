package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"dm-lab/domain/event"
)

type Sink struct {
	name string
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Subscribe_One_User_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	userID := uuid.NewString()
	sink := Sink{name: "laptop"}

	// Given no session is connected
	req.Empty(registry.SinksForUser(userID))

	// When a session subscribes
	registry.Subscribe(sessionID, userID, sink)

	// Then
	req.Len(registry.SinksForUser(userID), 1)
	req.Contains(registry.SinksForUser(userID), sink)
}

func TestRegistry_Subscribe_One_User_Multiple_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	laptop := Sink{name: "laptop"}
	phone := Sink{name: "phone"}

	// When the same user connects from two devices
	registry.Subscribe(uuid.NewString(), userID, laptop)
	registry.Subscribe(uuid.NewString(), userID, phone)

	// Then both sinks are resolved
	sinks := registry.SinksForUser(userID)
	req.Len(sinks, 2)
	req.Contains(sinks, laptop)
	req.Contains(sinks, phone)
}

func TestRegistry_Unsubscribe_Last_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	userID := uuid.NewString()

	// Given a connected session
	registry.Subscribe(sessionID, userID, Sink{})

	// When it disconnects
	registry.Unsubscribe(sessionID)

	// Then the user has no live sink left
	req.Nil(registry.SinksForUser(userID))
}

func TestRegistry_Unsubscribe_One_Of_Multiple_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	laptopSession := uuid.NewString()
	phoneSession := uuid.NewString()
	laptop := Sink{name: "laptop"}
	phone := Sink{name: "phone"}

	registry.Subscribe(laptopSession, userID, laptop)
	registry.Subscribe(phoneSession, userID, phone)

	// When one device disconnects
	registry.Unsubscribe(laptopSession)

	// Then only the other remains
	sinks := registry.SinksForUser(userID)
	req.Len(sinks, 1)
	req.Contains(sinks, phone)
}

func TestRegistry_Unsubscribe_Unknown_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Must be a no-op
	registry.Unsubscribe(uuid.NewString())
	req.Empty(registry.SinksForUser(uuid.NewString()))
}

func TestRegistry_SinksForUserAway_Skips_Focused_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	conversationID := uuid.NewString()
	laptopSession := uuid.NewString()
	phoneSession := uuid.NewString()
	laptop := Sink{name: "laptop"}
	phone := Sink{name: "phone"}

	registry.Subscribe(laptopSession, userID, laptop)
	registry.Subscribe(phoneSession, userID, phone)

	// Given the laptop is viewing the conversation
	registry.SetFocus(laptopSession, conversationID)

	// Then only the phone is notified
	away := registry.SinksForUserAway(userID, conversationID)
	req.Len(away, 1)
	req.Contains(away, phone)

	// And a different conversation notifies both
	req.Len(registry.SinksForUserAway(userID, uuid.NewString()), 2)
}

func TestRegistry_SetFocus_Cleared(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	sessionID := uuid.NewString()
	conversationID := uuid.NewString()

	registry.Subscribe(sessionID, userID, Sink{})
	registry.SetFocus(sessionID, conversationID)
	req.Empty(registry.SinksForUserAway(userID, conversationID))

	// When the session leaves the conversation screen
	registry.SetFocus(sessionID, "")

	// Then it is notified again
	req.Len(registry.SinksForUserAway(userID, conversationID), 1)
}

func TestRegistry_SetFocus_Unknown_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// A focus frame racing a disconnect must not panic
	registry.SetFocus(uuid.NewString(), uuid.NewString())
	req.Empty(registry.SinksForUser(uuid.NewString()))
}
