//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"dm-lab/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself; supervision handles panics and restarts.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives fanned-out events for one live session.
// Consume must not block past ctx; slow sinks are skipped, not waited on.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks live sessions. A user may hold several sessions at once
// (multi-device); each session may declare the conversation it is currently
// viewing, which drives server-side notification suppression.
type IRegistry interface {
	Subscribe(sessionID, userID string, sink EventSink)
	Unsubscribe(sessionID string)
	SetFocus(sessionID, conversationID string)
	SinksForUser(userID string) []EventSink
	SinksForUserAway(userID, conversationID string) []EventSink
}
