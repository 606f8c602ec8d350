//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"dm-lab/contract"
	"dm-lab/domain"
	"dm-lab/runtime"
)

// IChatService is the transport-facing surface of the conversation engine
// plus session lifecycle on the registry. Handlers depend on this interface,
// never on the engine directly.
type IChatService interface {
	CreateConversation(cmd domain.CreateConversationCommand) (domain.Conversation, error)
	GetConversation(conversationID, requesterID string) (domain.Conversation, error)
	ListConversations(userID string) ([]domain.Conversation, error)
	DeleteConversation(conversationID, requesterID string) error
	SendMessage(cmd domain.PostMessageCommand) (domain.Message, error)
	GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, error)
	Connect(sessionID, userID string, sink contract.EventSink)
	Disconnect(sessionID string)
	Focus(sessionID, conversationID string)
}

type ChatService struct {
	engine   *runtime.Engine
	registry contract.IRegistry
}

func NewChatService(engine *runtime.Engine, registry contract.IRegistry) *ChatService {
	return &ChatService{engine: engine, registry: registry}
}

func (s *ChatService) CreateConversation(cmd domain.CreateConversationCommand) (domain.Conversation, error) {
	return s.engine.CreateConversation(cmd)
}

func (s *ChatService) GetConversation(conversationID, requesterID string) (domain.Conversation, error) {
	return s.engine.GetConversationByID(conversationID, requesterID)
}

func (s *ChatService) ListConversations(userID string) ([]domain.Conversation, error) {
	return s.engine.GetUserConversations(userID)
}

func (s *ChatService) DeleteConversation(conversationID, requesterID string) error {
	return s.engine.DeleteConversation(conversationID, requesterID)
}

func (s *ChatService) SendMessage(cmd domain.PostMessageCommand) (domain.Message, error) {
	return s.engine.SendMessage(cmd)
}

func (s *ChatService) GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, error) {
	return s.engine.GetConversationMessages(cmd)
}

func (s *ChatService) Connect(sessionID, userID string, sink contract.EventSink) {
	s.registry.Subscribe(sessionID, userID, sink)
}

func (s *ChatService) Disconnect(sessionID string) {
	s.registry.Unsubscribe(sessionID)
}

func (s *ChatService) Focus(sessionID, conversationID string) {
	s.registry.SetFocus(sessionID, conversationID)
}
