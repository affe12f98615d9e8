package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Novicer18/lexadvisor/cache"
	"github.com/Novicer18/lexadvisor/llm"
	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/repository"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotConversationOwner = errors.New("conversation belongs to another user")
	ErrAssistantUnavailable = errors.New("assistant is not configured")
)

const (
	maxTitleLength = 60

	systemPromptHeader = "You are a legal assistant. Ground your answers in the " +
		"provided excerpts from validated legal documents and say so when the " +
		"corpus does not cover the question. Do not give advice beyond the sources."
)

// ChatService drives the chat view: it persists transcripts, retrieves
// grounding context from the corpus and streams assistant answers.
type ChatService struct {
	convRepo  *repository.ConversationRepository
	chunkRepo *repository.EmbeddingRepository
	logs      *repository.SystemLogRepository
	llmClient *llm.Client
	msgCache  *cache.MessageCache
	topK      int
}

// ChatServiceOption is a functional option for ChatService
type ChatServiceOption func(*ChatService)

// ChatWithConversationRepository sets the conversation repository
func ChatWithConversationRepository(repo *repository.ConversationRepository) ChatServiceOption {
	return func(s *ChatService) {
		s.convRepo = repo
	}
}

// ChatWithEmbeddingRepository sets the embedding repository
func ChatWithEmbeddingRepository(repo *repository.EmbeddingRepository) ChatServiceOption {
	return func(s *ChatService) {
		s.chunkRepo = repo
	}
}

// ChatWithSystemLogRepository sets the system log repository
func ChatWithSystemLogRepository(repo *repository.SystemLogRepository) ChatServiceOption {
	return func(s *ChatService) {
		s.logs = repo
	}
}

// ChatWithLLMClient sets the completion client
func ChatWithLLMClient(client *llm.Client) ChatServiceOption {
	return func(s *ChatService) {
		s.llmClient = client
	}
}

// ChatWithMessageCache sets the optional transcript cache
func ChatWithMessageCache(c *cache.MessageCache) ChatServiceOption {
	return func(s *ChatService) {
		s.msgCache = c
	}
}

// ChatWithTopK sets how many chunks ground each answer
func ChatWithTopK(k int) ChatServiceOption {
	return func(s *ChatService) {
		s.topK = k
	}
}

// NewChatService creates a new chat service
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{topK: 5}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListConversations returns the caller's conversations
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	return s.convRepo.ListByUserID(ctx, userID)
}

// ListMessages returns a conversation transcript after an ownership check,
// trying the cache first.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID) ([]models.Message, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	if conv.UserID != userID {
		return nil, ErrNotConversationOwner
	}

	if s.msgCache != nil {
		if cached, err := s.msgCache.Get(ctx, conversationID); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	messages, err := s.convRepo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if s.msgCache != nil {
		if err := s.msgCache.Replace(ctx, conversationID, messages); err != nil {
			log.Printf("Failed to cache messages: %v", err)
		}
	}
	return messages, nil
}

// DeleteConversation removes a conversation owned by the caller; its messages
// cascade with it.
func (s *ChatService) DeleteConversation(ctx context.Context, conversationID, userID uuid.UUID) error {
	if err := s.convRepo.DeleteOwned(ctx, conversationID, userID); err != nil {
		return ErrConversationNotFound
	}

	if s.msgCache != nil {
		if err := s.msgCache.Invalidate(ctx, conversationID); err != nil {
			log.Printf("Failed to invalidate message cache: %v", err)
		}
	}

	if s.logs != nil {
		if err := s.logs.Append(ctx, "conversation.delete",
			models.LogDetail{"conversation_id": conversationID.String()}, &userID); err != nil {
			log.Printf("Failed to record conversation delete: %v", err)
		}
	}
	return nil
}

// SendMessageRequest describes one user turn. ConversationID nil starts a new
// conversation titled after the message.
type SendMessageRequest struct {
	UserID         uuid.UUID
	ConversationID *uuid.UUID
	Content        string
	Domain         *models.Domain
}

// SendMessageResult is the completed exchange
type SendMessageResult struct {
	Conversation *models.Conversation `json:"conversation"`
	UserMessage  *models.Message      `json:"user_message"`
	Assistant    *models.Message      `json:"assistant_message"`
}

// SendMessage persists the user turn, streams the assistant answer through
// onSnapshot (each call carries the full accumulated text so far) and
// persists the assistant turn with its citations.
func (s *ChatService) SendMessage(ctx context.Context, req SendMessageRequest, onSnapshot func(string)) (*SendMessageResult, error) {
	if s.llmClient == nil {
		return nil, ErrAssistantUnavailable
	}

	conv, isNew, err := s.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	history, err := s.convRepo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	userMsg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.MessageRoleUser,
		Content:        req.Content,
	}
	if err := s.convRepo.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}
	s.cacheAppend(ctx, conv.ID, *userMsg)

	chunks, citations := s.retrieveContext(ctx, req.Content, req.Domain)

	llmMessages := buildContext(systemPrompt(chunks), history, req.Content)

	answer, err := s.llmClient.Stream(ctx, llm.Request{
		Messages:       llmMessages,
		ConversationID: conv.ID.String(),
	}, onSnapshot)
	if err != nil {
		return nil, err
	}

	assistantMsg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.MessageRoleAssistant,
		Content:        answer,
		Citations:      citations,
	}
	if err := s.convRepo.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}
	s.cacheAppend(ctx, conv.ID, *assistantMsg)

	if isNew {
		conv.Title = deriveTitle(req.Content)
		if err := s.convRepo.UpdateTitle(ctx, conv.ID, conv.Title); err != nil {
			log.Printf("Failed to update conversation title: %v", err)
		}
	} else if err := s.convRepo.Touch(ctx, conv.ID); err != nil {
		log.Printf("Failed to touch conversation: %v", err)
	}

	return &SendMessageResult{
		Conversation: conv,
		UserMessage:  userMsg,
		Assistant:    assistantMsg,
	}, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, req SendMessageRequest) (*models.Conversation, bool, error) {
	if req.ConversationID != nil {
		conv, err := s.convRepo.GetByID(ctx, *req.ConversationID)
		if err != nil {
			return nil, false, ErrConversationNotFound
		}
		if conv.UserID != req.UserID {
			return nil, false, ErrNotConversationOwner
		}
		return conv, false, nil
	}

	conv := &models.Conversation{
		UserID: req.UserID,
		Title:  deriveTitle(req.Content),
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

// retrieveContext fetches the nearest validated chunks for grounding. A
// retrieval failure degrades to an uncited answer rather than failing the turn.
func (s *ChatService) retrieveContext(ctx context.Context, content string, domain *models.Domain) ([]models.DocumentChunk, models.Citations) {
	embedding, err := s.llmClient.Embed(ctx, content)
	if err != nil {
		log.Printf("Failed to embed query: %v", err)
		return nil, nil
	}

	chunks, err := s.chunkRepo.Search(ctx, embedding, domain, s.topK)
	if err != nil {
		log.Printf("Failed to search corpus: %v", err)
		return nil, nil
	}

	return chunks, citationsFrom(chunks)
}

func (s *ChatService) cacheAppend(ctx context.Context, conversationID uuid.UUID, msg models.Message) {
	if s.msgCache == nil {
		return
	}
	if err := s.msgCache.Append(ctx, conversationID, msg); err != nil {
		log.Printf("Failed to cache message: %v", err)
	}
}

// citationsFrom collapses retrieved chunks into one citation per document
func citationsFrom(chunks []models.DocumentChunk) models.Citations {
	seen := make(map[uuid.UUID]bool, len(chunks))
	var citations models.Citations
	for _, chunk := range chunks {
		if seen[chunk.DocumentID] {
			continue
		}
		seen[chunk.DocumentID] = true
		citations = append(citations, models.Citation{
			Title:  chunk.DocumentTitle,
			Domain: chunk.DocumentDomain,
		})
	}
	return citations
}

// systemPrompt assembles the grounding prompt from retrieved chunks
func systemPrompt(chunks []models.DocumentChunk) string {
	if len(chunks) == 0 {
		return systemPromptHeader
	}

	var b strings.Builder
	b.WriteString(systemPromptHeader)
	b.WriteString("\n\nRelevant excerpts:\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "\n[%d] %s (%s)\n%s\n", i+1, chunk.DocumentTitle, chunk.DocumentDomain, chunk.ChunkText)
	}
	return b.String()
}

// buildContext orders the completion context: system prompt, prior turns,
// then the new user message.
func buildContext(system string, history []models.Message, content string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: string(models.MessageRoleSystem), Content: system})
	for _, msg := range history {
		if msg.Role == models.MessageRoleSystem {
			continue
		}
		messages = append(messages, llm.Message{Role: string(msg.Role), Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: string(models.MessageRoleUser), Content: content})
	return messages
}

// deriveTitle derives a conversation title from its first message: collapsed
// whitespace, cut at a word boundary. Truncation counts runes, never splitting
// a multibyte character.
func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if title == "" {
		return "New conversation"
	}
	runes := []rune(title)
	if len(runes) <= maxTitleLength {
		return title
	}

	cut := string(runes[:maxTitleLength])
	if idx := strings.LastIndex(cut, " "); idx > maxTitleLength/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
