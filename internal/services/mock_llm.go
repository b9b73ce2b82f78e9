package services

import (
	"context"
	"sync"

	"github.com/lorebound/adventure-engine/pkg/chat"
	"github.com/lorebound/adventure-engine/pkg/scenario"
	"github.com/lorebound/adventure-engine/pkg/state"
)

// MockLLMService is a mock implementation of LLMService for testing
type MockLLMService struct {
	InitModelFunc      func(ctx context.Context, modelName string) error
	WorldDecisionFunc  func(ctx context.Context, messages []chat.Message) (*state.WorldDecision, error)
	CharacterVoiceFunc func(ctx context.Context, messages []chat.Message) (*state.CharacterAction, error)
	StorySummaryFunc   func(ctx context.Context, messages []chat.Message) (string, error)
	GenerateNPCFunc    func(ctx context.Context, messages []chat.Message) (*scenario.StoryCard, error)

	// Track calls for testing
	InitModelCalls      []string
	WorldDecisionCalls  []WorldDecisionCall
	CharacterVoiceCalls []CharacterVoiceCall
	StorySummaryCalls   []StorySummaryCall
	GenerateNPCCalls    []GenerateNPCCall

	mu sync.Mutex // protects all fields above
}

type WorldDecisionCall struct {
	Messages []chat.Message
}

type CharacterVoiceCall struct {
	Messages []chat.Message
}

type StorySummaryCall struct {
	Messages []chat.Message
}

type GenerateNPCCall struct {
	Messages []chat.Message
}

// NewMockLLMService creates a new mock LLM service
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		InitModelCalls:      make([]string, 0),
		WorldDecisionCalls:  make([]WorldDecisionCall, 0),
		CharacterVoiceCalls: make([]CharacterVoiceCall, 0),
		StorySummaryCalls:   make([]StorySummaryCall, 0),
		GenerateNPCCalls:    make([]GenerateNPCCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMService) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// WorldDecision mocks the world-decision call
func (m *MockLLMService) WorldDecision(ctx context.Context, messages []chat.Message) (*state.WorldDecision, error) {
	m.mu.Lock()
	m.WorldDecisionCalls = append(m.WorldDecisionCalls, WorldDecisionCall{Messages: messages})
	fn := m.WorldDecisionFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return &state.WorldDecision{
		Narration: "Mock narration.",
	}, nil
}

// CharacterVoice mocks a character-voice call
func (m *MockLLMService) CharacterVoice(ctx context.Context, messages []chat.Message) (*state.CharacterAction, error) {
	m.mu.Lock()
	m.CharacterVoiceCalls = append(m.CharacterVoiceCalls, CharacterVoiceCall{Messages: messages})
	fn := m.CharacterVoiceFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return &state.CharacterAction{
		Speech: "Mock speech.",
	}, nil
}

// StorySummary mocks the rolling-summary call
func (m *MockLLMService) StorySummary(ctx context.Context, messages []chat.Message) (string, error) {
	m.mu.Lock()
	m.StorySummaryCalls = append(m.StorySummaryCalls, StorySummaryCall{Messages: messages})
	fn := m.StorySummaryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return "Mock summary.", nil
}

// GenerateNPC mocks the NPC-generation call
func (m *MockLLMService) GenerateNPC(ctx context.Context, messages []chat.Message) (*scenario.StoryCard, error) {
	m.mu.Lock()
	m.GenerateNPCCalls = append(m.GenerateNPCCalls, GenerateNPCCall{Messages: messages})
	fn := m.GenerateNPCFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return &scenario.StoryCard{
		Type:     scenario.CardCharacter,
		Name:     "Mock Character",
		Entry:    "A mock character entry.",
		Triggers: []string{"mock"},
	}, nil
}

// Reset clears all call tracking
func (m *MockLLMService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.WorldDecisionCalls = make([]WorldDecisionCall, 0)
	m.CharacterVoiceCalls = make([]CharacterVoiceCall, 0)
	m.StorySummaryCalls = make([]StorySummaryCall, 0)
	m.GenerateNPCCalls = make([]GenerateNPCCall, 0)
}

// SetWorldDecisionError sets up the mock to return an error on WorldDecision
func (m *MockLLMService) SetWorldDecisionError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorldDecisionFunc = func(ctx context.Context, messages []chat.Message) (*state.WorldDecision, error) {
		return nil, err
	}
}

// SetCharacterVoiceError sets up the mock to return an error on CharacterVoice
func (m *MockLLMService) SetCharacterVoiceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CharacterVoiceFunc = func(ctx context.Context, messages []chat.Message) (*state.CharacterAction, error) {
		return nil, err
	}
}

// WorldDecisionCallCount returns how many world-decision calls were made
func (m *MockLLMService) WorldDecisionCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.WorldDecisionCalls)
}

// CharacterVoiceCallCount returns how many character-voice calls were made
func (m *MockLLMService) CharacterVoiceCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CharacterVoiceCalls)
}
