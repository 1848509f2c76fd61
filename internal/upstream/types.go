package upstream

// Conversation is a single conversation record as reported by the provider.
// The provider's API has grown two generations of field names for the same
// data: start time may arrive in either startTimestamp or beginTimestamp
// (epoch seconds, zero when absent), and the counterparty number in either
// fromNumber or callerNumber.
type Conversation struct {
	ID             string           `json:"id"`
	AgentID        string           `json:"agentId"`
	AgentName      string           `json:"agentName"`
	Status         string           `json:"status"`
	StartTimestamp int64            `json:"startTimestamp,omitempty"`
	BeginTimestamp int64            `json:"beginTimestamp,omitempty"`
	FromNumber     string           `json:"fromNumber,omitempty"`
	CallerNumber   string           `json:"callerNumber,omitempty"`
	EndTimestamp   int64            `json:"endTimestamp,omitempty"`
	Transcript     []TranscriptTurn `json:"transcript,omitempty"`
}

// TranscriptTurn is one utterance in a conversation transcript.
type TranscriptTurn struct {
	Role    string `json:"role"` // "agent" or "user"
	Content string `json:"content"`
}

// Agent is an AI agent definition from the provider.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Voice       string `json:"voice,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// CreateCallRequest places an outbound call through an agent. DynamicVariables
// are substituted into the agent's prompt template by the provider.
type CreateCallRequest struct {
	AgentID          string            `json:"agentId"`
	ToNumber         string            `json:"toNumber"`
	DynamicVariables map[string]string `json:"dynamicVariables,omitempty"`
}

// Call is the provider's acknowledgement of a placed call.
type Call struct {
	ID      string `json:"id"`
	AgentID string `json:"agentId"`
	Status  string `json:"status"`
}
