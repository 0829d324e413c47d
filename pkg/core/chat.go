package core

import (
	"encoding/json"
	"time"
)

// Visibility controls who may read a chat.
type Visibility string

// Chat visibilities.
const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Role is the author of a message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PartType discriminates MessagePart variants.
type PartType string

// Message part types.
const (
	PartText           PartType = "text"
	PartReasoning      PartType = "reasoning"
	PartToolInvocation PartType = "tool-invocation"
	PartStepStart      PartType = "step-start"
)

// ToolInvocationState is the lifecycle state of a tool invocation part.
type ToolInvocationState string

// Tool invocation states.
const (
	ToolStateCall   ToolInvocationState = "call"
	ToolStateResult ToolInvocationState = "result"
)

// User is an account certified by the web server.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chat is a conversation owned by a user.
type Chat struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"createdAt"`
	Title      string     `json:"title"`
	UserID     string     `json:"userId"`
	Visibility Visibility `json:"visibility"`
}

// ChatPatch holds the mutable fields of a chat. Nil fields are left unchanged.
type ChatPatch struct {
	Title      *string     `json:"title,omitempty"`
	Visibility *Visibility `json:"visibility,omitempty"`
}

// ToolInvocation records a tool call and, once available, its result.
type ToolInvocation struct {
	State      ToolInvocationState `json:"state"`
	Step       int                 `json:"step"`
	ToolCallID string              `json:"toolCallId"`
	ToolName   string              `json:"toolName"`
	Args       json.RawMessage     `json:"args,omitempty"`
	Result     json.RawMessage     `json:"result,omitempty"`
}

// MessagePart is one element of a message's ordered parts.
type MessagePart struct {
	Type           PartType        `json:"type"`
	Text           string          `json:"text,omitempty"`
	Reasoning      string          `json:"reasoning,omitempty"`
	ToolInvocation *ToolInvocation `json:"toolInvocation,omitempty"`
}

// Attachment is a file reference sent along with a message.
type Attachment struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	URL         string `json:"url"`
}

// Message is a single chat message.
type Message struct {
	ID          string        `json:"id"`
	ChatID      string        `json:"chatId"`
	Role        Role          `json:"role"`
	Content     string        `json:"content,omitempty"`
	Parts       []MessagePart `json:"parts"`
	Attachments []Attachment  `json:"attachments"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Text concatenates the text parts of the message, falling back to Content.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	if out == "" {
		return m.Content
	}
	return out
}

// Vote is a user's reaction to an assistant message.
type Vote struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	IsUpvoted bool   `json:"isUpvoted"`
}

// DashboardRecord is a persisted dashboard.
type DashboardRecord struct {
	ChatID    string    `json:"chatId"`
	MessageID string    `json:"messageId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	Data      Dashboard `json:"data"`
}

// MetadataInfo maps a datasource column to display aliases.
type MetadataInfo struct {
	TableName     string  `json:"tableName"`
	TableAliases  string  `json:"tableAliases"`
	ColumnName    string  `json:"columnName"`
	ColumnAliases string  `json:"columnAliases"`
	ColumnType    string  `json:"columnType"`
	IsNullable    bool    `json:"isNullable"`
	ColumnDefault *string `json:"columnDefault,omitempty"`
}
