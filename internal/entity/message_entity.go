package entity

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Content part types for multimodal messages.
const (
	PartText  = "text"
	PartImage = "image"
)

// ContentPart is one typed piece of a multimodal message.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageRef string `json:"image_ref,omitempty"`
}

// Message is one conversation turn half. Content carries the plain-text form;
// Parts is set only for multimodal messages and keeps insertion order.
type Message struct {
	ID        uuid.UUID     `json:"id"`
	Role      string        `json:"role"`
	Content   string        `json:"content"`
	Parts     []ContentPart `json:"parts,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewTextMessage builds a plain text message.
func NewTextMessage(role, content string) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewMultimodalMessage builds a message whose content is an ordered part
// sequence: one text part first, then one image part per reference.
func NewMultimodalMessage(role, text string, imageRefs []string) Message {
	parts := []ContentPart{{Type: PartText, Text: text}}
	for _, ref := range imageRefs {
		parts = append(parts, ContentPart{Type: PartImage, ImageRef: ref})
	}
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   text,
		Parts:     parts,
		CreatedAt: time.Now(),
	}
}

// Text returns the textual content of the message: the scalar content, or the
// concatenated text parts for multimodal messages.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var text string
	for _, p := range m.Parts {
		if p.Type == PartText {
			text += p.Text
		}
	}
	return text
}

// ImageRefs returns the ordered image references of a multimodal message.
func (m Message) ImageRefs() []string {
	var refs []string
	for _, p := range m.Parts {
		if p.Type == PartImage && p.ImageRef != "" {
			refs = append(refs, p.ImageRef)
		}
	}
	return refs
}
