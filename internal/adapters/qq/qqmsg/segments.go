// Package qqmsg declares the native message segments of the QQ guild/group bot platform.
package qqmsg

const Platform = "qq"

type (
	ArkKV struct {
		Key   string         `json:"key"`
		Value string         `json:"value,omitempty"`
		Obj   []ArkObjectSet `json:"obj,omitempty"`
	}

	ArkObjectSet struct {
		ObjKV []ArkKV `json:"obj_kv"`
	}

	ArkPayload struct {
		TemplateID int     `json:"template_id"`
		KV         []ArkKV `json:"kv"`
	}

	EmbedField struct {
		Name string `json:"name"`
	}

	EmbedPayload struct {
		Title     string       `json:"title,omitempty"`
		Prompt    string       `json:"prompt,omitempty"`
		Thumbnail string       `json:"thumbnail,omitempty"`
		Fields    []EmbedField `json:"fields,omitempty"`
	}

	KeyboardPayload struct {
		ID      string         `json:"id,omitempty"`
		Content map[string]any `json:"content,omitempty"`
	}

	MarkdownPayload struct {
		TemplateID string              `json:"custom_template_id,omitempty"`
		Content    string              `json:"content,omitempty"`
		Params     map[string][]string `json:"params,omitempty"`
	}

	ReferencePayload struct {
		MessageID         string `json:"message_id"`
		IgnoreGetMsgError bool   `json:"ignore_get_message_error"`
	}
)

type (
	Ark struct{ Payload ArkPayload }

	Embed struct{ Payload EmbedPayload }

	Emoji struct{ ID string }

	// Attachment is an image referenced by URL.
	Attachment struct{ URL string }

	// LocalImage is an image uploaded from raw bytes.
	LocalImage struct{ Content []byte }

	Keyboard struct{ Payload KeyboardPayload }

	Markdown struct{ Payload MarkdownPayload }

	MentionUser struct{ UserID string }

	MentionChannel struct{ ChannelID string }

	MentionEveryone struct{}

	Reference struct{ Payload ReferencePayload }
)

func (Ark) Type() string             { return "ark" }
func (s Ark) Data() map[string]any   { return map[string]any{"ark": s.Payload} }
func (Embed) Type() string           { return "embed" }
func (s Embed) Data() map[string]any { return map[string]any{"embed": s.Payload} }
func (Emoji) Type() string           { return "emoji" }
func (s Emoji) Data() map[string]any { return map[string]any{"id": s.ID} }
func (Attachment) Type() string      { return "attachment" }
func (s Attachment) Data() map[string]any {
	return map[string]any{"url": s.URL}
}
func (LocalImage) Type() string { return "file_image" }
func (s LocalImage) Data() map[string]any {
	return map[string]any{"content": s.Content}
}
func (Keyboard) Type() string           { return "keyboard" }
func (s Keyboard) Data() map[string]any { return map[string]any{"keyboard": s.Payload} }
func (Markdown) Type() string           { return "markdown" }
func (s Markdown) Data() map[string]any { return map[string]any{"markdown": s.Payload} }
func (MentionUser) Type() string        { return "mention_user" }
func (s MentionUser) Data() map[string]any {
	return map[string]any{"user_id": s.UserID}
}
func (MentionChannel) Type() string { return "mention_channel" }
func (s MentionChannel) Data() map[string]any {
	return map[string]any{"channel_id": s.ChannelID}
}
func (MentionEveryone) Type() string         { return "mention_everyone" }
func (MentionEveryone) Data() map[string]any { return map[string]any{} }
func (Reference) Type() string               { return "reference" }
func (s Reference) Data() map[string]any {
	return map[string]any{"reference": s.Payload}
}

func NewArk(payload ArkPayload) Ark                { return Ark{Payload: payload} }
func NewEmbed(payload EmbedPayload) Embed          { return Embed{Payload: payload} }
func NewEmoji(id string) Emoji                     { return Emoji{ID: id} }
func NewImage(url string) Attachment               { return Attachment{URL: url} }
func NewKeyboard(payload KeyboardPayload) Keyboard { return Keyboard{Payload: payload} }
func NewMarkdown(payload MarkdownPayload) Markdown { return Markdown{Payload: payload} }
func NewMentionUser(userID string) MentionUser     { return MentionUser{UserID: userID} }
func NewMentionChannel(channelID string) MentionChannel {
	return MentionChannel{ChannelID: channelID}
}
func NewMentionEveryone() MentionEveryone { return MentionEveryone{} }

// NewFileImage wraps raw image bytes.
func NewFileImage(content []byte) LocalImage {
	return LocalImage{Content: content}
}

// NewReference points at messageID; a bare id never ignores lookup errors.
func NewReference(messageID string) Reference {
	return Reference{Payload: ReferencePayload{MessageID: messageID}}
}
