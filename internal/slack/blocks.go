package slack

// Block Kit wire types, limited to what the brief messages use.

// Block is one Block Kit block.
type Block struct {
	Type      string  `json:"type"`
	Text      *Text   `json:"text,omitempty"`
	Elements  []Text  `json:"elements,omitempty"`
	Accessory *Button `json:"accessory,omitempty"`
}

// Text is a plain_text or mrkdwn text object.
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Button is a button accessory element.
type Button struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text"`
	URL      string `json:"url,omitempty"`
	ActionID string `json:"action_id,omitempty"`
	Style    string `json:"style,omitempty"`
}

func headerBlock(text string) Block {
	return Block{
		Type: "header",
		Text: &Text{Type: "plain_text", Text: text, Emoji: true},
	}
}

func sectionBlock(markdown string) Block {
	return Block{
		Type: "section",
		Text: &Text{Type: "mrkdwn", Text: markdown},
	}
}

func contextBlock(markdown string) Block {
	return Block{
		Type:     "context",
		Elements: []Text{{Type: "mrkdwn", Text: markdown}},
	}
}

func dividerBlock() Block {
	return Block{Type: "divider"}
}

func linkButton(label, url, actionID string) *Button {
	return &Button{
		Type:     "button",
		Text:     &Text{Type: "plain_text", Text: label, Emoji: true},
		URL:      url,
		ActionID: actionID,
		Style:    "primary",
	}
}
