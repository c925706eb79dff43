package feishu

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"
)

// parseContent fills the text and attachment keys of msg from the raw JSON
// content. It returns false for unsupported message types.
func parseContent(msg *Message, content string) bool {
	switch msg.MsgType {
	case "text":
		msg.Content = parseTextContent(content, msg.MentionMap)
	case "image":
		msg.ImageKeys = parseImageContent(content)
		msg.Content = "[Image]"
	case "file":
		msg.FileKeys = parseFileContent(content)
		msg.Content = "[File]"
	case "post":
		msg.Content, msg.ImageKeys = parsePostContent(content, msg.MentionMap)
	default:
		return false
	}
	return true
}

// parseTextContent extracts text from a text message
// It also replaces mention placeholders (@_user_1) with real names
func parseTextContent(content string, mentionMap map[string]string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return replaceMentions(parsed.Text, mentionMap)
}

// parseImageContent extracts image key from an image message
func parseImageContent(content string) []string {
	var parsed struct {
		ImageKey string `json:"image_key"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || parsed.ImageKey == "" {
		return nil
	}
	return []string{parsed.ImageKey}
}

// parseFileContent extracts file key from a file message
func parseFileContent(content string) []string {
	var parsed struct {
		FileKey string `json:"file_key"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || parsed.FileKey == "" {
		return nil
	}
	return []string{parsed.FileKey}
}

// parsePostContent extracts text and images from a rich text message
func parsePostContent(content string, mentionMap map[string]string) (string, []string) {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag      string `json:"tag"`
			Text     string `json:"text,omitempty"`
			ImageKey string `json:"image_key,omitempty"`
			UserID   string `json:"user_id,omitempty"` // for "at" tags
		} `json:"content"`
	}

	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", nil
	}

	var textParts []string
	var imageKeys []string

	if parsed.Title != "" {
		textParts = append(textParts, parsed.Title)
	}

	for _, line := range parsed.Content {
		var lineParts []string
		for _, elem := range line {
			switch elem.Tag {
			case "text":
				if elem.Text != "" {
					lineParts = append(lineParts, elem.Text)
				}
			case "at":
				if elem.UserID != "" {
					if name, ok := mentionMap[elem.UserID]; ok {
						lineParts = append(lineParts, "@"+name)
					} else {
						lineParts = append(lineParts, "@"+elem.UserID)
					}
				}
			case "img":
				if elem.ImageKey != "" {
					imageKeys = append(imageKeys, elem.ImageKey)
				}
			}
		}
		if len(lineParts) > 0 {
			textParts = append(textParts, strings.Join(lineParts, ""))
		}
	}

	return replaceMentions(strings.Join(textParts, "\n"), mentionMap), imageKeys
}

// replaceMentions replaces mention placeholders (@_user_1, @_user_2, etc.) with real names.
// Longer keys are tried first so @_user_1 never matches inside @_user_10.
func replaceMentions(text string, mentionMap map[string]string) string {
	if len(mentionMap) == 0 {
		return text
	}

	keys := make([]string, 0, len(mentionMap))
	for key := range mentionMap {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, key, "@"+mentionMap[key])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
