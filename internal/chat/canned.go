package chat

import "strings"

// cannedReply pairs a trigger phrase with a fixed answer for the
// identity questions the assistant answers itself.
type cannedReply struct {
	Trigger string
	Reply   string
}

// cannedReplies is scanned top to bottom and the first trigger found
// anywhere in the lowercased message wins, so the order here is part of
// the API contract. Keep it a slice; a map would lose the ordering.
var cannedReplies = []cannedReply{
	{"who are you", "I am InVision, an AI assistant here to help you!"},
	{"what is your name", "My name is InVision, your AI assistant."},
	{"what are you", "I am InVision, an advanced AI assistant designed to assist you."},
	{"tell me about yourself", "I am InVision, an AI assistant created to provide information and support."},
	{"introduce yourself", "Hello! I am InVision, your AI assistant. How can I help you today?"},
}

// matchCanned returns the reply for the first trigger contained in the
// message. Matching is case-insensitive substring containment; the
// original casing is untouched for callers that forward the message.
func matchCanned(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, c := range cannedReplies {
		if strings.Contains(lower, c.Trigger) {
			return c.Reply, true
		}
	}
	return "", false
}
