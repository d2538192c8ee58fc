package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/solacebot/solace/internal/store"
)

func TestRenderPromptAnonymousDefaults(t *testing.T) {
	got := renderPrompt(store.UserProfile{}, false, nil, "some reference text", "I feel stuck")

	for _, want := range []string{
		"- Name: User",
		"- Gender: Unknown",
		"- Age: Unknown",
		"- User since: Unknown",
		`"""some reference text"""`,
		`"""I feel stuck"""`,
		"Answer:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q\nprompt:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Recent conversations:") {
		t.Error("empty history should omit the recent conversations block")
	}
}

func TestRenderPromptProfileAndHistory(t *testing.T) {
	profile := store.UserProfile{
		Name:     "Dana",
		Gender:   "female",
		Age:      31,
		JoinDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	records := []store.ConversationRecord{
		{
			UserID: "u1",
			Messages: []store.Turn{
				{Sender: store.SenderUser, Text: "I had a rough week"},
				{Sender: store.SenderBot, Text: "What made it rough?"},
			},
		},
	}

	got := renderPrompt(profile, true, records, "ref", "today was better")

	for _, want := range []string{
		"- Name: Dana",
		"- Age: 31",
		"- User since: 2025-01-02",
		"Recent conversations:",
		"user: I had a rough week",
		"bot: What made it rough?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q\nprompt:\n%s", want, got)
		}
	}
}

func TestRenderPromptCapsTurnsPerConversation(t *testing.T) {
	var turns []store.Turn
	for i := 0; i < 6; i++ {
		turns = append(turns, store.Turn{Sender: store.SenderUser, Text: "turn" + string(rune('0'+i))})
	}
	records := []store.ConversationRecord{{UserID: "u1", Messages: turns}}

	got := renderPrompt(store.UserProfile{}, false, records, "ref", "hi")

	if strings.Contains(got, "turn2") {
		t.Error("older turns beyond the cap should be dropped")
	}
	for _, want := range []string{"turn3", "turn4", "turn5"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing trailing turn %q", want)
		}
	}
}

func TestRenderPromptSectionOrder(t *testing.T) {
	got := renderPrompt(store.UserProfile{}, false, nil, "ref", "hi")

	order := []string{
		promptPreamble,
		"User Context:",
		"Previous Context:",
		"Relevant Information:",
		"Current message:",
		"Use ONLY the following format:",
	}
	pos := -1
	for _, section := range order {
		idx := strings.Index(got, section)
		if idx < 0 {
			t.Fatalf("prompt missing section %q", section)
		}
		if idx <= pos {
			t.Errorf("section %q out of order", section)
		}
		pos = idx
	}
}
