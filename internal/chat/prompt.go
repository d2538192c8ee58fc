package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/solacebot/solace/internal/store"
)

// turnsPerConversation caps how many trailing turns of each stored
// conversation are rendered into the prompt.
const turnsPerConversation = 3

const promptPreamble = "You are an empathetic AI therapist helping users process emotions."

const promptFormatInstruction = `Use ONLY the following format:
Answer: <empathetic response that acknowledges user context and history>

Do not include Q: or anything outside the format.`

// buildPrompt assembles the context-aware generation prompt from the user's
// profile, their recent stored conversations, the retrieved reference text
// and the current message. Store failures degrade to an anonymous prompt
// rather than failing the turn.
func (s *Service) buildPrompt(ctx context.Context, userID, input, retrieved string) string {
	var profile store.UserProfile
	profileFound := false
	if p, found, err := s.store.FindUser(ctx, userID); err != nil {
		log.Printf("chat: user lookup failed for %s: %v", userID, err)
	} else if found {
		profile = p
		profileFound = true
	}

	records, err := s.store.RecentConversations(ctx, userID, s.historyLimit)
	if err != nil {
		log.Printf("chat: history lookup failed for %s: %v", userID, err)
		records = nil
	}

	return renderPrompt(profile, profileFound, records, retrieved, input)
}

func renderPrompt(profile store.UserProfile, profileFound bool, records []store.ConversationRecord, retrieved, input string) string {
	name := "User"
	gender := "Unknown"
	age := "Unknown"
	since := "Unknown"
	if profileFound {
		if strings.TrimSpace(profile.Name) != "" {
			name = profile.Name
		}
		if strings.TrimSpace(profile.Gender) != "" {
			gender = profile.Gender
		}
		if profile.Age > 0 {
			age = fmt.Sprintf("%d", profile.Age)
		}
		if !profile.JoinDate.IsZero() {
			since = profile.JoinDate.Format("2006-01-02")
		}
	}

	var history strings.Builder
	if len(records) > 0 {
		history.WriteString("\nRecent conversations:\n")
		for _, rec := range records {
			turns := rec.Messages
			if len(turns) > turnsPerConversation {
				turns = turns[len(turns)-turnsPerConversation:]
			}
			for _, turn := range turns {
				fmt.Fprintf(&history, "%s: %s\n", turn.Sender, turn.Text)
			}
		}
	}

	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nUser Context:\n")
	fmt.Fprintf(&b, "- Name: %s\n", name)
	fmt.Fprintf(&b, "- Gender: %s\n", gender)
	fmt.Fprintf(&b, "- Age: %s\n", age)
	fmt.Fprintf(&b, "- User since: %s\n", since)
	b.WriteString("\nPrevious Context:\n")
	b.WriteString(history.String())
	b.WriteString("\nRelevant Information:\n")
	fmt.Fprintf(&b, "\"\"\"%s\"\"\"\n", retrieved)
	b.WriteString("\nCurrent message:\n")
	fmt.Fprintf(&b, "\"\"\"%s\"\"\"\n\n", input)
	b.WriteString(promptFormatInstruction)

	return strings.TrimSpace(b.String())
}
