package facts

import (
	"fmt"
	"strings"
)

// extractionSystemPrompt enforces atomic, third-person, persistent facts.
// Narrowed to a single flat fact list with no fact-type taxonomy.
const extractionSystemPrompt = `You are a memory extraction system. Your task is to extract meaningful, persistent facts about the user from a conversation.

You must return a JSON object with this exact structure:
{
  "facts": [
    {"content": "The extracted fact, phrased in the third person"}
  ]
}

Extraction Rules:
1. Extract only EXPLICIT, persistent information — not assumptions, opinions about the world, or one-off remarks.
2. Each fact must be atomic: one self-contained statement per item.
3. Phrase every fact in the third person (e.g. "User works at Google", not "I work at Google").
4. The user's name is high priority — always extract it when stated.
5. Ignore greetings, pleasantries, and meta-conversation entirely.
6. If nothing worth remembering was said, return {"facts": []}.`

func buildExtractionPrompt(history []Message, latest Message) string {
	var b strings.Builder
	b.WriteString("Extract persistent facts from the following conversation. Focus on the latest message, using earlier turns only for context.\n\n")
	for _, m := range history {
		fmt.Fprintf(&b, "[%s]: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "[%s]: %s\n", latest.Role, latest.Content)
	return b.String()
}

// Message is one turn of conversation history supplied to Extract.
type Message struct {
	Role    string
	Content string
}

// consolidationSystemPrompt defines the four consolidation actions with
// worked examples, per spec §4.C / §8's decision-table tests.
const consolidationSystemPrompt = `You compare one new fact about a user against up to five existing memories and decide exactly one action.

Return a JSON object with this exact structure:
{
  "action": "ADD" | "UPDATE" | "DELETE" | "NONE",
  "id": "ordinal of the existing memory this action applies to, omitted for ADD",
  "content": "fact content, required for ADD and UPDATE"
}

Actions:
- ADD: the new fact is genuinely new information not covered by any existing memory. content is mandatory; id is omitted.
  Example: new fact "User works at Google", no existing memories → {"action":"ADD","content":"User works at Google"}
- UPDATE: the new fact enriches or corrects exactly one existing memory. id of that memory and the merged content are both mandatory.
  Example: new fact "User's name is John Doe", existing memory 0 "User's name is John" → {"action":"UPDATE","id":"0","content":"User's name is John Doe"}
- DELETE: the new fact contradicts or invalidates exactly one existing memory. Only id is required.
  Example: new fact "User no longer works at Google", existing memory 0 "User works at Google" → {"action":"DELETE","id":"0"}
- NONE: the new fact is a semantic duplicate of an existing memory; nothing changes.
  Example: new fact "User's name is John", existing memory 0 "User's name is John" → {"action":"NONE"}

id always refers to the ordinal position of an existing memory in the list below (0, 1, 2, ...), never to any identifier embedded in its content.`

func buildConsolidationPrompt(newFact string, neighbours []Neighbour) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New fact: %s\n\nExisting memories:\n", newFact)
	if len(neighbours) == 0 {
		b.WriteString("(none)\n")
	}
	for _, n := range neighbours {
		fmt.Fprintf(&b, "%s: %s\n", n.Ordinal, n.Content)
	}
	return b.String()
}
