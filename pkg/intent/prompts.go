package intent

import (
	"fmt"
	"strings"

	"github.com/recallmem/recall/internal/structstore"
)

// intentSystemPrompt carries the rule contract of §4.F in worked-example
// form, terse by design.
const intentSystemPrompt = `You classify one user utterance against a set of declared structured-memory schemas.

Return a JSON object with this exact structure:
{
  "matched": true|false,
  "schema": "name of the matched schema, omitted if not matched",
  "confidence": 0.0-1.0,
  "reason": "brief reason for the classification",
  "intent": "insert" | "query" | "update" | "delete" | "none",
  "data": [{"field": "...", "value": "...", "type": "..."}],
  "query": "the user's question, verbatim, for intent=query",
  "matchCriteria": {"field": "...", "value": "...", "recency": "most_recent"|"today"|"this_week"|"any"},
  "updateData": [{"field": "...", "value": "...", "type": "..."}]
}

Rules:
- insert: a concrete past or present event the user performed. Extract every field the schema declares that is present in the text.
- query: an interrogative about previously stored data. Echo the user's question verbatim into "query".
- update: correction cues such as "actually", "not X but Y", "change X to Y". Return matchCriteria identifying the row and updateData with only the changed fields.
- delete: removal cues such as "delete", "remove", "cancel", "forget". Return matchCriteria only.
- none: intentions, opinions, third-person statements, or anything that does not fit a declared schema.
- When more than one schema could match (e.g. a monetary transaction described alongside a fitness activity), prefer the schema whose description centers on the concrete tracked event — a payment mentioning a workout is still a payment; a workout mentioning a person but no payment is still a workout.
- Every value in "data" and "updateData" is a string, tagged with its field's declared type; never emit anything but a string for "value".`

func buildIntentPrompt(text string, schemas []structstore.SchemaDef, today string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today's date: %s\n\n", today)
	b.WriteString("Declared schemas:\n")
	for _, s := range schemas {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
		for _, f := range s.Fields {
			req := "optional"
			if f.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "    %s (%s, %s): %s\n", f.Name, f.Type, req, f.Description)
		}
	}
	fmt.Fprintf(&b, "\nUtterance: %s\n", text)
	return b.String()
}
