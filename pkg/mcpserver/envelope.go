// Package mcpserver exposes the recall core over an MCP stdio transport:
// seven tools (spec §6) wrapping the unstructured memory client. Built
// on github.com/modelcontextprotocol/go-sdk.
package mcpserver

// Envelope is the uniform {success, data?, error?} response every tool
// returns (§6, §7: "the MCP handler layer wraps every exception").
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(data any) Envelope  { return Envelope{Success: true, Data: data} }
func fail(msg string) Envelope { return Envelope{Success: false, Error: msg} }

// AddIn is the input shape for recall_add.
type AddIn struct {
	Text     string `json:"text"`
	UserID   string `json:"userId,omitempty"`
	Source   string `json:"source,omitempty"`
	SourceID string `json:"sourceId,omitempty"`
}

// QueryIn is the input shape for recall_query.
type QueryIn struct {
	Query     string   `json:"query"`
	UserID    string   `json:"userId,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// ListIn is the input shape for recall_list.
type ListIn struct {
	UserID string `json:"userId,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// GetIn is the input shape for recall_get.
type GetIn struct {
	ID string `json:"id"`
}

// UpdateIn is the input shape for recall_update.
type UpdateIn struct {
	ID       string            `json:"id"`
	Content  *string           `json:"content,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DeleteIn is the input shape for recall_delete.
type DeleteIn struct {
	ID string `json:"id"`
}

// ClearIn is the input shape for recall_clear.
type ClearIn struct {
	UserID string `json:"userId,omitempty"`
}
