package types

// Change describes one item edited by a modification request.
type Change struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// ModificationRecord is one entry of a session's modification history.
type ModificationRecord struct {
	Request   string   `json:"request"`
	Changes   []Change `json:"changes"`
	Timestamp string   `json:"timestamp"`
}

// ModificationResponse is the outcome of a modification request.
type ModificationResponse struct {
	ModifiedOutput *FinalDocument `json:"modified_output"`
	ChangesMade    []Change       `json:"changes_made"`
	Timestamp      string         `json:"timestamp"`
}

// QATurn is one question/answer exchange.
type QATurn struct {
	Q string `json:"q"`
	A string `json:"a"`
}
