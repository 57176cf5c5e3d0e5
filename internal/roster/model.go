package roster

// Participant is one roster row.
type Participant struct {
	ID      string `json:"participantId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Row is a parsed roster line. Err is set when the line could not be turned
// into a Participant; the batch skips such rows instead of aborting.
type Row struct {
	Line        int
	Participant Participant
	Err         error
}
