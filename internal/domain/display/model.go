package display

// Worklist entry sources.
const (
	SourceBed   = "bed"
	SourceQueue = "queue"
)

// Severity ranks used for entries without a triage level: occupied beds
// without an ESI sort as 6, waiting queue entries as 7 (lowest priority).
const (
	SeverityUntriaged = 6
	SeverityQueued    = 7
)

// QueueWaitingStatus is the status text shown for patients still waiting to
// be called.
const QueueWaitingStatus = "รอเรียกคิว"

// Entry is one row of the public worklist: either an occupied bed's open
// episode or a waiting queue ticket.
type Entry struct {
	HN        string  `json:"hn"`
	BedNumber *string `json:"bed_number"`
	Status    string  `json:"status"`
	ESILevel  int     `json:"esi_level"`
	Source    string  `json:"source"`
}
