package elastic

import "encoding/json"

// Wire shapes of the engine's search response. Only what the pipeline needs
// is decoded; the rest of the envelope is ignored.

type totalHits struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

type hitEnvelope struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

type hitsEnvelope struct {
	Total    totalHits     `json:"total"`
	MaxScore float64       `json:"max_score"`
	Hits     []hitEnvelope `json:"hits"`
}

type searchEnvelope struct {
	Took     float64      `json:"took"`
	TimedOut bool         `json:"timed_out"`
	Hits     hitsEnvelope `json:"hits"`
}
