package domain

// SourceType distinguishes how a media source arrived in the request.
type SourceType string

// Source type constants.
const (
	SourceUpload SourceType = "upload"
	SourceURL    SourceType = "url"
)

// MediaSource identifies one requested video: either an uploaded blob
// already streamed to scratch, or a remote URL. Name is the user-facing
// display name (original filename or resolved remote title).
type MediaSource struct {
	Type SourceType
	Name string
	URL  string
}

// ItemState tracks a work item through the pipeline. Exactly one terminal
// state per item: StateSummarized or StateFailed.
type ItemState int

// Pipeline states in stage order.
const (
	StatePending ItemState = iota
	StateAcquired
	StateTranscribing
	StateTranscribed
	StateSummarizing
	StateSummarized
	StateFailed
)

var stateNames = map[ItemState]string{
	StatePending:      "pending",
	StateAcquired:     "acquired",
	StateTranscribing: "transcribing",
	StateTranscribed:  "transcribed",
	StateSummarizing:  "summarizing",
	StateSummarized:   "summarized",
	StateFailed:       "failed",
}

func (s ItemState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return "unknown"
}

// Transcript is the plain-text speech content of one video plus its
// whitespace-token length, used to decide summarization chunking.
type Transcript struct {
	Text   string
	Tokens int
}

// ScoreDetails is the per-summary diagnostic breakdown produced by the
// comparator alongside the composite score.
type ScoreDetails struct {
	Semantic    float64 `json:"semantic"`
	Coverage    float64 `json:"coverage"`
	Conciseness float64 `json:"conciseness"`
	Final       float64 `json:"final"`
	Words       int     `json:"words"`
}

// SummaryResult holds the summary text for one video together with its
// scoring diagnostics once the comparator has run.
type SummaryResult struct {
	Summary string       `json:"summary"`
	Details ScoreDetails `json:"details"`
}

// WorkItem is one media source plus its mutable pipeline state. Owned
// exclusively by the orchestrator for the lifetime of one request and never
// shared across requests.
type WorkItem struct {
	Source MediaSource
	Index  int // original submission position

	State      ItemState
	LocalPath  string
	Transcript Transcript
	Result     SummaryResult
	Err        error // terminal failure, nil unless State == StateFailed
}

// ScoredVideo is one succeeded entry in the final report, in original
// submission order.
type ScoredVideo struct {
	Name    string       `json:"name"`
	Summary string       `json:"summary"`
	Score   float64      `json:"score"`
	Details ScoreDetails `json:"details"`
}

// SkippedVideo is one failed entry in the final report with a
// human-readable reason.
type SkippedVideo struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error"`
}

// ComparisonReport is the full outcome of one comparison request. Every
// original media source appears in exactly one of Videos or Skipped, and
// Videos preserves the original submission order.
type ComparisonReport struct {
	Topic     string         `json:"topic"`
	Videos    []ScoredVideo  `json:"videos"`
	Skipped   []SkippedVideo `json:"skipped"`
	BestVideo string         `json:"best_video"`
}
