package hermes

import "time"

// ScoreRequestEvent asks for a scoring run. With ResponseID set only that
// supplier is re-scored; otherwise every response on the RFP is.
type ScoreRequestEvent struct {
	RFPID       string `json:"rfp_id"`
	ResponseID  string `json:"response_id,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

type SupplierScoredEvent struct {
	RFPID           string    `json:"rfp_id"`
	ResponseID      string    `json:"response_id"`
	SupplierID      string    `json:"supplier_id"`
	Requirements    int       `json:"requirements"`
	WeightedTotal   float64   `json:"weighted_total"`
	FailedMustHaves int       `json:"failed_must_haves"`
	Disqualified    bool      `json:"disqualified"`
	Degraded        int       `json:"degraded"`
	GeneratedAt     time.Time `json:"generated_at"`
}

type SupplierFailedEvent struct {
	RFPID      string `json:"rfp_id"`
	ResponseID string `json:"response_id"`
	SupplierID string `json:"supplier_id,omitempty"`
	Error      string `json:"error"`
}

type AIDegradedEvent struct {
	RFPID         string   `json:"rfp_id"`
	ResponseID    string   `json:"response_id"`
	RequirementID string   `json:"requirement_id"`
	Reason        string   `json:"reason"`
	Models        []string `json:"models,omitempty"`
}

type BatchCompletedEvent struct {
	RFPID          string    `json:"rfp_id"`
	TotalSuppliers int       `json:"total_suppliers"`
	SuccessCount   int       `json:"success_count"`
	FailureCount   int       `json:"failure_count"`
	DurationMs     int64     `json:"duration_ms"`
	CompletedAt    time.Time `json:"completed_at"`
}
