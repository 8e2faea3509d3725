package hermes

const (
	SubjectScoringRequest = "rfp.scoring.request"

	StreamName     = "TENDER_SCORING"
	StreamSubjects = "rfp.scoring.>"
	StreamMaxAge   = "720h" // 30 days

	// QueueGroup spreads score requests across service instances.
	QueueGroup = "tender-scoring"
)

func SubjectSupplierScored(responseID string) string { return "rfp.scoring." + responseID + ".scored" }
func SubjectSupplierFailed(responseID string) string { return "rfp.scoring." + responseID + ".failed" }
func SubjectAIDegraded(responseID string) string     { return "rfp.scoring." + responseID + ".ai.degraded" }
func SubjectBatchCompleted(rfpID string) string      { return "rfp.scoring." + rfpID + ".batch.completed" }
