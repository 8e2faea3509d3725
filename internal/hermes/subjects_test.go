package hermes

import (
	"strings"
	"testing"
)

func TestSubjectsWithinStream(t *testing.T) {
	prefix := strings.TrimSuffix(StreamSubjects, ">")
	subjects := []string{
		SubjectScoringRequest,
		SubjectSupplierScored("r1"),
		SubjectSupplierFailed("r1"),
		SubjectAIDegraded("r1"),
		SubjectBatchCompleted("rfp1"),
	}
	for _, s := range subjects {
		if !strings.HasPrefix(s, prefix) {
			t.Errorf("subject %q not captured by stream %q", s, StreamSubjects)
		}
	}
}

func TestSubjectFormats(t *testing.T) {
	tests := []struct{ got, want string }{
		{SubjectSupplierScored("abc"), "rfp.scoring.abc.scored"},
		{SubjectSupplierFailed("abc"), "rfp.scoring.abc.failed"},
		{SubjectAIDegraded("abc"), "rfp.scoring.abc.ai.degraded"},
		{SubjectBatchCompleted("xyz"), "rfp.scoring.xyz.batch.completed"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %s, got %s", tt.want, tt.got)
		}
	}
}
