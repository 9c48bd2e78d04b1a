package auditlog

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
)

const verifyBatchSize = 1000

// VerifyResult represents the outcome of verifying the whole hash chain.
type VerifyResult struct {
	Intact      bool      `json:"intact"`
	Checked     int64     `json:"checked"`
	BrokenAtSeq int64     `json:"broken_at_seq,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	VerifiedAt  time.Time `json:"verified_at"`
}

// VerifyHandler handles the VerifyAuditChain query.
type VerifyHandler struct {
	repo auditlog.Repository
}

// NewVerifyHandler creates a new VerifyHandler.
func NewVerifyHandler(repo auditlog.Repository) *VerifyHandler {
	return &VerifyHandler{repo: repo}
}

// Handle walks the chain from the first log in batches.
func (h *VerifyHandler) Handle(ctx context.Context) (*VerifyResult, error) {
	var (
		afterSeq int64
		prevHash string
		checked  int64
	)

	for {
		logs, err := h.repo.ListRange(ctx, afterSeq, verifyBatchSize)
		if err != nil {
			return nil, err
		}
		if len(logs) == 0 {
			break
		}

		res := auditlog.VerifyChain(logs, prevHash)
		checked += res.Checked
		if !res.Intact() {
			log.Error().Int64("seq", res.BrokenAtSeq).Str("reason", res.Reason).Msg("Audit chain broken")
			return &VerifyResult{
				Checked:     checked,
				BrokenAtSeq: res.BrokenAtSeq,
				Reason:      res.Reason,
				VerifiedAt:  time.Now().UTC(),
			}, nil
		}

		prevHash = res.LastHash
		afterSeq = logs[len(logs)-1].Seq()
		if len(logs) < verifyBatchSize {
			break
		}
	}

	return &VerifyResult{Intact: true, Checked: checked, VerifiedAt: time.Now().UTC()}, nil
}
