package out

import (
	"context"
	"fmt"
	"io"

	hclog "github.com/hashicorp/go-hclog"

	"studyhub/internal/modules/ledger/domain"
	ledgerout "studyhub/internal/modules/ledger/port/out"
	"studyhub/internal/platform/logging"
)

// WriterAcknowledger prints a one-line receipt per award, e.g. "+25 coins
// (focus_timer), balance 130". Zero-amount awards are only logged.
type WriterAcknowledger struct {
	out io.Writer
	log hclog.Logger
}

func NewWriterAcknowledger(out io.Writer, logger hclog.Logger) ledgerout.Acknowledger {
	return &WriterAcknowledger{out: out, log: logging.OrNull(logger).Named("ack")}
}

func (a *WriterAcknowledger) Acknowledge(_ context.Context, tx domain.Transaction, balance domain.Balance) {
	a.log.Debug("award acknowledged", "transaction_id", tx.ID, "amount", tx.Amount, "balance", balance.Amount)
	if tx.Amount == 0 || a.out == nil {
		return
	}
	fmt.Fprintf(a.out, "+%d coins (%s), balance %d\n", tx.Amount, tx.Source, balance.Amount)
}
