package worker

import (
	"context"

	"github.com/zetahub/kryptonite/internal/helper"
	"github.com/zetahub/kryptonite/internal/smtp"
	"github.com/zetahub/kryptonite/internal/stream"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	Mailer      smtp.MailerInterface
	Helper      *helper.HelperRepository
	Ctx         context.Context
}

const (
	// transactionMailGroupID is used for workers that send transaction emails
	// to account owners
	transactionMailGroupID = "transaction-mail-group"

	// Topics
	// depositRequestedTopic carries events for newly submitted deposit claims
	depositRequestedTopic = "transaction.deposit.requested"

	// withdrawalRequestedTopic carries events for newly submitted withdrawal requests
	withdrawalRequestedTopic = "transaction.withdrawal.requested"

	// withdrawalAuthenticatedTopic carries events for withdrawals whose
	// one-time authentication code has been accepted
	withdrawalAuthenticatedTopic = "transaction.withdrawal.authenticated"
)

// Our workers typically need access to the kafka event stream and the mailer.
// Worker-specific dependencies can be passed as arguments to the worker.
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		Mailer:      wk.Mailer,
		Helper:      wk.Helper,
		Ctx:         wk.Ctx,
	}
}
