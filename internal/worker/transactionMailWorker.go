package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/zetahub/kryptonite/internal/handler"
	"github.com/zetahub/kryptonite/internal/stream"
)

// DepositRequestedWorker emails the account owner whenever a deposit claim
// has been submitted.
func (wk *Worker) DepositRequestedWorker() {
	wk.consumeTransactionEvents(depositRequestedTopic, "deposit-requested.tmpl")
}

// WithdrawalRequestedWorker emails the account owner whenever a withdrawal
// request has been submitted.
func (wk *Worker) WithdrawalRequestedWorker() {
	wk.consumeTransactionEvents(withdrawalRequestedTopic, "withdrawal-requested.tmpl")
}

// WithdrawalAuthenticatedWorker emails the account owner once their
// withdrawal has been authenticated with the one-time code.
func (wk *Worker) WithdrawalAuthenticatedWorker() {
	wk.consumeTransactionEvents(withdrawalAuthenticatedTopic, "withdrawal-authenticated.tmpl")
}

func (wk *Worker) consumeTransactionEvents(topic, templateFile string) {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: transactionMailGroupID,
		Topic:   topic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	for {
		event := consumer.Poll(100) // Poll every 100ms
		switch e := event.(type) {
		case *kafka.Message:
			message := e.Value
			log.Printf("Transaction message received on %s: %s\n", e.TopicPartition, string(e.Value))

			var transactionEvent handler.TransactionEvent
			err := json.Unmarshal(message, &transactionEvent)
			if err != nil {
				log.Printf("Error decoding transaction event: %v", err)
				continue
			}

			wk.sendTransactionMail(&transactionEvent, templateFile)
		case kafka.Error:
			log.Printf("Error: %v\n", e)
		default:
			// Handle other events if needed
		}
	}
}

func (wk *Worker) sendTransactionMail(event *handler.TransactionEvent, templateFile string) {
	emailData := wk.Helper.NewEmailData()
	emailData["Name"] = event.UserName
	emailData["Amount"] = event.Amount
	emailData["WalletType"] = event.WalletType
	emailData["Reference"] = event.Reference

	err := wk.Mailer.Send(event.UserEmail, emailData, templateFile)
	if err != nil {
		log.Printf("Error sending transaction email: %v", err)
	}
}
