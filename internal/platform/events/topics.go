package events

// Topic names for the six domain events SPEC_FULL.md §6 names.
const (
	TopicAccountCreated             = "banking.accounts.created"
	TopicBalanceUpdated             = "banking.accounts.balance-updated"
	TopicDepositCompleted           = "banking.transactions.deposit-completed"
	TopicWithdrawalCompleted        = "banking.transactions.withdrawal-completed"
	TopicTransferCompleted          = "banking.transactions.transfer-completed"
	TopicTransferNeedsReconciliation = "banking.transactions.transfer-needs-reconciliation"
)

// AllTopics lists every topic this module publishes to, for provisioning.
func AllTopics() []string {
	return []string{
		TopicAccountCreated,
		TopicBalanceUpdated,
		TopicDepositCompleted,
		TopicWithdrawalCompleted,
		TopicTransferCompleted,
		TopicTransferNeedsReconciliation,
	}
}
