package core

// Classify returns the settlement bucket of a transaction.
//
// Payout status takes precedence: a paid transaction is always in the paid
// bucket whatever its lifecycle status says.
func Classify(tx Transaction) Bucket {
	if tx.PayoutStatus.IsPaid() {
		return BucketPaid
	}
	switch tx.Status {
	case LifecycleSettledInBank, LifecycleSettled:
		return BucketReadyToSettle
	case LifecyclePending:
		return BucketInGateway
	default:
		// Unknown lifecycle values are treated as still held by the gateway.
		return BucketInGateway
	}
}

// Bucket is shorthand for Classify(tx).
func (tx Transaction) Bucket() Bucket {
	return Classify(tx)
}

// Consistent checks the data-model invariant that a paid transaction has
// settled. A violation does not change classification; it points to a
// backend contract problem.
func (tx Transaction) Consistent() error {
	if tx.PayoutStatus.IsPaid() && !tx.Status.IsSettled() {
		return ErrPaidBeforeSettled
	}
	return nil
}
