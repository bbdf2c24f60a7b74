package core

// BucketTotal is the count and amounts of the transactions in one bucket.
type BucketTotal struct {
	Count int
	Gross Money
	Net   Money
}

// Rollup is the per-merchant summary derived from its transactions.
type Rollup struct {
	Buckets          map[Bucket]BucketTotal
	TotalCount       int
	TotalCollected   Money // gross over all buckets
	TotalPaid        Money // net of paid transactions
	PendingPayout    Money // net of ready-to-settle transactions
	InGatewayBalance Money // gross of in-gateway transactions
}

// Summarize aggregates a merchant's transactions into a Rollup.
func Summarize(txs []Transaction) Rollup {
	r := Rollup{Buckets: make(map[Bucket]BucketTotal, 3)}
	for _, b := range AllBuckets() {
		r.Buckets[b] = BucketTotal{}
	}
	for _, tx := range txs {
		b := Classify(tx)
		bt := r.Buckets[b]
		bt.Count++
		bt.Gross = bt.Gross.Add(tx.AmountGross)
		bt.Net = bt.Net.Add(tx.AmountNet)
		r.Buckets[b] = bt

		r.TotalCount++
		r.TotalCollected = r.TotalCollected.Add(tx.AmountGross)
	}
	r.TotalPaid = r.Buckets[BucketPaid].Net
	r.PendingPayout = r.Buckets[BucketReadyToSettle].Net
	r.InGatewayBalance = r.Buckets[BucketInGateway].Gross
	return r
}

// Bucket returns the totals for b.
func (r Rollup) Bucket(b Bucket) BucketTotal {
	return r.Buckets[b]
}

// Reconciles reports whether bucket gross totals and counts add up to the overall totals.
func (r Rollup) Reconciles() bool {
	var sum Money
	count := 0
	for _, bt := range r.Buckets {
		sum = sum.Add(bt.Gross)
		count += bt.Count
	}
	return sum == r.TotalCollected && count == r.TotalCount
}

// Diff lists the backend rollup fields of m that disagree with r, by wire name.
func (r Rollup) Diff(m Merchant) []string {
	var out []string
	check := func(name string, ok bool) {
		if !ok {
			out = append(out, name)
		}
	}
	check("total_collected", m.TotalCollected == r.TotalCollected)
	check("total_paid", m.TotalPaid == r.TotalPaid)
	check("pending_payout", m.PendingPayout == r.PendingPayout)
	check("in_razorpay_balance", m.InGatewayBalance == r.InGatewayBalance)
	check("total_transactions", m.TotalTransactions == r.TotalCount)
	check("paid_transactions", m.PaidTransactions == r.Buckets[BucketPaid].Count)
	check("unpaid_transactions", m.UnpaidTransactions == r.Buckets[BucketReadyToSettle].Count)
	check("pending_transactions", m.PendingTransactions == r.Buckets[BucketInGateway].Count)
	return out
}

// GlobalTotals sums merchant rollups across the whole book.
type GlobalTotals struct {
	Merchants            int
	MerchantsWithPending int
	TotalCollected       Money
	TotalPaid            Money
	PendingPayout        Money
	InGatewayBalance     Money
	Transactions         int
	PaidTransactions     int
	UnpaidTransactions   int
	PendingTransactions  int
}

// Totals sums the rollups already carried by each merchant.
func Totals(merchants []Merchant) GlobalTotals {
	var g GlobalTotals
	for _, m := range merchants {
		g.Merchants++
		if m.HasPendingPayout {
			g.MerchantsWithPending++
		}
		g.TotalCollected = g.TotalCollected.Add(m.TotalCollected)
		g.TotalPaid = g.TotalPaid.Add(m.TotalPaid)
		g.PendingPayout = g.PendingPayout.Add(m.PendingPayout)
		g.InGatewayBalance = g.InGatewayBalance.Add(m.InGatewayBalance)
		g.Transactions += m.TotalTransactions
		g.PaidTransactions += m.PaidTransactions
		g.UnpaidTransactions += m.UnpaidTransactions
		g.PendingTransactions += m.PendingTransactions
	}
	return g
}

// Diff lists the fields of the backend stats that disagree with g, by wire name.
// in_our_bank is not compared: merchant rollups carry no gross figure for
// ready-to-settle funds.
func (g GlobalTotals) Diff(s Stats) []string {
	var out []string
	check := func(name string, ok bool) {
		if !ok {
			out = append(out, name)
		}
	}
	check("total_collected", s.TotalCollected == g.TotalCollected)
	check("total_transactions", s.TotalTransactions == g.Transactions)
	check("in_razorpay_balance", s.InGatewayBalance == g.InGatewayBalance)
	check("razorpay_pending_count", s.GatewayPendingCount == g.PendingTransactions)
	check("settled_to_us_count", s.SettledToUsCount == g.UnpaidTransactions)
	check("total_settled_to_merchants", s.TotalSettledToMerchants == g.TotalPaid)
	check("paid_to_merchants_count", s.PaidToMerchantsCount == g.PaidTransactions)
	return out
}
