package credits

// SeedBalance is a test helper that sets the balance for a user when using
// the in-memory ledger, without recording a transaction.
func SeedBalance(l Ledger, userID string, amount int64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		acc := mem.accountFor(userID)
		acc.mu.Lock()
		defer acc.mu.Unlock()
		acc.balance = amount
	}
}
