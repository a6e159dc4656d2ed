package credit

// Balance holds the two credit pools of an account after a ledger operation.
type Balance struct {
	Credit int64 // regular, replenished each billing period
	Bonus  int64 // one-time purchases and promotions, never negative
}

// Total returns the spendable amount across both pools.
func (b Balance) Total() int64 {
	return max(b.Credit, 0) + max(b.Bonus, 0)
}

// Consume deducts amount from the balance, drawing from regular credit first
// and covering any shortfall from bonus credit. Bonus credit is floored at
// zero; any shortfall beyond it is silently dropped.
//
// All inputs are clamped to non-negative before computing, so the function is
// total for all integer inputs. A non-positive amount returns the clamped
// inputs unchanged. Note the clamping means a pre-existing negative regular
// balance is invisible here; the refresh policy is what absorbs deficits.
func Consume(credit, bonus, amount int64) Balance {
	safeCredit := max(credit, 0)
	safeBonus := max(bonus, 0)
	if amount <= 0 {
		return Balance{Credit: safeCredit, Bonus: safeBonus}
	}

	if safeCredit >= amount {
		return Balance{Credit: safeCredit - amount, Bonus: safeBonus}
	}

	// Regular credit exhausted; the remainder comes out of bonus.
	shortfall := amount - safeCredit
	return Balance{Credit: 0, Bonus: max(safeBonus-shortfall, 0)}
}

// HasEnough reports whether the combined clamped balances cover required.
func HasEnough(credit, bonus, required int64) bool {
	return max(credit, 0)+max(bonus, 0) >= required
}
