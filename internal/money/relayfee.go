package money

// RelayFee computes the Across relay fee added on top of the amount a
// business is to receive: max(amount * feePct, minBuffer). The fee rate
// feePctPermille is expressed in permille (3 == 0.3%).
func RelayFee(amount Money, feePctPermille int64, minBuffer Money) (Money, error) {
	pct, err := amount.MulFraction(feePctPermille, 1000)
	if err != nil {
		return Money{}, err
	}
	if pct.GreaterThan(minBuffer) {
		return pct, nil
	}
	return minBuffer, nil
}
