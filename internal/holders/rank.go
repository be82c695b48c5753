package holders

import (
	"sort"

	"github.com/shopspring/decimal"

	"solana-holder-flow/internal/domain"
)

// RawAccount is a decoded token account during a snapshot build.
type RawAccount = domain.RawTokenAccount

// TopAccounts drops zero balances and returns the n largest accounts,
// largest first. Ties are ordered by address.
func TopAccounts(accounts []RawAccount, n int) []RawAccount {
	nonZero := make([]RawAccount, 0, len(accounts))
	for _, acc := range accounts {
		if acc.RawAmount > 0 {
			nonZero = append(nonZero, acc)
		}
	}

	sort.SliceStable(nonZero, func(i, j int) bool {
		if nonZero[i].RawAmount != nonZero[j].RawAmount {
			return nonZero[i].RawAmount > nonZero[j].RawAmount
		}
		return nonZero[i].Address < nonZero[j].Address
	})

	if n > 0 && len(nonZero) > n {
		nonZero = nonZero[:n]
	}
	return nonZero
}

// Total sums the balances of accounts.
func Total(accounts []RawAccount) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range accounts {
		total = total.Add(acc.Amount)
	}
	return total
}

// Rank groups resolved accounts by owner and returns one wallet per owner,
// ranked by combined balance, with share = balance / total * 100 rounded to
// two decimals.
func Rank(resolved []RawAccount, total decimal.Decimal) []*domain.MonitoredWallet {
	byOwner := make(map[string]*domain.MonitoredWallet, len(resolved))
	order := make([]*domain.MonitoredWallet, 0, len(resolved))
	for _, acc := range resolved {
		w, ok := byOwner[acc.Owner]
		if !ok {
			w = &domain.MonitoredWallet{Address: acc.Owner, Balance: decimal.Zero}
			byOwner[acc.Owner] = w
			order = append(order, w)
		}
		w.Balance = w.Balance.Add(acc.Amount)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Balance.GreaterThan(order[j].Balance)
	})

	for i, w := range order {
		w.Rank = i + 1
		w.SharePct = SharePct(w.Balance, total)
	}
	return order
}

// SharePct returns balance / total * 100 rounded to two decimals, or zero
// when total is zero.
func SharePct(balance, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return balance.Div(total).Mul(hundred).Round(2)
}
