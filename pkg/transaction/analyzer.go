package transaction

import "fmt"

// Analysis is the result of scoring a transaction's privacy features.
type Analysis struct {
	// Score is 0..100, the sum of the weights of the features present.
	Score int
	// Details names each feature and whether it was found.
	Details []string
}

// Analyze scores which privacy primitives are structurally present in the
// transaction. It inspects shape only, never secret values, and it is
// advisory: it says what the transaction uses, not whether it verifies.
// Never use it in place of Verify.
func Analyze(tx *Transaction) *Analysis {
	a := &Analysis{}
	if tx == nil {
		a.Details = append(a.Details, "no transaction")
		return a
	}

	hidden := len(tx.Outputs) > 0
	ranged := len(tx.Outputs) > 0
	stealthy := len(tx.Outputs) > 0
	for _, out := range tx.Outputs {
		if out == nil || out.Commitment == nil {
			hidden = false
		}
		if out == nil || out.RangeProof == nil {
			ranged = false
		}
		if out == nil || out.StealthAddress == nil || out.StealthAddress.Address == "" {
			stealthy = false
		}
	}

	if hidden {
		a.Score += 30
		a.Details = append(a.Details, "amounts hidden behind commitments (+30)")
	} else {
		a.Details = append(a.Details, "outputs missing amount commitments")
	}
	if ranged {
		a.Score += 25
		a.Details = append(a.Details, fmt.Sprintf("range proofs on all %d outputs (+25)", len(tx.Outputs)))
	} else {
		a.Details = append(a.Details, "outputs missing range proofs")
	}
	if stealthy {
		a.Score += 25
		a.Details = append(a.Details, "one-time stealth addresses for all recipients (+25)")
	} else {
		a.Details = append(a.Details, "recipients not behind stealth addresses")
	}
	if tx.BalanceProof != nil {
		a.Score += 20
		a.Details = append(a.Details, "aggregate balance proof present (+20)")
	} else {
		a.Details = append(a.Details, "no balance proof")
	}
	return a
}
