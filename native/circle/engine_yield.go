package circle

import "math/big"

// External yield integration. The yield source is opaque: the engine only
// tracks the position balance and cumulative earnings, and attributes realized
// yield to members pro rata by stake.

// DepositToYield moves part of the escrow into the external yield position.
// Funds stay in the vault account; the escrow record tracks the split.
func (e *Engine) DepositToYield(circleID [32]byte, caller [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	if caller != c.Creator {
		return ErrNotAuthority
	}
	esc, err := e.loadEscrow(circleID)
	if err != nil {
		return err
	}
	deposit := cloneBig(amount)
	if deposit.Sign() <= 0 || esc.TotalAmount.Cmp(deposit) < 0 {
		return ErrInsufficientYield
	}
	esc.TotalAmount = new(big.Int).Sub(esc.TotalAmount, deposit)
	esc.YieldBalance = new(big.Int).Add(esc.YieldBalance, deposit)
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	e.emit(newYieldDepositedEvent(c, deposit))
	return nil
}

// WithdrawFromYield returns part of the yield position to the escrow proper.
func (e *Engine) WithdrawFromYield(circleID [32]byte, caller [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	if caller != c.Creator {
		return ErrNotAuthority
	}
	esc, err := e.loadEscrow(circleID)
	if err != nil {
		return err
	}
	withdraw := cloneBig(amount)
	if withdraw.Sign() <= 0 || esc.YieldBalance.Cmp(withdraw) < 0 {
		return ErrInsufficientYield
	}
	esc.YieldBalance = new(big.Int).Sub(esc.YieldBalance, withdraw)
	esc.TotalAmount = new(big.Int).Add(esc.TotalAmount, withdraw)
	return e.state.EscrowPut(esc)
}

// AccrueYield records yield reported by the external source and credits the
// vault with the accrued value.
func (e *Engine) AccrueYield(circleID [32]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	esc, err := e.loadEscrow(circleID)
	if err != nil {
		return err
	}
	accrued := cloneBig(amount)
	if accrued.Sign() <= 0 {
		return ErrInsufficientYield
	}
	vault := e.state.CircleVaultAddress(circleID)
	if err := e.state.Credit(vault, accrued); err != nil {
		return err
	}
	esc.YieldEarned = new(big.Int).Add(esc.YieldEarned, accrued)
	return e.state.EscrowPut(esc)
}

// DistributeYield pays accumulated yield to active members pro rata by stake,
// routing the yield fee to the treasury within the same operation. Rounding
// dust stays in the vault.
func (e *Engine) DistributeYield(circleID [32]byte, caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	c, err := e.loadCircle(circleID)
	if err != nil {
		return err
	}
	if caller != c.Creator {
		return ErrNotAuthority
	}
	esc, err := e.loadEscrow(circleID)
	if err != nil {
		return err
	}
	gross := cloneBig(esc.YieldEarned)
	if gross.Sign() <= 0 {
		return ErrInsufficientYield
	}
	fee := big.NewInt(0)
	if e.fees != nil {
		fee, err = e.fees.YieldFee(gross)
		if err != nil {
			return err
		}
	}
	net := new(big.Int).Sub(gross, fee)
	vault := e.state.CircleVaultAddress(circleID)
	// Note before transfer: the fee record is the operation's first mutation
	// so an uninitialized treasury fails it before any value moves.
	if fee.Sign() > 0 {
		if err := e.fees.NoteYieldFee(fee); err != nil {
			return err
		}
		if err := e.state.Transfer(vault, e.fees.TreasuryAddress(), fee); err != nil {
			return err
		}
	}
	totalStake := big.NewInt(0)
	type share struct {
		identity [20]byte
		stake    *big.Int
	}
	shares := make([]share, 0, len(c.Members))
	for _, identity := range c.Members {
		member, ok, err := e.state.MemberGet(circleID, identity)
		if err != nil {
			return err
		}
		if !ok || member.Status != MemberActive || member.Stake.Sign() <= 0 {
			continue
		}
		shares = append(shares, share{identity: identity, stake: member.Stake})
		totalStake = new(big.Int).Add(totalStake, member.Stake)
	}
	if totalStake.Sign() > 0 {
		for _, s := range shares {
			portion := new(big.Int).Mul(net, s.stake)
			portion = portion.Div(portion, totalStake)
			if portion.Sign() <= 0 {
				continue
			}
			if err := e.state.Transfer(vault, s.identity, portion); err != nil {
				return err
			}
		}
	}
	esc.YieldEarned = big.NewInt(0)
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	e.emit(newYieldDistributedEvent(c, net, fee))
	return nil
}
