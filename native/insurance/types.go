package insurance

import "math/big"

// MemberStake is one member's position in a circle's backstop pool.
type MemberStake struct {
	Identity  [20]byte
	Amount    *big.Int
	Forfeited bool
	Returned  bool
}

// Pool is the per-circle backstop. TotalStaked covers the stakes currently
// held (not yet slashed or returned); ForfeitedTotal accumulates slashed
// stakes awaiting pro-rata distribution to the remaining members.
type Pool struct {
	CircleID       [32]byte
	TotalStaked    *big.Int
	ForfeitedTotal *big.Int
	Stakes         []MemberStake
}

// Clone returns a deep copy of the pool record.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := &Pool{
		CircleID:       p.CircleID,
		TotalStaked:    cloneBig(p.TotalStaked),
		ForfeitedTotal: cloneBig(p.ForfeitedTotal),
		Stakes:         make([]MemberStake, len(p.Stakes)),
	}
	for i, s := range p.Stakes {
		clone.Stakes[i] = MemberStake{
			Identity:  s.Identity,
			Amount:    cloneBig(s.Amount),
			Forfeited: s.Forfeited,
			Returned:  s.Returned,
		}
	}
	return clone
}

// stakeOf returns a pointer to the member's entry, if any.
func (p *Pool) stakeOf(identity [20]byte) *MemberStake {
	for i := range p.Stakes {
		if p.Stakes[i].Identity == identity {
			return &p.Stakes[i]
		}
	}
	return nil
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
