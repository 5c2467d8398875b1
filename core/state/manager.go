package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"tandachain/core/types"
	"tandachain/storage"
)

var (
	// ErrInsufficientBalance marks transfers exceeding the source balance.
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	// ErrNegativeAmount marks transfers with a negative amount.
	ErrNegativeAmount = errors.New("state: negative amount")
)

// Manager mediates all reads and writes against the backing key-value store.
// Records are RLP encoded under deterministic keys so external indexers can
// recompute any address without a directory. Account mutations are guarded by
// a single mutex: the ledger discipline is single-writer-at-a-time per
// account, and the coarse lock keeps concurrent callers from interleaving a
// read-modify-write.
type Manager struct {
	db storage.Database
	mu sync.Mutex
}

// NewManager wraps the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("account/%x", addr))
}

// KVPut RLP-encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// KVGet decodes the record stored under key into out. The boolean reports
// whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVHas reports whether a record exists under key. Existence checks back the
// insert-if-absent semantics used for duplicate detection (votes, members).
func (m *Manager) KVHas(key []byte) (bool, error) {
	return m.db.Has(key)
}

// GetAccount loads the balance record for addr, returning a zeroed account
// when none exists yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	var stored storedAccount
	ok, err := m.KVGet(accountKey(addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	return &types.Account{Nonce: stored.Nonce, Balance: storedBalance(stored.Balance)}, nil
}

// PutAccount persists the balance record for addr.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	account = types.Ensure(account)
	if account.Balance.Sign() < 0 {
		return ErrNegativeAmount
	}
	stored := storedAccount{Nonce: account.Nonce, Balance: new(big.Int).Set(account.Balance)}
	return m.KVPut(accountKey(addr), &stored)
}

// Transfer moves amount from one account to another, atomically from the
// caller's perspective: it either debits and credits both records or leaves
// both untouched.
func (m *Manager) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fromAcc, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toAcc, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := m.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return m.PutAccount(to, toAcc)
}

// Credit mints amount into addr. Used for genesis funding and by the opaque
// external yield source when accrued yield enters the ledger.
func (m *Manager) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return m.PutAccount(addr, account)
}

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

func storedBalance(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
