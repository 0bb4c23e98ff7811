// Package orchestrator drives a dare from validated form to funded,
// backend-registered escrow: init → approval (skipped when allowance covers
// the amount) → fundBounty → register. Each step awaits the previous one;
// failures map to a typed taxonomy and the phase always resets to idle.
package orchestrator

import (
	"context"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"basedare-system/chain"
)

// Phase is the orchestrator's externally observable state. It only advances
// inside CreateDare, in order, so "verifying before funding" cannot happen.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseApproving
	PhaseFunding
	PhaseVerifying
)

func (p Phase) String() string {
	switch p {
	case PhaseApproving:
		return "approving"
	case PhaseFunding:
		return "funding"
	case PhaseVerifying:
		return "verifying"
	default:
		return "idle"
	}
}

// DareReceipt is what the backend returns once a dare is recorded.
type DareReceipt struct {
	DareID        string     `json:"dare_id"`
	ShortID       string     `json:"short_id"`
	OpenBounty    bool       `json:"is_open_bounty"`
	AwaitingClaim bool       `json:"awaiting_claim"`
	InviteLink    string     `json:"invite_link,omitempty"`
	ClaimDeadline *time.Time `json:"claim_deadline,omitempty"`
}

// InitResult holds the chain-call parameters issued by POST /api/bounties/init.
type InitResult struct {
	DareID          string `json:"dare_id"`
	OnChainDareID   int64  `json:"on_chain_dare_id"`
	TargetAddress   string `json:"target_address"`
	ReferrerAddress string `json:"referrer_address"`
}

// Backend is the dare API surface the orchestrator talks to.
type Backend interface {
	CreateSimulated(ctx context.Context, form *DareForm) (*DareReceipt, error)
	InitDare(ctx context.Context, form *DareForm) (*InitResult, error)
	RegisterFunding(ctx context.Context, dareID, txHash string) (*DareReceipt, error)
}

// EscrowChain is the slice of chain.Client the funding flow needs. Send errors
// carry chain.TxError classification; the orchestrator never inspects message
// text itself.
type EscrowChain interface {
	Allowance(ctx context.Context, owner common.Address) (*big.Int, error)
	Approve(ctx context.Context, amount *big.Int) (common.Hash, error)
	FundBounty(ctx context.Context, onChainDareID *big.Int, target, referrer common.Address, amount *big.Int) (common.Hash, error)
	WaitMined(ctx context.Context, txHash common.Hash) error
}

// Config is injected, not read from module globals, so both modes are
// exercisable in tests without touching the environment.
type Config struct {
	SimulationMode bool
	Owner          common.Address // the funding wallet
	TokenDecimals  int            // 6 for USDC
	ConfirmTimeout time.Duration  // per-tx mining wait; 0 = 3 minutes
}

// Summary distinguishes the three presentation states of a successful run.
type Summary struct {
	Simulated     bool       `json:"simulated"`
	OpenBounty    bool       `json:"is_open_bounty"`
	AwaitingClaim bool       `json:"awaiting_claim"`
	ShortID       string     `json:"short_id,omitempty"`
	InviteLink    string     `json:"invite_link,omitempty"`
	ClaimDeadline *time.Time `json:"claim_deadline,omitempty"`
	TxHash        string     `json:"tx_hash,omitempty"`
}

type Orchestrator struct {
	cfg     Config
	backend Backend
	chain   EscrowChain

	phase   Phase
	onPhase func(Phase) // optional observer, called on every transition
}

func New(cfg Config, backend Backend, escrow EscrowChain) *Orchestrator {
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 3 * time.Minute
	}
	if cfg.TokenDecimals == 0 {
		cfg.TokenDecimals = 6
	}
	return &Orchestrator{cfg: cfg, backend: backend, chain: escrow, phase: PhaseIdle}
}

// OnPhase registers an observer for phase transitions (progress UI, logging).
func (o *Orchestrator) OnPhase(fn func(Phase)) { o.onPhase = fn }

func (o *Orchestrator) Phase() Phase { return o.phase }

func (o *Orchestrator) setPhase(p Phase) {
	o.phase = p
	if o.onPhase != nil {
		o.onPhase(p)
	}
}

// AmountInUnits converts a display amount to the token's smallest unit.
// Validation rejects sub-cent precision, so scaling through cents keeps the
// conversion exact.
func AmountInUnits(amount float64, decimals int) *big.Int {
	cents := big.NewInt(int64(math.Round(amount * 100)))
	if decimals <= 2 {
		return cents
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals-2)), nil)
	return new(big.Int).Mul(cents, scale)
}

// CreateDare runs the full funding sequence. On any exit the phase is back at
// idle. Errors are *ValidationError or *FlowError.
func (o *Orchestrator) CreateDare(ctx context.Context, form *DareForm) (*Summary, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	defer o.setPhase(PhaseIdle)

	if o.cfg.SimulationMode {
		receipt, err := o.backend.CreateSimulated(ctx, form)
		if err != nil {
			return nil, &FlowError{Step: StepInit, Kind: FailInit, Err: err}
		}
		s := summaryFrom(receipt, "")
		s.Simulated = true
		return s, nil
	}

	// Init: nothing has moved yet, aborting here is fully safe.
	init, err := o.backend.InitDare(ctx, form)
	if err != nil {
		return nil, &FlowError{Step: StepInit, Kind: FailInit, Err: err}
	}

	amount := AmountInUnits(form.Amount, o.cfg.TokenDecimals)

	if err := o.ensureAllowance(ctx, amount); err != nil {
		return nil, err
	}

	txHash, err := o.fund(ctx, init, amount)
	if err != nil {
		return nil, err
	}

	// Register: past this point rollback is impossible, so a failure is the
	// desync class and must carry the tx hash out.
	o.setPhase(PhaseVerifying)
	receipt, err := o.backend.RegisterFunding(ctx, init.DareID, txHash.Hex())
	if err != nil {
		return nil, &FlowError{Step: StepRegister, Kind: FailRegistrationDesynced, TxHash: txHash.Hex(), Err: err}
	}

	return summaryFrom(receipt, txHash.Hex()), nil
}

// ensureAllowance skips the approve transaction entirely when the current
// allowance already covers the amount.
func (o *Orchestrator) ensureAllowance(ctx context.Context, amount *big.Int) error {
	o.setPhase(PhaseApproving)

	allowance, err := o.chain.Allowance(ctx, o.cfg.Owner)
	if err != nil {
		return &FlowError{Step: StepApprove, Kind: FailApprovalFailed, Err: err}
	}
	if allowance.Cmp(amount) >= 0 {
		return nil
	}

	txHash, err := o.chain.Approve(ctx, amount)
	if err != nil {
		kind := FailApprovalFailed
		if chain.IsRejected(err) {
			kind = FailApprovalCanceled
		}
		return &FlowError{Step: StepApprove, Kind: kind, Err: err}
	}

	waitCtx, cancel := context.WithTimeout(ctx, o.cfg.ConfirmTimeout)
	defer cancel()
	if err := o.chain.WaitMined(waitCtx, txHash); err != nil {
		return &FlowError{Step: StepApprove, Kind: FailApprovalFailed, TxHash: txHash.Hex(), Err: err}
	}
	return nil
}

func (o *Orchestrator) fund(ctx context.Context, init *InitResult, amount *big.Int) (common.Hash, error) {
	o.setPhase(PhaseFunding)

	target := common.HexToAddress(init.TargetAddress)
	referrer := common.HexToAddress(init.ReferrerAddress)

	txHash, err := o.chain.FundBounty(ctx, big.NewInt(init.OnChainDareID), target, referrer, amount)
	if err != nil {
		kind := FailFundingFailed
		if chain.IsRejected(err) {
			kind = FailFundingCanceled
		}
		return common.Hash{}, &FlowError{Step: StepFund, Kind: kind, Err: err}
	}

	waitCtx, cancel := context.WithTimeout(ctx, o.cfg.ConfirmTimeout)
	defer cancel()
	if err := o.chain.WaitMined(waitCtx, txHash); err != nil {
		return common.Hash{}, &FlowError{Step: StepFund, Kind: FailFundingFailed, TxHash: txHash.Hex(), Err: err}
	}
	return txHash, nil
}

func summaryFrom(r *DareReceipt, txHash string) *Summary {
	return &Summary{
		OpenBounty:    r.OpenBounty,
		AwaitingClaim: r.AwaitingClaim,
		ShortID:       r.ShortID,
		InviteLink:    r.InviteLink,
		ClaimDeadline: r.ClaimDeadline,
		TxHash:        txHash,
	}
}
