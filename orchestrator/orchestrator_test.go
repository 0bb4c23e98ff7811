package orchestrator

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"basedare-system/chain"
)

type stubBackend struct {
	initCalls     int
	simCalls      int
	registerCalls int

	initResult  *InitResult
	receipt     *DareReceipt
	initErr     error
	registerErr error
}

func (b *stubBackend) CreateSimulated(ctx context.Context, form *DareForm) (*DareReceipt, error) {
	b.simCalls++
	return b.receipt, nil
}

func (b *stubBackend) InitDare(ctx context.Context, form *DareForm) (*InitResult, error) {
	b.initCalls++
	if b.initErr != nil {
		return nil, b.initErr
	}
	return b.initResult, nil
}

func (b *stubBackend) RegisterFunding(ctx context.Context, dareID, txHash string) (*DareReceipt, error) {
	b.registerCalls++
	if b.registerErr != nil {
		return nil, b.registerErr
	}
	return b.receipt, nil
}

type stubChain struct {
	allowance *big.Int

	approveCalls int
	fundCalls    int

	approveErr error
	fundErr    error
	waitErr    error
}

func (s *stubChain) Allowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return s.allowance, nil
}

func (s *stubChain) Approve(ctx context.Context, amount *big.Int) (common.Hash, error) {
	s.approveCalls++
	if s.approveErr != nil {
		return common.Hash{}, s.approveErr
	}
	return common.HexToHash("0xaaaa"), nil
}

func (s *stubChain) FundBounty(ctx context.Context, id *big.Int, target, referrer common.Address, amount *big.Int) (common.Hash, error) {
	s.fundCalls++
	if s.fundErr != nil {
		return common.Hash{}, s.fundErr
	}
	return common.HexToHash("0xf00d"), nil
}

func (s *stubChain) WaitMined(ctx context.Context, txHash common.Hash) error {
	return s.waitErr
}

func newTestOrchestrator(backend *stubBackend, sc *stubChain, simulation bool) *Orchestrator {
	if backend.initResult == nil {
		backend.initResult = &InitResult{
			DareID:        "dare-1",
			OnChainDareID: 42,
			TargetAddress: "0x2222222222222222222222222222222222222222",
		}
	}
	if backend.receipt == nil {
		backend.receipt = &DareReceipt{DareID: "dare-1", ShortID: "eat-a-ghost-pepper-abc123"}
	}
	return New(Config{
		SimulationMode: simulation,
		Owner:          common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenDecimals:  6,
		ConfirmTimeout: time.Second,
	}, backend, sc)
}

func TestSkipApprovalWhenAllowanceSufficient(t *testing.T) {
	backend := &stubBackend{}
	sc := &stubChain{allowance: AmountInUnits(10000, 6)}
	o := newTestOrchestrator(backend, sc, false)

	summary, err := o.CreateDare(context.Background(), validForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.approveCalls != 0 {
		t.Fatalf("expected zero approve calls, got %d", sc.approveCalls)
	}
	if sc.fundCalls != 1 {
		t.Fatalf("expected one fund call, got %d", sc.fundCalls)
	}
	if summary.TxHash == "" {
		t.Fatal("expected tx hash in summary")
	}
}

func TestApprovalRunsWhenAllowanceShort(t *testing.T) {
	backend := &stubBackend{}
	sc := &stubChain{allowance: big.NewInt(0)}
	o := newTestOrchestrator(backend, sc, false)

	if _, err := o.CreateDare(context.Background(), validForm()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.approveCalls != 1 {
		t.Fatalf("expected one approve call, got %d", sc.approveCalls)
	}
}

func TestApprovalCancellationClassified(t *testing.T) {
	backend := &stubBackend{}
	sc := &stubChain{
		allowance:  big.NewInt(0),
		approveErr: chain.Classify(errors.New("User rejected the request")),
	}
	o := newTestOrchestrator(backend, sc, false)

	_, err := o.CreateDare(context.Background(), validForm())
	if err == nil {
		t.Fatal("expected error")
	}

	var fe *FlowError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FlowError, got %T", err)
	}
	if fe.Kind != FailApprovalCanceled {
		t.Fatalf("expected ApprovalCanceled, got %s", fe.Kind)
	}
	if !IsCanceled(err) {
		t.Fatal("IsCanceled should report true")
	}
	if o.Phase() != PhaseIdle {
		t.Fatalf("phase should reset to idle, got %s", o.Phase())
	}
	if sc.fundCalls != 0 {
		t.Fatal("funding must not run after a canceled approval")
	}
}

func TestFundingRejectionNotConfusedWithFailure(t *testing.T) {
	backend := &stubBackend{}
	sc := &stubChain{
		allowance: AmountInUnits(10000, 6),
		fundErr:   chain.Classify(errors.New("MetaMask Tx Signature: User denied transaction signature.")),
	}
	o := newTestOrchestrator(backend, sc, false)

	_, err := o.CreateDare(context.Background(), validForm())
	var fe *FlowError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FlowError, got %T", err)
	}
	if fe.Kind != FailFundingCanceled {
		t.Fatalf("expected FundingCanceled, got %s", fe.Kind)
	}
	if backend.registerCalls != 0 {
		t.Fatal("registration must not run after a canceled funding")
	}
}

func TestDesyncErrorCarriesTxHash(t *testing.T) {
	backend := &stubBackend{registerErr: errors.New("backend unavailable")}
	sc := &stubChain{allowance: AmountInUnits(10000, 6)}
	o := newTestOrchestrator(backend, sc, false)

	_, err := o.CreateDare(context.Background(), validForm())
	if !IsDesynced(err) {
		t.Fatalf("expected desync error, got %v", err)
	}

	var fe *FlowError
	errors.As(err, &fe)
	if fe.TxHash == "" {
		t.Fatal("desync error must carry the tx hash")
	}
	if !strings.Contains(err.Error(), fe.TxHash) {
		t.Fatalf("error text %q must contain the tx hash %s", err.Error(), fe.TxHash)
	}
	if o.Phase() != PhaseIdle {
		t.Fatalf("phase should reset to idle, got %s", o.Phase())
	}
}

func TestSimulationModeSkipsChainEntirely(t *testing.T) {
	backend := &stubBackend{}
	sc := &stubChain{allowance: big.NewInt(0)}
	o := newTestOrchestrator(backend, sc, true)

	summary, err := o.CreateDare(context.Background(), validForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.Simulated {
		t.Fatal("summary should be flagged simulated")
	}
	if sc.approveCalls != 0 || sc.fundCalls != 0 {
		t.Fatal("simulation mode must not touch the chain")
	}
	if backend.simCalls != 1 || backend.initCalls != 0 {
		t.Fatalf("expected one simulated create and no init, got sim=%d init=%d", backend.simCalls, backend.initCalls)
	}
}

func TestInitFailureAbortsBeforeChain(t *testing.T) {
	backend := &stubBackend{initErr: errors.New("503 from backend")}
	sc := &stubChain{allowance: AmountInUnits(10000, 6)}
	o := newTestOrchestrator(backend, sc, false)

	_, err := o.CreateDare(context.Background(), validForm())
	var fe *FlowError
	if !errors.As(err, &fe) || fe.Kind != FailInit {
		t.Fatalf("expected InitError, got %v", err)
	}
	if sc.approveCalls != 0 || sc.fundCalls != 0 {
		t.Fatal("no chain call may happen when init fails")
	}
}

func TestAwaitingClaimSummaryPassthrough(t *testing.T) {
	deadline := time.Now().Add(14 * 24 * time.Hour)
	backend := &stubBackend{
		receipt: &DareReceipt{
			DareID:        "dare-1",
			ShortID:       "dare-xyz",
			AwaitingClaim: true,
			InviteLink:    "https://basedare.example/claim?invite=tok",
			ClaimDeadline: &deadline,
		},
	}
	sc := &stubChain{allowance: AmountInUnits(10000, 6)}
	o := newTestOrchestrator(backend, sc, false)

	form := validForm()
	form.StreamerTag = "@newstreamer"
	summary, err := o.CreateDare(context.Background(), form)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.AwaitingClaim {
		t.Fatal("expected awaiting-claim summary")
	}
	if summary.InviteLink == "" || summary.ClaimDeadline == nil {
		t.Fatal("awaiting-claim summary must carry invite link and claim deadline")
	}
}

func TestPhaseTransitionsInOrder(t *testing.T) {
	backend := &stubBackend{}
	sc := &stubChain{allowance: big.NewInt(0)}
	o := newTestOrchestrator(backend, sc, false)

	var seen []Phase
	o.OnPhase(func(p Phase) { seen = append(seen, p) })

	if _, err := o.CreateDare(context.Background(), validForm()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Phase{PhaseApproving, PhaseFunding, PhaseVerifying, PhaseIdle}
	if len(seen) != len(want) {
		t.Fatalf("expected phases %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected phases %v, got %v", want, seen)
		}
	}
}

func TestAmountInUnits(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{5, "5000000"},
		{10000, "10000000000"},
		{4.99, "4990000"},
		{5.99, "5990000"},
		{0.5, "500000"},
	}
	for _, tc := range cases {
		got := AmountInUnits(tc.amount, 6)
		if got.String() != tc.want {
			t.Errorf("AmountInUnits(%v, 6) = %s, want %s", tc.amount, got, tc.want)
		}
	}
}
