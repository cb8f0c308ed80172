package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ResultStatus tells a webhook caller what happened to its callback
type ResultStatus string

const (
	ResultApplied   ResultStatus = "APPLIED"
	ResultDuplicate ResultStatus = "DUPLICATE"
	ResultOrphan    ResultStatus = "ORPHAN"
	ResultMismatch  ResultStatus = "MISMATCH"
)

// InitiateCommand asks for a gateway transaction against an obligation
type InitiateCommand struct {
	ObligationID   uuid.UUID
	Rail           payment.Rail
	PayerReference string
	Client         payment.ClientContext
}

// InitiateResult is the transaction the payer should complete
type InitiateResult struct {
	TransactionID        uuid.UUID       `json:"transaction_id"`
	GatewayTransactionID string          `json:"gateway_transaction_id"`
	RedirectURL          string          `json:"redirect_url,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Reused               bool            `json:"reused"`
}

// ReconcileCommand is a verified gateway callback
type ReconcileCommand struct {
	Rail                 payment.Rail
	GatewayTransactionID string
	Outcome              payment.Outcome
	Amount               decimal.Decimal
	Currency             string
	ProcessedAt          time.Time
}

// ReconcileResult reports the effect of a callback
type ReconcileResult struct {
	Status            ResultStatus              `json:"status"`
	TransactionID     *uuid.UUID                `json:"transaction_id,omitempty"`
	ObligationID      *uuid.UUID                `json:"obligation_id,omitempty"`
	TransactionStatus payment.TransactionStatus `json:"transaction_status,omitempty"`
	ObligationStatus  obligation.Status         `json:"obligation_status,omitempty"`
}

// ReconcilerConfig holds the collaborators and settings of a Reconciler
type ReconcilerConfig struct {
	UnitOfWork   shared.UnitOfWork
	Obligations  obligation.Repository
	Plans        splitplan.Repository
	Transactions payment.TransactionRepository
	Exceptions   payment.ExceptionRepository
	Gateways     GatewayRegistry
	Publisher    shared.EventPublisher
	Policy       *PolicyStore
	Metrics      Metrics
	Logger       *zap.Logger
	Clock        Clock

	// GatewayTimeout bounds one CreateTransaction call
	GatewayTimeout time.Duration
	// MaxDepositAttempts failed deposit transactions mark a split plan FAILED
	MaxDepositAttempts int
	// ConflictRetries is how often a lost optimistic write is retried
	ConflictRetries int
	// RetryInterval is the first backoff interval between conflict retries
	RetryInterval time.Duration
}

// Reconciler matches gateway transactions with obligations. It is the only
// writer that moves obligations to PAID.
type Reconciler struct {
	cfg    ReconcilerConfig
	logger *zap.Logger
	now    Clock
	group  singleflight.Group
}

// NewReconciler creates a Reconciler
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock
	}
	if cfg.Policy == nil {
		cfg.Policy = NewPolicyStore(obligation.FeePolicy{Type: obligation.FeePolicyNone})
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 30 * time.Second
	}
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 20 * time.Millisecond
	}
	return &Reconciler{
		cfg:    cfg,
		logger: cfg.Logger.Named("reconciler"),
		now:    cfg.Clock,
	}
}

// Initiate opens a gateway transaction for a payable obligation, or returns
// the PENDING one already open on the same rail. Concurrent calls for the
// same obligation and rail share one gateway request.
func (r *Reconciler) Initiate(ctx context.Context, cmd InitiateCommand) (*InitiateResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciler", "initiate",
		telemetry.WithAttribute("obligation_id", cmd.ObligationID.String()),
		telemetry.WithAttribute("rail", cmd.Rail.String()))
	defer span.End()

	if !cmd.Rail.IsValid() {
		return nil, shared.NewValidationError("unknown rail %q", cmd.Rail)
	}

	key := cmd.ObligationID.String() + ":" + cmd.Rail.String()
	v, err, collapsed := r.group.Do(key, func() (any, error) {
		return r.initiate(ctx, cmd)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		r.cfg.Metrics.RecordInitiate(ctx, cmd.Rail, errorLabel(err))
		return nil, err
	}

	res := *v.(*InitiateResult)
	if collapsed {
		res.Reused = true
	}
	result := "created"
	if res.Reused {
		result = "reused"
	}
	r.cfg.Metrics.RecordInitiate(ctx, cmd.Rail, result)
	return &res, nil
}

// errorLabel turns an error into a metric label
func errorLabel(err error) string {
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	return "error"
}

func (r *Reconciler) initiate(ctx context.Context, cmd InitiateCommand) (*InitiateResult, error) {
	o, err := r.payableObligation(ctx, cmd.ObligationID)
	if err != nil {
		return nil, err
	}

	existing, err := r.cfg.Transactions.FindPending(ctx, o.ID, cmd.Rail)
	switch {
	case err == nil:
		// A transaction held for review stays open until an operator resolves it
		if existing.ReviewRequired || existing.Amount.Equal(o.DueAmount()) {
			return resultFrom(existing, true), nil
		}
		if err := r.supersede(ctx, existing, o.DueAmount()); err != nil {
			return nil, err
		}
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	client, err := r.cfg.Gateways.Client(cmd.Rail)
	if err != nil {
		return nil, err
	}
	attempts, err := r.cfg.Transactions.FindByObligation(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	now := r.now()
	req := &payment.CreateTransactionRequest{
		IdempotencyKey: fmt.Sprintf("%s:%s:%d", o.ID, cmd.Rail, len(attempts)+1),
		ObligationID:   o.ID,
		ContractID:     o.ContractID,
		Amount:         o.DueAmount(),
		Currency:       o.Currency,
		Description:    cmd.Client.Description,
		ReturnURL:      cmd.Client.ReturnURL,
		PayerReference: cmd.PayerReference,
		ClientIP:       cmd.Client.IP,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The gateway call stays outside any database transaction
	gwCtx, cancel := context.WithTimeout(ctx, r.cfg.GatewayTimeout)
	resp, err := client.CreateTransaction(gwCtx, req)
	cancel()
	if err != nil {
		r.logger.Warn("gateway refused to open transaction",
			zap.String("obligation_id", o.ID.String()),
			zap.String("rail", cmd.Rail.String()),
			zap.Error(err))
		return nil, err
	}

	tx, err := payment.NewTransaction(o.ID, cmd.Rail, resp.GatewayTransactionID, req.Amount, o.Currency, resp.RedirectURL, cmd.Client, now)
	if err != nil {
		return nil, err
	}
	if err := r.cfg.Transactions.Create(ctx, tx); err != nil {
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
		// Another instance opened a transaction first; its row wins
		winner, ferr := r.cfg.Transactions.FindPending(ctx, o.ID, cmd.Rail)
		if ferr != nil {
			return nil, fmt.Errorf("lost initiate race and could not load winner: %w", ferr)
		}
		r.logger.Info("concurrent initiate resolved to existing transaction",
			zap.String("obligation_id", o.ID.String()),
			zap.String("discarded_gateway_tx", resp.GatewayTransactionID),
			zap.String("gateway_tx", winner.GatewayTransactionID))
		return resultFrom(winner, true), nil
	}

	r.logger.Info("transaction initiated",
		zap.String("obligation_id", o.ID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("rail", cmd.Rail.String()),
		zap.String("amount", tx.Amount.String()))
	return resultFrom(tx, false), nil
}

// supersede cancels a pending transaction whose quote no longer matches the
// amount due, so the payer is sent to a fresh checkout.
func (r *Reconciler) supersede(ctx context.Context, tx *payment.Transaction, due decimal.Decimal) error {
	if err := tx.Cancel(r.now()); err != nil {
		return err
	}
	if err := r.cfg.Transactions.SaveWithLock(ctx, tx); err != nil {
		return err
	}
	r.logger.Info("pending transaction superseded",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("obligation_id", tx.ObligationID.String()),
		zap.String("quoted", tx.Amount.String()),
		zap.String("due", due.String()))
	return nil
}

// payableObligation loads an obligation that may still receive a payment
func (r *Reconciler) payableObligation(ctx context.Context, id uuid.UUID) (*obligation.PaymentObligation, error) {
	o, err := r.cfg.Obligations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.IsPayable() {
		return nil, shared.NewInvalidTransitionError("obligation", o.Status, obligation.StatusPaid)
	}
	if o.IsSplitLeg() {
		plan, err := r.cfg.Plans.FindByID(ctx, *o.SplitPlanID)
		if err != nil {
			return nil, err
		}
		if !plan.Status.AcceptsPayments() {
			return nil, shared.NewDomainError(shared.CodeInvalidStateTransition,
				fmt.Sprintf("split plan %s is %s and accepts no payments", plan.ID, plan.Status))
		}
	}
	return o, nil
}

func resultFrom(tx *payment.Transaction, reused bool) *InitiateResult {
	return &InitiateResult{
		TransactionID:        tx.ID,
		GatewayTransactionID: tx.GatewayTransactionID,
		RedirectURL:          tx.RedirectURL,
		Amount:               tx.Amount,
		Currency:             tx.Currency,
		Reused:               reused,
	}
}

// Reconcile applies a verified callback. Orphan and duplicate callbacks are
// acknowledged without error; a success callback that does not cover the
// amount due is held for review and reported as RECONCILIATION_MISMATCH.
func (r *Reconciler) Reconcile(ctx context.Context, cmd ReconcileCommand) (*ReconcileResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciler", "reconcile",
		telemetry.WithAttribute("rail", cmd.Rail.String()),
		telemetry.WithAttribute("gateway_tx", cmd.GatewayTransactionID),
		telemetry.WithAttribute("outcome", cmd.Outcome.String()))
	defer span.End()

	if err := validateCallback(&cmd); err != nil {
		return nil, err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(r.backoffPolicy(), uint64(r.cfg.ConflictRetries)), ctx)

	res, err := backoff.RetryWithData(func() (*ReconcileResult, error) {
		res, err := r.reconcileOnce(ctx, cmd)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			r.logger.Debug("reconcile lost an optimistic write, retrying",
				zap.String("gateway_tx", cmd.GatewayTransactionID))
			return nil, err
		}
		if err != nil {
			return res, backoff.Permanent(err)
		}
		return res, nil
	}, policy)

	if errors.Is(err, shared.ErrConcurrencyConflict) {
		// Retries exhausted: if the other writer settled the transaction the
		// callback is a duplicate.
		if tx, ferr := r.cfg.Transactions.FindByGatewayID(ctx, cmd.Rail, cmd.GatewayTransactionID); ferr == nil && tx.Status.IsTerminal() {
			res, err = &ReconcileResult{Status: ResultDuplicate, TransactionID: &tx.ID, ObligationID: &tx.ObligationID, TransactionStatus: tx.Status}, nil
		}
	}

	switch {
	case err == nil:
		r.cfg.Metrics.RecordReconciliation(ctx, cmd.Rail, string(res.Status))
	case errors.Is(err, shared.ErrReconciliationMismatch):
		r.cfg.Metrics.RecordReconciliation(ctx, cmd.Rail, string(ResultMismatch))
		telemetry.RecordError(span, err)
	default:
		r.cfg.Metrics.RecordReconciliation(ctx, cmd.Rail, "error")
		telemetry.RecordError(span, err)
	}
	return res, err
}

func (r *Reconciler) backoffPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.RetryInterval
	b.MaxInterval = 20 * r.cfg.RetryInterval
	b.MaxElapsedTime = 0
	return b
}

func validateCallback(cmd *ReconcileCommand) error {
	if !cmd.Rail.IsValid() {
		return shared.NewValidationError("unknown rail %q", cmd.Rail)
	}
	if cmd.GatewayTransactionID == "" {
		return shared.NewValidationError("gateway transaction id is required")
	}
	if !cmd.Outcome.IsValid() {
		return shared.NewValidationError("unknown outcome %q", cmd.Outcome)
	}
	if cmd.Amount.IsNegative() {
		return shared.NewValidationError("amount cannot be negative")
	}
	if cmd.Currency != "" {
		code, err := shared.NormalizeCurrency(cmd.Currency)
		if err != nil {
			return err
		}
		cmd.Currency = code
	}
	return nil
}

// reconcileOnce runs one attempt inside a single unit of work
func (r *Reconciler) reconcileOnce(ctx context.Context, cmd ReconcileCommand) (*ReconcileResult, error) {
	var (
		result   *ReconcileResult
		events   []shared.DomainEvent
		mismatch error
	)
	now := r.now()

	err := r.cfg.UnitOfWork.Do(ctx, func(ctx context.Context) error {
		tx, err := r.cfg.Transactions.FindByGatewayID(ctx, cmd.Rail, cmd.GatewayTransactionID)
		if errors.Is(err, shared.ErrNotFound) {
			result, err = r.recordOrphan(ctx, cmd, now)
			return err
		}
		if err != nil {
			return err
		}
		if tx.Status.IsTerminal() {
			if err := r.flagLateSuccess(ctx, tx, cmd, now); err != nil {
				return err
			}
			result = &ReconcileResult{Status: ResultDuplicate, TransactionID: &tx.ID, ObligationID: &tx.ObligationID, TransactionStatus: tx.Status}
			return nil
		}

		o, plan, err := r.loadTarget(ctx, tx.ObligationID)
		if err != nil {
			return err
		}

		switch cmd.Outcome {
		case payment.OutcomeSuccess:
			if detail := r.checkSettlement(o, cmd); detail != "" {
				held, err := r.holdForReview(ctx, tx, o, cmd, detail, now)
				if err != nil {
					return err
				}
				mismatch = held
				result = &ReconcileResult{Status: ResultMismatch, TransactionID: &tx.ID, ObligationID: &o.ID, TransactionStatus: tx.Status, ObligationStatus: o.Status}
				return nil
			}
			events, err = r.settle(ctx, tx, o, plan, cmd, now)
		default:
			events, err = r.close(ctx, tx, o, plan, cmd, now)
		}
		if err != nil {
			return err
		}
		result = &ReconcileResult{Status: ResultApplied, TransactionID: &tx.ID, ObligationID: &o.ID, TransactionStatus: tx.Status, ObligationStatus: o.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if perr := publishAfterCommit(ctx, r.cfg.Publisher, events); perr != nil {
		r.logger.Error("failed to publish reconciliation events", zap.Error(perr))
	}
	if mismatch != nil {
		return result, mismatch
	}
	return result, nil
}

// flagLateSuccess records money reported against a transaction that was
// superseded before the gateway settled it. Callbacks on transactions closed
// after a review, or by an earlier callback, stay plain duplicates.
func (r *Reconciler) flagLateSuccess(ctx context.Context, tx *payment.Transaction, cmd ReconcileCommand, now time.Time) error {
	if cmd.Outcome != payment.OutcomeSuccess || tx.Status != payment.TransactionStatusCancelled || tx.ReviewRequired {
		return nil
	}
	currency := cmd.Currency
	if currency == "" {
		currency = tx.Currency
	}
	exc := payment.NewAmountMismatchException(tx, decimal.Zero, cmd.Amount, currency, "success reported for a superseded transaction", now)
	inserted, err := r.cfg.Exceptions.Record(ctx, exc)
	if err != nil {
		return err
	}
	r.logger.Warn("success callback on superseded transaction",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("gateway_tx", tx.GatewayTransactionID),
		zap.Bool("first_seen", inserted))
	return nil
}

func (r *Reconciler) recordOrphan(ctx context.Context, cmd ReconcileCommand, now time.Time) (*ReconcileResult, error) {
	exc := payment.NewOrphanCallbackException(cmd.Rail, cmd.GatewayTransactionID, cmd.Outcome, cmd.Amount, cmd.Currency, now)
	inserted, err := r.cfg.Exceptions.Record(ctx, exc)
	if err != nil {
		return nil, err
	}
	r.logger.Warn("orphan callback",
		zap.String("rail", cmd.Rail.String()),
		zap.String("gateway_tx", cmd.GatewayTransactionID),
		zap.String("outcome", cmd.Outcome.String()),
		zap.Bool("first_seen", inserted))
	return &ReconcileResult{Status: ResultOrphan}, nil
}

// loadTarget returns the obligation, routed through its plan for split legs
func (r *Reconciler) loadTarget(ctx context.Context, obligationID uuid.UUID) (*obligation.PaymentObligation, *splitplan.SplitPlan, error) {
	o, err := r.cfg.Obligations.FindByID(ctx, obligationID)
	if err != nil {
		return nil, nil, err
	}
	if !o.IsSplitLeg() {
		return o, nil, nil
	}
	plan, err := r.cfg.Plans.FindByID(ctx, *o.SplitPlanID)
	if err != nil {
		return nil, nil, err
	}
	leg, err := plan.Leg(o.ID)
	if err != nil {
		return nil, nil, err
	}
	return leg, plan, nil
}

// checkSettlement returns why a success callback cannot settle o, or ""
func (r *Reconciler) checkSettlement(o *obligation.PaymentObligation, cmd ReconcileCommand) string {
	if !o.Status.IsPayable() {
		return fmt.Sprintf("obligation is %s", o.Status)
	}
	if cmd.Currency != "" && cmd.Currency != o.Currency {
		return fmt.Sprintf("currency %s does not match %s", cmd.Currency, o.Currency)
	}
	due, _ := o.AmountDueAt(cmd.ProcessedAt)
	if !r.cfg.Policy.Load().Matches(due, cmd.Amount) {
		return fmt.Sprintf("reported %s, due %s", cmd.Amount, due)
	}
	return ""
}

func (r *Reconciler) holdForReview(
	ctx context.Context,
	tx *payment.Transaction,
	o *obligation.PaymentObligation,
	cmd ReconcileCommand,
	detail string,
	now time.Time,
) (*shared.DomainError, error) {
	before := tx.Version
	tx.FlagForReview(now)
	if tx.Version != before {
		if err := r.cfg.Transactions.SaveWithLock(ctx, tx); err != nil {
			return nil, err
		}
	}

	due, _ := o.AmountDueAt(cmd.ProcessedAt)
	currency := cmd.Currency
	if currency == "" {
		currency = o.Currency
	}
	exc := payment.NewAmountMismatchException(tx, due, cmd.Amount, currency, detail, now)
	if _, err := r.cfg.Exceptions.Record(ctx, exc); err != nil {
		return nil, err
	}

	r.logger.Warn("callback does not match obligation, held for review",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("obligation_id", o.ID.String()),
		zap.String("detail", detail))
	return shared.NewReconciliationMismatchError("transaction %s: %s", tx.GatewayTransactionID, detail), nil
}

func (r *Reconciler) settle(
	ctx context.Context,
	tx *payment.Transaction,
	o *obligation.PaymentObligation,
	plan *splitplan.SplitPlan,
	cmd ReconcileCommand,
	now time.Time,
) ([]shared.DomainEvent, error) {
	if err := tx.ApplyOutcome(payment.OutcomeSuccess, cmd.ProcessedAt, now); err != nil {
		return nil, err
	}
	if err := r.cfg.Transactions.SaveWithLock(ctx, tx); err != nil {
		return nil, err
	}

	_, waive := o.AmountDueAt(cmd.ProcessedAt)
	settlement := obligation.Settlement{
		Method:         tx.Rail.String(),
		TransactionRef: tx.GatewayTransactionID,
		PaidAt:         *tx.ProcessedAt,
		WaiveLateFee:   waive,
	}

	if plan != nil {
		if err := plan.SettleLeg(o.ID, settlement, now); err != nil {
			return nil, err
		}
		if err := r.cfg.Plans.SaveWithLock(ctx, plan); err != nil {
			return nil, err
		}
		r.logSettled(tx, o, waive)
		return plan.PullAllEvents(), nil
	}

	if err := o.MarkPaid(settlement, now); err != nil {
		return nil, err
	}
	if err := r.cfg.Obligations.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	r.logSettled(tx, o, waive)
	return o.PullDomainEvents(), nil
}

func (r *Reconciler) logSettled(tx *payment.Transaction, o *obligation.PaymentObligation, waived bool) {
	r.logger.Info("obligation settled",
		zap.String("obligation_id", o.ID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("rail", tx.Rail.String()),
		zap.String("amount", tx.Amount.String()),
		zap.Bool("late_fee_waived", waived))
}

// close applies a non-success outcome. The obligation stays payable; failed
// or expired deposit attempts count against the split plan.
func (r *Reconciler) close(
	ctx context.Context,
	tx *payment.Transaction,
	o *obligation.PaymentObligation,
	plan *splitplan.SplitPlan,
	cmd ReconcileCommand,
	now time.Time,
) ([]shared.DomainEvent, error) {
	if err := tx.ApplyOutcome(cmd.Outcome, cmd.ProcessedAt, now); err != nil {
		return nil, err
	}
	if err := r.cfg.Transactions.SaveWithLock(ctx, tx); err != nil {
		return nil, err
	}
	r.logger.Info("transaction closed without payment",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("status", tx.Status.String()))

	if cmd.Outcome == payment.OutcomeCancelled {
		return nil, nil
	}
	return countDepositFailure(ctx, r.cfg.Plans, plan, o, r.cfg.MaxDepositAttempts, now)
}

// countDepositFailure records a failed deposit attempt on the plan, if o is
// its deposit leg, and returns the plan events raised
func countDepositFailure(
	ctx context.Context,
	plans splitplan.Repository,
	plan *splitplan.SplitPlan,
	o *obligation.PaymentObligation,
	maxAttempts int,
	now time.Time,
) ([]shared.DomainEvent, error) {
	if plan == nil || o.Kind != obligation.KindSplitDeposit {
		return nil, nil
	}
	before := plan.Version
	plan.RecordDepositFailure(maxAttempts, now)
	if plan.Version == before {
		return nil, nil
	}
	if err := plans.SaveWithLock(ctx, plan); err != nil {
		return nil, err
	}
	return plan.PullAllEvents(), nil
}
