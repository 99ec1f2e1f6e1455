// File: internal/executor/executor.go
// Description: The unified perform/verify/recover execution protocol. Every
// instruction runs through here: perform the action, let verification judge
// the effect, give the handler a chance to recover, and retry within the
// configured attempt budget. Handler errors never escape; they become
// attempt log entries and a retry decision.
package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/screenpilot/api/schemas"
	"github.com/xkilldash9x/screenpilot/internal/actions"
	"github.com/xkilldash9x/screenpilot/internal/config"
)

// UnifiedExecutor runs single instructions to verified completion. It is
// strictly sequential; the screen is a shared mutable resource and a
// screenshot can only be attributed to an action when nothing else is
// interleaved.
type UnifiedExecutor struct {
	registry *actions.Registry
	cfg      config.ExecutorConfig
	log      *zap.Logger
	limiter  *rate.Limiter
	attempts []schemas.AttemptOutcome
	now      func() time.Time
}

// NewUnifiedExecutor creates an executor over the given registry.
func NewUnifiedExecutor(registry *actions.Registry, cfg config.ExecutorConfig, logger *zap.Logger) *UnifiedExecutor {
	return &UnifiedExecutor{
		registry: registry,
		cfg:      cfg,
		// The limiter paces attempts: the first token is free, every later
		// one is spaced by the current delay. Both policies stay bounded by
		// cfg.MaxDelay, so one instruction can never stall a workflow
		// indefinitely.
		limiter: rate.NewLimiter(rate.Every(cfg.BaseDelay), 1),
		log:     logger.Named("executor"),
		now:     time.Now,
	}
}

// DrainAttempts returns the attempt log gathered since the last drain. The
// engine calls this after each instruction to attribute attempts to it.
func (e *UnifiedExecutor) DrainAttempts() []schemas.AttemptOutcome {
	out := e.attempts
	e.attempts = nil
	return out
}

func (e *UnifiedExecutor) record(actionType schemas.ActionType, attempt int, success bool, message string) {
	e.attempts = append(e.attempts, schemas.AttemptOutcome{
		ActionType: actionType,
		Attempt:    attempt,
		Success:    success,
		Message:    message,
		Timestamp:  e.now(),
	})
}

// attemptDelay returns the pause before the given attempt (2-based; the
// first attempt never waits).
func (e *UnifiedExecutor) attemptDelay(attempt int) time.Duration {
	delay := e.cfg.BaseDelay
	if e.cfg.Delay == config.DelayExponential {
		for i := 2; i < attempt; i++ {
			delay *= 2
			if delay >= e.cfg.MaxDelay {
				return e.cfg.MaxDelay
			}
		}
	}
	if delay > e.cfg.MaxDelay {
		return e.cfg.MaxDelay
	}
	return delay
}

// Execute runs one instruction through the retry protocol and reports the
// final outcome. maxRetries bounds the attempt count inclusively; the
// returned message is the last relevant failure or success message.
func (e *UnifiedExecutor) Execute(ctx context.Context, instr schemas.Instruction, maxRetries int) (bool, string) {
	reg, ok := e.registry.Lookup(instr.ActionType)
	if !ok {
		// The engine filters unsupported types during classification; this
		// guards direct callers.
		msg := fmt.Sprintf("unsupported action type %q", instr.ActionType)
		e.record(instr.ActionType, 0, false, msg)
		return false, msg
	}
	if maxRetries <= 0 {
		maxRetries = e.cfg.MaxRetries
	}

	log := e.log.With(zap.String("action", string(instr.ActionType)))
	lastMessage := ""

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			e.limiter.SetLimit(rate.Every(e.attemptDelay(attempt)))
			if err := e.limiter.Wait(ctx); err != nil {
				msg := fmt.Sprintf("aborted while waiting to retry: %v", err)
				e.record(instr.ActionType, attempt, false, msg)
				return false, msg
			}
		}
		log.Debug("Executing attempt", zap.Int("attempt", attempt), zap.Int("max_attempts", maxRetries))

		// Step 1: perform. A failure here is soft; it proceeds to recovery,
		// never aborts the run.
		performErr := safePerform(ctx, reg, instr.Parameters)
		if performErr == nil {
			// Step 2: verify. Verification is the authority on success: an
			// action whose post-condition check fails is a failed action,
			// regardless of how cleanly it executed.
			if !reg.HasVerifier {
				msg := fmt.Sprintf("action %q executed (no verifier declared)", instr.ActionType)
				e.record(instr.ActionType, attempt, true, msg)
				return true, msg
			}
			outcome := safeVerify(ctx, reg, instr.Parameters)
			if outcome.OK {
				msg := fmt.Sprintf("action %q completed and verified: %s", instr.ActionType, outcome.Message)
				e.record(instr.ActionType, attempt, true, msg)
				return true, msg
			}
			lastMessage = fmt.Sprintf("verification failed: %s", outcome.Message)
		} else {
			lastMessage = fmt.Sprintf("perform failed: %v", performErr)
		}

		log.Warn("Attempt failed",
			zap.Int("attempt", attempt),
			zap.String("reason", lastMessage))
		e.record(instr.ActionType, attempt, false, lastMessage)

		// Step 3: recovery gates further attempts; its own success never
		// counts as action success.
		if reg.HasRecovery {
			retryWorthwhile, recoveryMsg := safeRecover(ctx, reg, lastMessage, attempt, maxRetries, instr.Parameters)
			log.Debug("Recovery finished",
				zap.Bool("retry_worthwhile", retryWorthwhile),
				zap.String("message", recoveryMsg))
			if !retryWorthwhile {
				return false, fmt.Sprintf("action %q failed, recovery declined retry: %s", instr.ActionType, lastMessage)
			}
		}
	}

	return false, fmt.Sprintf("action %q failed after %d attempts: %s", instr.ActionType, maxRetries, lastMessage)
}

// safePerform runs the perform function, converting panics into errors so a
// misbehaving handler cannot take down the workflow.
func safePerform(ctx context.Context, reg actions.Registration, params schemas.Parameters) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: handler panic: %v", schemas.ErrActionFailure, r)
		}
	}()
	return reg.Perform(ctx, params)
}

// safeVerify runs the verifier with the same panic containment.
func safeVerify(ctx context.Context, reg actions.Registration, params schemas.Parameters) (outcome schemas.VerifyOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = schemas.Unverified(fmt.Sprintf("verifier panic: %v", r))
		}
	}()
	return reg.Verify(ctx, params)
}

// safeRecover runs the recovery function; a panicking recovery simply does
// not gate a retry.
func safeRecover(ctx context.Context, reg actions.Registration, failure string, attempt, maxAttempts int, params schemas.Parameters) (retry bool, msg string) {
	defer func() {
		if r := recover(); r != nil {
			retry, msg = false, fmt.Sprintf("recovery panic: %v", r)
		}
	}()
	return reg.Recover(ctx, failure, attempt, maxAttempts, params)
}
