package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/repo"
)

// Notification text for an extracted code
const (
	NotificationTitle      = "Verification code received"
	notificationBodyFormat = "Code: %s"
	notifyTimeout          = 5 * time.Second
)

// ErrMessageNotListed is recorded when the matched message is no longer in the visible list
var ErrMessageNotListed = errors.New("message not in visible list")

// Step names one stage of the action pipeline
type Step string

const (
	StepAudit     Step = "audit"
	StepClipboard Step = "clipboard"
	StepNotify    Step = "notify"
	StepPaste     Step = "paste"
	StepAnnotate  Step = "annotate"
)

// StepResult is the outcome of one stage
type StepResult struct {
	Step    Step
	Err     error
	Skipped bool
}

// Report collects every stage outcome of one pipeline run.
// Failures are recorded here and never stop later stages.
type Report struct {
	Steps  []StepResult
	Replay *Replay // Nil unless a paste was scheduled
}

// Failed returns the stages that reported an error
func (r Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Result returns the outcome recorded for step
func (r Report) Result(step Step) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == step {
			return s, true
		}
	}
	return StepResult{}, false
}

// AuditAppender records an extracted code
type AuditAppender interface {
	Append(ctx context.Context, matched, source, ruleName string) (domain.AuditEntry, error)
}

// Annotator marks a listed message with its extracted code
type Annotator interface {
	Annotate(messageID int64, code string) bool
}

// Replay is the cancellation handle for a scheduled paste and its follow-up submit
type Replay struct {
	mu        sync.Mutex
	paste     Task
	submit    Task
	cancelled bool
}

func (r *Replay) isCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// Cancel retracts whatever part of the replay has not fired yet
func (r *Replay) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelled = true
	cancelled := false
	if r.paste != nil && r.paste.Cancel() {
		cancelled = true
	}
	if r.submit != nil && r.submit.Cancel() {
		cancelled = true
	}
	return cancelled
}

// ActionPipeline runs the fixed side-effect sequence for a matched message
type ActionPipeline struct {
	audit     AuditAppender
	clipboard repo.ClipboardRepo
	notifiers []repo.NotifierRepo
	injector  repo.InjectorRepo
	scheduler Scheduler
	logger    *zap.Logger

	notifying sync.WaitGroup
}

// NewActionPipeline creates a new action pipeline
func NewActionPipeline(
	audit AuditAppender,
	clipboard repo.ClipboardRepo,
	notifiers []repo.NotifierRepo,
	injector repo.InjectorRepo,
	scheduler Scheduler,
	logger *zap.Logger,
) *ActionPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionPipeline{
		audit:     audit,
		clipboard: clipboard,
		notifiers: notifiers,
		injector:  injector,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Run performs audit, clipboard, notify, paste scheduling and annotation, in that order.
// Notifications are dispatched in the background and paste and submit run later on
// the scheduler; Run itself never waits for either.
func (p *ActionPipeline) Run(
	ctx context.Context,
	msg domain.Message,
	match MatchResult,
	settings domain.Snapshot,
	annotator Annotator,
) Report {
	var report Report

	// 1. Audit
	_, err := p.audit.Append(ctx, match.Text, msg.Text, match.Rule.Name)
	report.Steps = append(report.Steps, StepResult{Step: StepAudit, Err: err})

	// 2. Clipboard
	report.Steps = append(report.Steps, StepResult{Step: StepClipboard, Err: p.clipboard.SetString(match.Text)})

	// 3. Notify; failures are only logged
	if settings.General.ShowNotification {
		p.notify(ctx, match.Text)
		report.Steps = append(report.Steps, StepResult{Step: StepNotify})
	} else {
		report.Steps = append(report.Steps, StepResult{Step: StepNotify, Skipped: true})
	}

	// 4. Paste, then submit
	if settings.Action.AutoPasteEnabled {
		report.Replay = p.scheduleReplay(settings.Action)
		report.Steps = append(report.Steps, StepResult{Step: StepPaste})
	} else {
		report.Steps = append(report.Steps, StepResult{Step: StepPaste, Skipped: true})
	}

	// 5. Annotate
	switch {
	case annotator == nil:
		report.Steps = append(report.Steps, StepResult{Step: StepAnnotate, Skipped: true})
	case !annotator.Annotate(msg.ID, match.Text):
		report.Steps = append(report.Steps, StepResult{Step: StepAnnotate, Err: fmt.Errorf("%w: %d", ErrMessageNotListed, msg.ID)})
	default:
		report.Steps = append(report.Steps, StepResult{Step: StepAnnotate})
	}

	return report
}

// Wait blocks until every dispatched notification has returned
func (p *ActionPipeline) Wait() {
	p.notifying.Wait()
}

// notify sends to every sink on its own goroutine, each bounded by notifyTimeout
func (p *ActionPipeline) notify(ctx context.Context, code string) {
	body := fmt.Sprintf(notificationBodyFormat, code)
	ctx = context.WithoutCancel(ctx)

	for _, n := range p.notifiers {
		p.notifying.Add(1)
		go func(n repo.NotifierRepo) {
			defer p.notifying.Done()

			nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
			defer cancel()
			if err := n.Notify(nctx, NotificationTitle, body); err != nil {
				p.logger.Warn("notification failed", zap.Error(err))
			}
		}(n)
	}
}

// scheduleReplay arms the paste and, once it succeeds, the submit.
// A failed paste skips the submit.
func (p *ActionPipeline) scheduleReplay(action domain.ActionSettings) *Replay {
	r := &Replay{}
	submit := action.AutoSubmitAfterPaste

	paste := p.scheduler.After(action.PasteDelay(), func() {
		if r.isCancelled() {
			return
		}
		if err := p.injector.Paste(context.Background()); err != nil {
			p.logger.Warn("paste failed", zap.Error(err))
			return
		}
		if !submit || r.isCancelled() {
			return
		}

		task := p.scheduler.After(domain.SubmitAfterPasteDelay, func() {
			if r.isCancelled() {
				return
			}
			if err := p.injector.Submit(context.Background()); err != nil {
				p.logger.Warn("submit failed", zap.Error(err))
			}
		})
		r.mu.Lock()
		r.submit = task
		r.mu.Unlock()
	})

	r.mu.Lock()
	r.paste = paste
	r.mu.Unlock()

	return r
}
