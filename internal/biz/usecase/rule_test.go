package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/devricklin/automessage/internal/biz/domain"
)

func ruleNames(rules domain.RuleSet) []string {
	var names []string
	for _, r := range rules {
		names = append(names, r.Name)
	}
	return names
}

func TestRuleUsecase_LoadSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	ruleRepo := &mockRuleRepo{}
	uc := NewRuleUsecase(ruleRepo, nil, NewEventBus(), nil)

	if err := uc.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"6-digit code", "4-8 char alphanumeric code"}
	if diff := cmp.Diff(want, ruleNames(uc.Snapshot())); diff != "" {
		t.Errorf("seeded rules mismatch (-want +got):\n%s", diff)
	}
	if ruleRepo.saves != 0 {
		t.Errorf("expected seeding not to persist, got %d saves", ruleRepo.saves)
	}
}

func TestRuleUsecase_LoadUsesCustomSeed(t *testing.T) {
	seed := domain.RuleSet{domain.NewRule("bank", `[0-9]{8}`, "")}
	uc := NewRuleUsecase(&mockRuleRepo{}, seed, nil, nil)

	if err := uc.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff([]string{"bank"}, ruleNames(uc.Snapshot())); diff != "" {
		t.Errorf("seed mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleUsecase_LoadPersisted(t *testing.T) {
	stored := domain.RuleSet{domain.NewRule("one", "1", ""), domain.NewRule("two", "2", "")}
	uc := NewRuleUsecase(&mockRuleRepo{rules: stored, found: true}, nil, nil, nil)

	if err := uc.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(stored, uc.Snapshot()); diff != "" {
		t.Errorf("loaded rules mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleUsecase_EditingPersistsInOrder(t *testing.T) {
	ctx := context.Background()
	ruleRepo := &mockRuleRepo{}
	uc := NewRuleUsecase(ruleRepo, domain.RuleSet{}, nil, nil)
	if err := uc.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	added, err := uc.Add(ctx, domain.Rule{Name: "otp", Pattern: `[0-9]{4}`, IsEnabled: true})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if added.LastModified.IsZero() {
		t.Error("expected lastModified to be stamped")
	}

	// Two defaults plus the new rule
	if got := len(ruleRepo.rules); got != 3 {
		t.Fatalf("expected 3 persisted rules, got %d", got)
	}

	if err := uc.Move(ctx, added.ID, 0); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	want := []string{"otp", "6-digit code", "4-8 char alphanumeric code"}
	if diff := cmp.Diff(want, ruleNames(ruleRepo.rules)); diff != "" {
		t.Errorf("persisted order mismatch (-want +got):\n%s", diff)
	}

	if err := uc.Move(ctx, added.ID, 99); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	want = []string{"6-digit code", "4-8 char alphanumeric code", "otp"}
	if diff := cmp.Diff(want, ruleNames(uc.Snapshot())); diff != "" {
		t.Errorf("order after move to end mismatch (-want +got):\n%s", diff)
	}

	name := "renamed"
	updated, err := uc.Update(ctx, added.ID, RulePatch{Name: &name})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "renamed" || updated.Pattern != `[0-9]{4}` || updated.ID != added.ID {
		t.Errorf("unexpected updated rule: %+v", updated)
	}

	if _, err := uc.SetEnabled(ctx, added.ID, false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	got, err := uc.Get(added.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.IsEnabled {
		t.Error("expected rule to be disabled")
	}

	if err := uc.Remove(ctx, added.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := uc.Get(added.ID); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
	if got := len(ruleRepo.rules); got != 2 {
		t.Errorf("expected 2 persisted rules, got %d", got)
	}
}

func TestRuleUsecase_InvalidPatternIsSaved(t *testing.T) {
	ctx := context.Background()
	uc := NewRuleUsecase(&mockRuleRepo{}, nil, nil, nil)
	_ = uc.Load(ctx)

	if _, err := uc.Add(ctx, domain.Rule{Name: "broken", Pattern: "(unclosed"}); err != nil {
		t.Fatalf("expected invalid pattern to be accepted, got %v", err)
	}
}

func TestRuleUsecase_UnknownID(t *testing.T) {
	ctx := context.Background()
	uc := NewRuleUsecase(&mockRuleRepo{}, nil, nil, nil)
	_ = uc.Load(ctx)

	if err := uc.Remove(ctx, "missing"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("Remove: expected ErrRuleNotFound, got %v", err)
	}
	if err := uc.Move(ctx, "missing", 0); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("Move: expected ErrRuleNotFound, got %v", err)
	}
	if _, err := uc.SetEnabled(ctx, "missing", true); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("SetEnabled: expected ErrRuleNotFound, got %v", err)
	}
}

func TestRuleUsecase_SaveFailureKeepsPreviousSet(t *testing.T) {
	ctx := context.Background()
	ruleRepo := &mockRuleRepo{}
	uc := NewRuleUsecase(ruleRepo, nil, nil, nil)
	_ = uc.Load(ctx)
	before := uc.Snapshot()

	ruleRepo.saveErr = errBoom
	if _, err := uc.Add(ctx, domain.Rule{Name: "x", Pattern: "x"}); !errors.Is(err, errBoom) {
		t.Fatalf("expected save error, got %v", err)
	}
	if diff := cmp.Diff(before, uc.Snapshot()); diff != "" {
		t.Errorf("rule set changed after failed save (-want +got):\n%s", diff)
	}
}

func TestRuleUsecase_ReplaceRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	uc := NewRuleUsecase(&mockRuleRepo{}, nil, nil, nil)
	_ = uc.Load(ctx)

	r := domain.NewRule("a", "a", "")
	if err := uc.Replace(ctx, domain.RuleSet{r, r}); !errors.Is(err, ErrDuplicateRule) {
		t.Fatalf("expected ErrDuplicateRule, got %v", err)
	}

	if err := uc.Replace(ctx, domain.RuleSet{{Pattern: "b"}, r}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	got := uc.Snapshot()
	if len(got) != 2 || got[0].ID == "" || got[0].Name != domain.DefaultRuleName || got[1].ID != r.ID {
		t.Errorf("unexpected rule set after replace: %+v", got)
	}
}

func TestRuleUsecase_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	bus := NewEventBus()
	events, unsubscribe := bus.Subscribe(8)
	defer unsubscribe()

	uc := NewRuleUsecase(&mockRuleRepo{}, nil, bus, nil)
	_ = uc.Load(ctx)
	_, _ = uc.Add(ctx, domain.Rule{Name: "x", Pattern: "x"})

	for i := 0; i < 2; i++ {
		evt := <-events
		if evt.Type != domain.EventRulesChanged {
			t.Errorf("expected rules_changed, got %s", evt.Type)
		}
	}
}

func TestRuleUsecase_ReloadKeepsSetWhenNothingStored(t *testing.T) {
	ctx := context.Background()
	ruleRepo := &mockRuleRepo{}
	uc := NewRuleUsecase(ruleRepo, nil, nil, nil)
	_ = uc.Load(ctx)

	if err := uc.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := len(uc.Snapshot()); got != 2 {
		t.Errorf("expected defaults to survive reload, got %d rules", got)
	}

	ruleRepo.rules = domain.RuleSet{domain.NewRule("external", "e", "")}
	ruleRepo.found = true
	if err := uc.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if diff := cmp.Diff([]string{"external"}, ruleNames(uc.Snapshot())); diff != "" {
		t.Errorf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleUsecase_ReloadKeepsConcurrentMutation(t *testing.T) {
	ctx := context.Background()
	ruleRepo := &gatedRuleRepo{mockRuleRepo: &mockRuleRepo{}}
	uc := NewRuleUsecase(ruleRepo, domain.RuleSet{domain.NewRule("a", "a", "")}, nil, nil)
	if err := uc.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := uc.Add(ctx, domain.NewRule("b", "b", "")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entered, release := ruleRepo.arm()
	reloaded := make(chan error, 1)
	go func() { reloaded <- uc.Reload(ctx) }()
	<-entered

	added := make(chan error, 1)
	go func() {
		_, err := uc.Add(ctx, domain.NewRule("c", "c", ""))
		added <- err
	}()
	// Let the mutation race the in-flight reload
	time.Sleep(50 * time.Millisecond)
	close(release)

	if err := <-reloaded; err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if err := <-added; err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, ruleNames(uc.Snapshot())); diff != "" {
		t.Errorf("in-memory rules mismatch (-want +got):\n%s", diff)
	}
	persisted, _, _ := ruleRepo.mockRuleRepo.Load(ctx)
	if diff := cmp.Diff(want, ruleNames(persisted)); diff != "" {
		t.Errorf("persisted rules mismatch (-want +got):\n%s", diff)
	}
}
