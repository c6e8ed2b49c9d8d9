package service

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"examforge_backend/internal/model"
	"examforge_backend/internal/util"
)

func startAttempt(t *testing.T, env *testEnv, email string) *AttemptView {
	t.Helper()
	view, err := env.attempt.StartAttempt("go-basics", model.AttemptIdentity{StudentEmail: email}, ClientMeta{IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	return view
}

func TestStartAttemptReturnsSanitizedView(t *testing.T) {
	env := newTestEnv(defaultExam(), defaultSnapshot())

	view := startAttempt(t, env, "a@test.dev")

	if view.AttemptID == 0 || view.PublicID == "" {
		t.Fatalf("attempt ids not set: %+v", view)
	}
	if view.AttemptNumber != 1 {
		t.Errorf("AttemptNumber = %d, want 1", view.AttemptNumber)
	}
	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatal(err)
	}
	for _, leak := range []string{"isCorrect", "correctAnswer", "IsCorrect"} {
		if strings.Contains(string(raw), leak) {
			t.Errorf("view leaks %q: %s", leak, raw)
		}
	}
}

func TestStartAttemptQuotaExhausted(t *testing.T) {
	env := newTestEnv(defaultExam(), defaultSnapshot())

	startAttempt(t, env, "a@test.dev")
	startAttempt(t, env, "a@test.dev")

	_, err := env.attempt.StartAttempt("go-basics", model.AttemptIdentity{StudentEmail: "a@test.dev"}, ClientMeta{})
	if util.KindOf(err) != util.KindQuotaExceeded {
		t.Fatalf("err = %v, want quota exceeded", err)
	}

	// 其他身份不受影响
	startAttempt(t, env, "b@test.dev")
}

func TestStartAttemptConcurrentQuota(t *testing.T) {
	exam := defaultExam()
	exam.MaxAttempts = 3
	env := newTestEnv(exam, defaultSnapshot())

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.attempt.StartAttempt("go-basics", model.AttemptIdentity{StudentEmail: "race@test.dev"}, ClientMeta{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created, rejected := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case util.KindOf(err) == util.KindQuotaExceeded:
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 3 || rejected != 7 {
		t.Fatalf("created = %d rejected = %d, want 3/7", created, rejected)
	}
}

func TestStartAttemptInactiveExam(t *testing.T) {
	exam := defaultExam()
	exam.IsActive = false
	env := newTestEnv(exam, defaultSnapshot())

	_, err := env.attempt.StartAttempt("go-basics", model.AttemptIdentity{IPAddress: "1.2.3.4"}, ClientMeta{})
	if util.KindOf(err) != util.KindForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestCheckCanTake(t *testing.T) {
	env := newTestEnv(defaultExam(), defaultSnapshot())
	identity := model.AttemptIdentity{StudentEmail: "a@test.dev"}

	result, err := env.attempt.CheckCanTake("go-basics", identity)
	if err != nil {
		t.Fatal(err)
	}
	if !result.CanTake || result.AttemptsUsed != 0 || result.AttemptsRemaining != 2 {
		t.Fatalf("fresh identity: %+v", result)
	}

	view := startAttempt(t, env, "a@test.dev")

	result, err = env.attempt.CheckCanTake("go-basics", identity)
	if err != nil {
		t.Fatal(err)
	}
	if result.AttemptsUsed != 1 || result.AttemptsRemaining != 1 {
		t.Fatalf("after one attempt: %+v", result)
	}
	if result.PendingAttemptID == nil || *result.PendingAttemptID != view.AttemptID {
		t.Fatalf("PendingAttemptID = %v, want %d", result.PendingAttemptID, view.AttemptID)
	}
}

func TestSaveAnswerOverwrites(t *testing.T) {
	env := newTestEnv(defaultExam(), defaultSnapshot())
	view := startAttempt(t, env, "a@test.dev")

	if err := env.attempt.SaveAnswer(view.AttemptID, 101, AnswerPayload{SelectedOptionIDs: []uint{1}}); err != nil {
		t.Fatal(err)
	}
	if err := env.attempt.SaveAnswer(view.AttemptID, 101, AnswerPayload{SelectedOptionIDs: []uint{2}}); err != nil {
		t.Fatal(err)
	}

	answers, _ := env.answers.ListByAttempt(view.AttemptID)
	if len(answers) != 1 {
		t.Fatalf("answers = %d, want 1 (覆盖式保存)", len(answers))
	}
	if answers[0].SelectedOptionIDs != "[2]" {
		t.Errorf("SelectedOptionIDs = %q, want [2]", answers[0].SelectedOptionIDs)
	}
}

func TestSaveAnswerUnknownQuestion(t *testing.T) {
	env := newTestEnv(defaultExam(), defaultSnapshot())
	view := startAttempt(t, env, "a@test.dev")

	err := env.attempt.SaveAnswer(view.AttemptID, 999, AnswerPayload{TextValue: "x"})
	if util.KindOf(err) != util.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSaveAnswerAfterSubmitConflicts(t *testing.T) {
	env := newTestEnv(defaultExam(), defaultSnapshot())
	view := startAttempt(t, env, "a@test.dev")

	if _, err := env.submission.Submit(view.AttemptID); err != nil {
		t.Fatal(err)
	}

	err := env.attempt.SaveAnswer(view.AttemptID, 101, AnswerPayload{SelectedOptionIDs: []uint{2}})
	if util.KindOf(err) != util.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestSaveAnswerAfterDeadlineForcesSubmit(t *testing.T) {
	exam := defaultExam()
	exam.TimeLimitSeconds = 600
	env := newTestEnv(exam, defaultSnapshot())
	view := startAttempt(t, env, "a@test.dev")

	if err := env.attempt.SaveAnswer(view.AttemptID, 101, AnswerPayload{SelectedOptionIDs: []uint{2}}); err != nil {
		t.Fatal(err)
	}

	env.advance(11 * time.Minute)

	err := env.attempt.SaveAnswer(view.AttemptID, 102, AnswerPayload{SelectedOptionIDs: []uint{4, 6}})
	if util.KindOf(err) != util.KindTimeExpired {
		t.Fatalf("err = %v, want time expired", err)
	}

	// 强制交卷已发生：attempt 完成且已评分，过期后到达的作答没有入库
	attempt, err := env.attempts.FindByID(view.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if !attempt.Completed() {
		t.Fatal("attempt should be force-completed")
	}
	if !attempt.AutoGraded {
		t.Fatal("forced submit should still auto-grade")
	}
	answers, _ := env.answers.ListByAttempt(view.AttemptID)
	if len(answers) != 1 {
		t.Fatalf("answers = %d, want 1 (late answer must be dropped)", len(answers))
	}
	// 只答对了第一题 10/20 = 50% < 60%
	if attempt.Score != 10 || attempt.Passed {
		t.Fatalf("score = %v passed = %v, want 10/false", attempt.Score, attempt.Passed)
	}

	// 再次触发只会拿到同样的 TimeExpired，不会重复评分
	err = env.attempt.SaveAnswer(view.AttemptID, 102, AnswerPayload{SelectedOptionIDs: []uint{4}})
	if util.KindOf(err) != util.KindConflict {
		t.Fatalf("err = %v, want conflict after completion", err)
	}
}

func TestSaveAnswerNoTimeLimitNeverExpires(t *testing.T) {
	env := newTestEnv(defaultExam(), defaultSnapshot())
	view := startAttempt(t, env, "a@test.dev")

	env.advance(100 * time.Hour)

	if err := env.attempt.SaveAnswer(view.AttemptID, 101, AnswerPayload{SelectedOptionIDs: []uint{2}}); err != nil {
		t.Fatalf("unlimited exam should accept late answers: %v", err)
	}
}
