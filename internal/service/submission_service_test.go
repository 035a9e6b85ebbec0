package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
)

// fakeSubmissionStore 인메모리 플래그/팀 저장소.
// 트랜잭션 적용 연산은 실제 저장소처럼 both-or-neither로 동작한다.
type fakeSubmissionStore struct {
	flags       map[string]string // value -> owner
	submissions map[string]bool   // value + "|" + team
	scores      map[string]int

	applyErr error // 주입 실패: 점수/제출 기록 모두 반영하지 않음
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{
		flags:       make(map[string]string),
		submissions: make(map[string]bool),
		scores:      make(map[string]int),
	}
}

func (f *fakeSubmissionStore) addTeam(name string, score int) {
	f.scores[name] = score
}

func (f *fakeSubmissionStore) addFlag(value, owner string) {
	f.flags[value] = owner
}

func (f *fakeSubmissionStore) FindByValue(value string) (*models.Flag, error) {
	owner, ok := f.flags[value]
	if !ok {
		return nil, nil
	}
	return &models.Flag{Value: value, Owner: owner}, nil
}

func (f *fakeSubmissionStore) HasSubmission(flagValue, team string) (bool, error) {
	return f.submissions[flagValue+"|"+team], nil
}

func (f *fakeSubmissionStore) ApplySelfCapture(flagValue, team string, points int, _ time.Time) (int, error) {
	if f.applyErr != nil {
		return 0, f.applyErr
	}
	f.submissions[flagValue+"|"+team] = true
	f.scores[team] += points
	return f.scores[team], nil
}

func (f *fakeSubmissionStore) ApplyAttack(flagValue, attacker, owner string, gain, penalty int, _ time.Time) (int, error) {
	if f.applyErr != nil {
		return 0, f.applyErr
	}
	f.submissions[flagValue+"|"+attacker] = true
	f.scores[attacker] += gain
	f.scores[owner] -= penalty
	return f.scores[attacker], nil
}

func (f *fakeSubmissionStore) FindByName(name string) (*models.Team, error) {
	score, ok := f.scores[name]
	if !ok {
		return nil, nil
	}
	return &models.Team{Name: name, Score: score}, nil
}

// fakeNotifier 발송된 알림 기록
type fakeNotifier struct {
	notifications []models.FlagCaptureNotification
}

func (f *fakeNotifier) NotifyFlagCapture(_ string, n models.FlagCaptureNotification) {
	f.notifications = append(f.notifications, n)
}

func newSubmissionFixture() (*SubmissionService, *fakeSubmissionStore, *fakeNotifier) {
	store := newFakeSubmissionStore()
	notifier := &fakeNotifier{}
	configService := NewScoringConfigService(newTestConfig())
	svc := NewSubmissionService(store, store, configService, notifier)
	return svc, store, notifier
}

func TestSubmissionService_SelfFlag(t *testing.T) {
	svc, store, notifier := newSubmissionFixture()
	store.addTeam("Red Team", 0)
	store.addFlag("flag-red-1", "Red Team")

	result, err := svc.Submit("Red Team", "flag-red-1")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if result.NewScore != 10 {
		t.Errorf("newScore = %d, want 10", result.NewScore)
	}
	if result.Message != "You submitted your own flag! +10 points" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if len(notifier.notifications) != 0 {
		t.Error("self capture must not notify anyone")
	}
}

func TestSubmissionService_Attack(t *testing.T) {
	svc, store, notifier := newSubmissionFixture()
	store.addTeam("Red Team", 100)
	store.addTeam("Blue Team", 100)
	store.addFlag("flag-blue-1", "Blue Team")

	result, err := svc.Submit("Red Team", "flag-blue-1")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if result.NewScore != 300 {
		t.Errorf("attacker score = %d, want 300", result.NewScore)
	}
	if store.scores["Blue Team"] != 50 {
		t.Errorf("owner score = %d, want 50", store.scores["Blue Team"])
	}
	want := "You submitted Blue Team's flag! +200 points for you, -50 points for them"
	if result.Message != want {
		t.Errorf("message = %q, want %q", result.Message, want)
	}

	if len(notifier.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.notifications))
	}
	n := notifier.notifications[0]
	if n.Type != "flag-submission" || n.Team != "Red Team" || n.FlagOwner != "Blue Team" || n.FlagValue != "flag-blue-1" {
		t.Errorf("unexpected notification payload: %+v", n)
	}
	if _, err := time.Parse(time.RFC3339, n.Timestamp); err != nil {
		t.Errorf("timestamp not RFC3339: %q", n.Timestamp)
	}
}

func TestSubmissionService_DuplicateRejected(t *testing.T) {
	svc, store, _ := newSubmissionFixture()
	store.addTeam("Red Team", 0)
	store.addTeam("Blue Team", 0)
	store.addFlag("flag-blue-1", "Blue Team")

	if _, err := svc.Submit("Red Team", "flag-blue-1"); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}

	_, err := svc.Submit("Red Team", "flag-blue-1")
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second submission: got %v, want ErrAlreadySubmitted", err)
	}

	// 중복 제출은 점수를 건드리지 않는다
	if store.scores["Red Team"] != 200 {
		t.Errorf("attacker score = %d, want 200", store.scores["Red Team"])
	}
	if store.scores["Blue Team"] != -50 {
		t.Errorf("owner score = %d, want -50", store.scores["Blue Team"])
	}
}

func TestSubmissionService_UnknownFlag(t *testing.T) {
	svc, store, _ := newSubmissionFixture()
	store.addTeam("Red Team", 0)

	_, err := svc.Submit("Red Team", "no-such-flag")
	if !errors.Is(err, ErrFlagNotFound) {
		t.Errorf("got %v, want ErrFlagNotFound", err)
	}
}

func TestSubmissionService_UnknownTeam(t *testing.T) {
	svc, store, _ := newSubmissionFixture()
	store.addTeam("Blue Team", 0)
	store.addFlag("flag-blue-1", "Blue Team")

	_, err := svc.Submit("Ghost Team", "flag-blue-1")
	if !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("got %v, want ErrTeamNotFound", err)
	}
}

func TestSubmissionService_ApplyFailureLeavesNoTrace(t *testing.T) {
	svc, store, notifier := newSubmissionFixture()
	store.addTeam("Red Team", 0)
	store.addTeam("Blue Team", 0)
	store.addFlag("flag-blue-1", "Blue Team")
	store.applyErr = fmt.Errorf("connection lost")

	_, err := svc.Submit("Red Team", "flag-blue-1")
	if err == nil {
		t.Fatal("expected error from failed apply")
	}

	// 실패한 제출은 점수도 제출 기록도 남기지 않는다
	if store.scores["Red Team"] != 0 || store.scores["Blue Team"] != 0 {
		t.Errorf("scores mutated on failure: %v", store.scores)
	}
	if len(store.submissions) != 0 {
		t.Error("submission recorded on failure")
	}
	if len(notifier.notifications) != 0 {
		t.Error("notification sent on failure")
	}

	// 저장소 복구 후 같은 제출이 성공해야 한다
	store.applyErr = nil
	result, err := svc.Submit("Red Team", "flag-blue-1")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if result.NewScore != 200 {
		t.Errorf("retry newScore = %d, want 200", result.NewScore)
	}
}

func TestSubmissionService_UsesLiveConfig(t *testing.T) {
	store := newFakeSubmissionStore()
	configService := NewScoringConfigService(newTestConfig())
	svc := NewSubmissionService(store, store, configService, nil)

	store.addTeam("Red Team", 0)
	store.addTeam("Blue Team", 0)
	store.addFlag("flag-blue-1", "Blue Team")
	store.addFlag("flag-blue-2", "Blue Team")

	if _, errs := configService.Update(scoringUpdate(nil, intPtr(500), intPtr(100), nil, nil, nil, nil)); len(errs) != 0 {
		t.Fatalf("config update failed: %v", errs)
	}

	result, err := svc.Submit("Red Team", "flag-blue-1")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if result.NewScore != 500 {
		t.Errorf("newScore = %d, want 500 (updated attack points)", result.NewScore)
	}
	if store.scores["Blue Team"] != -100 {
		t.Errorf("owner score = %d, want -100 (updated penalty)", store.scores["Blue Team"])
	}
}

// Red가 자기 플래그, Blue 플래그, 중복 순으로 제출하는 전체 흐름
func TestSubmissionService_EndToEndScenario(t *testing.T) {
	svc, store, _ := newSubmissionFixture()
	store.addTeam("Red", 0)
	store.addTeam("Blue", 0)
	store.addFlag("red-flag", "Red")
	store.addFlag("blue-flag", "Blue")

	r1, err := svc.Submit("Red", "red-flag")
	if err != nil || r1.NewScore != 10 {
		t.Fatalf("self capture: score=%v err=%v, want 10", r1, err)
	}

	r2, err := svc.Submit("Red", "blue-flag")
	if err != nil || r2.NewScore != 210 {
		t.Fatalf("attack: score=%v err=%v, want 210", r2, err)
	}
	if store.scores["Blue"] != -50 {
		t.Errorf("Blue score = %d, want -50", store.scores["Blue"])
	}

	if _, err := svc.Submit("Red", "blue-flag"); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("duplicate: got %v, want ErrAlreadySubmitted", err)
	}
	if store.scores["Red"] != 210 {
		t.Errorf("Red score after duplicate = %d, want 210", store.scores["Red"])
	}
}
