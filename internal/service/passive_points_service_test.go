package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
)

// fakePassiveStore 지급 패스용 인메모리 저장소
type fakePassiveStore struct {
	mu      sync.Mutex
	flags   []models.Flag
	scores  map[string]int
	listErr error

	// addScoreDelay가 설정되면 AddScore가 그만큼 대기한다 (겹침 테스트용)
	addScoreDelay time.Duration
}

func newFakePassiveStore() *fakePassiveStore {
	return &fakePassiveStore{scores: make(map[string]int)}
}

func (f *fakePassiveStore) ListUndefeated() ([]models.Flag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Flag, len(f.flags))
	copy(out, f.flags)
	return out, nil
}

func (f *fakePassiveStore) AddScore(name string, delta int) (int, error) {
	if f.addScoreDelay > 0 {
		time.Sleep(f.addScoreDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[name] += delta
	return f.scores[name], nil
}

func (f *fakePassiveStore) score(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scores[name]
}

func newPassiveFixture() (*PassivePointsService, *fakePassiveStore, *ScoringConfigService) {
	store := newFakePassiveStore()
	configService := NewScoringConfigService(newTestConfig())
	svc := NewPassivePointsService(store, store, configService)
	return svc, store, configService
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestPassivePoints_RunAwardPass(t *testing.T) {
	svc, store, _ := newPassiveFixture()
	store.flags = []models.Flag{
		{Value: "f1", Owner: "Red"},
		{Value: "f2", Owner: "Red"},
		{Value: "f3", Owner: "Blue"},
	}

	awarded, skipped := svc.RunAwardPass()
	if skipped {
		t.Fatal("pass skipped unexpectedly")
	}
	if awarded != 3 {
		t.Errorf("awarded = %d, want 3 (1 point per undefeated flag)", awarded)
	}
	if store.score("Red") != 2 || store.score("Blue") != 1 {
		t.Errorf("scores = Red:%d Blue:%d, want Red:2 Blue:1", store.score("Red"), store.score("Blue"))
	}

	status := svc.GetStatus()
	if status.LastRun == nil {
		t.Error("lastRun not set after pass")
	}
	if status.PointsAwarded != 3 {
		t.Errorf("pointsAwarded = %d, want 3", status.PointsAwarded)
	}
}

func TestPassivePoints_ScheduleGating(t *testing.T) {
	svc, store, _ := newPassiveFixture()
	store.flags = []models.Flag{{Value: "f1", Owner: "Red"}}

	// 시작 시각이 미래면 지급하지 않는다
	future := time.Now().Add(time.Hour)
	svc.UpdateSchedule(timePtr(future), nil)

	awarded, skipped := svc.RunAwardPass()
	if !skipped || awarded != 0 {
		t.Errorf("pass before scheduledStart: awarded=%d skipped=%v, want 0/true", awarded, skipped)
	}
	if store.score("Red") != 0 {
		t.Error("score mutated outside schedule window")
	}

	// 창 밖에서도 nextRun은 전진한다 (타이머 유지)
	status := svc.GetStatus()
	if status.NextRun == nil {
		t.Error("nextRun not advanced on skipped pass")
	}
	if status.LastRun != nil {
		t.Error("lastRun set on skipped pass")
	}
	if status.WithinSchedule {
		t.Error("withinSchedule = true before scheduledStart")
	}

	// 종료 시각이 과거여도 지급하지 않는다
	svc2, store2, _ := newPassiveFixture()
	store2.flags = []models.Flag{{Value: "f1", Owner: "Red"}}
	past := time.Now().Add(-time.Hour)
	svc2.UpdateSchedule(nil, timePtr(past))

	if awarded, skipped := svc2.RunAwardPass(); !skipped || awarded != 0 {
		t.Errorf("pass after scheduledEnd: awarded=%d skipped=%v, want 0/true", awarded, skipped)
	}
}

func TestPassivePoints_ListFailureRetriesNextTick(t *testing.T) {
	svc, store, _ := newPassiveFixture()
	store.flags = []models.Flag{{Value: "f1", Owner: "Red"}}
	store.listErr = errors.New("db down")

	awarded, skipped := svc.RunAwardPass()
	if !skipped || awarded != 0 {
		t.Errorf("failed scan: awarded=%d skipped=%v, want 0/true", awarded, skipped)
	}
	if svc.GetStatus().NextRun == nil {
		t.Error("nextRun not advanced after scan failure")
	}

	// 복구되면 다음 패스가 정상 지급한다
	store.mu.Lock()
	store.listErr = nil
	store.mu.Unlock()

	if awarded, skipped := svc.RunAwardPass(); skipped || awarded != 1 {
		t.Errorf("recovered pass: awarded=%d skipped=%v, want 1/false", awarded, skipped)
	}
}

func TestPassivePoints_StartRunsImmediately(t *testing.T) {
	svc, store, configService := newPassiveFixture()
	store.flags = []models.Flag{{Value: "f1", Owner: "Red"}}

	// 테스트에서 긴 틱을 기다리지 않도록 최소 주기로
	if _, errs := configService.Update(scoringUpdate(nil, nil, nil, nil, intPtr(60000), nil, nil)); len(errs) != 0 {
		t.Fatalf("config update failed: %v", errs)
	}

	if err := svc.Start(nil, nil); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer svc.Stop()

	// 첫 패스는 틱을 기다리지 않는다
	deadline := time.After(2 * time.Second)
	for store.score("Red") == 0 {
		select {
		case <-deadline:
			t.Fatal("immediate pass did not run within 2s")
		case <-time.After(10 * time.Millisecond):
		}
	}

	status := svc.GetStatus()
	if !status.Running {
		t.Error("status.Running = false after Start")
	}
	if status.StartedAt == nil || status.NextRun == nil {
		t.Error("startedAt/nextRun not set after Start")
	}
}

func TestPassivePoints_DoubleStartRejected(t *testing.T) {
	svc, _, _ := newPassiveFixture()

	if err := svc.Start(nil, nil); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	defer svc.Stop()

	if err := svc.Start(nil, nil); !errors.Is(err, ErrSchedulerAlreadyRunning) {
		t.Errorf("second Start: got %v, want ErrSchedulerAlreadyRunning", err)
	}
}

func TestPassivePoints_StopIsDeterministic(t *testing.T) {
	svc, store, _ := newPassiveFixture()
	store.flags = []models.Flag{{Value: "f1", Owner: "Red"}}

	if err := svc.Start(nil, nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	status := svc.GetStatus()
	if status.Running {
		t.Error("status.Running = true after Stop")
	}
	if status.NextRun != nil {
		t.Error("nextRun not cleared after Stop")
	}

	// Stop 반환 이후에는 지급이 더 일어나지 않는다
	scoreAfterStop := store.score("Red")
	time.Sleep(50 * time.Millisecond)
	if store.score("Red") != scoreAfterStop {
		t.Error("award pass ran after Stop returned")
	}

	if err := svc.Stop(); !errors.Is(err, ErrSchedulerNotRunning) {
		t.Errorf("second Stop: got %v, want ErrSchedulerNotRunning", err)
	}
}

func TestPassivePoints_RestartOnlyWhenRunning(t *testing.T) {
	svc, _, _ := newPassiveFixture()

	// 정지 상태에서는 재시작하지 않는다
	if svc.RestartWithCurrentInterval() {
		t.Error("RestartWithCurrentInterval returned true while stopped")
	}

	if err := svc.Start(nil, nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop()

	if !svc.RestartWithCurrentInterval() {
		t.Error("RestartWithCurrentInterval returned false while running")
	}

	status := svc.GetStatus()
	if !status.Running {
		t.Error("scheduler not running after restart")
	}
	if status.NextRun == nil {
		t.Error("nextRun not re-armed after restart")
	}
}

func TestPassivePoints_RestartUsesNewInterval(t *testing.T) {
	svc, _, configService := newPassiveFixture()

	if _, errs := configService.Update(scoringUpdate(nil, nil, nil, nil, intPtr(60000), nil, nil)); len(errs) != 0 {
		t.Fatalf("config update failed: %v", errs)
	}

	if err := svc.Start(nil, nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop()

	// 실행 중에 주기를 60초에서 120초로 변경
	if _, errs := configService.Update(scoringUpdate(nil, nil, nil, nil, intPtr(120000), nil, nil)); len(errs) != 0 {
		t.Fatalf("interval update failed: %v", errs)
	}

	before := time.Now()
	if !svc.RestartWithCurrentInterval() {
		t.Fatal("RestartWithCurrentInterval returned false while running")
	}

	status := svc.GetStatus()
	if status.Interval != 120000 {
		t.Errorf("status.Interval = %d, want 120000", status.Interval)
	}
	if status.NextRun == nil {
		t.Fatal("nextRun not set after restart")
	}

	// nextRun은 변경 시점 기준 새 주기만큼 뒤여야 한다 (이전 60초 주기가 아니라)
	offset := status.NextRun.Sub(before)
	if offset < 90*time.Second || offset > 125*time.Second {
		t.Errorf("nextRun offset = %v, want ~2m (new interval)", offset)
	}
}

func TestPassivePoints_OverlappingPassSkipped(t *testing.T) {
	svc, store, _ := newPassiveFixture()
	store.flags = []models.Flag{{Value: "f1", Owner: "Red"}}
	store.addScoreDelay = 100 * time.Millisecond

	var wg sync.WaitGroup
	results := make([]bool, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, skipped := svc.RunAwardPass()
			results[idx] = skipped
		}(i)
	}
	wg.Wait()

	// 둘 중 하나만 실행되고 나머지는 건너뛴다
	if results[0] == results[1] {
		t.Errorf("expected exactly one pass to run, got skipped=%v", results)
	}
	if store.score("Red") != 1 {
		t.Errorf("score = %d, want 1 (single pass)", store.score("Red"))
	}
}

func TestPassivePoints_UpdateScheduleWhileRunning(t *testing.T) {
	svc, _, _ := newPassiveFixture()

	if err := svc.Start(nil, nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop()

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	svc.UpdateSchedule(timePtr(start), timePtr(end))

	status := svc.GetStatus()
	if status.ScheduledStart == nil || !status.ScheduledStart.Equal(start) {
		t.Errorf("scheduledStart = %v, want %v", status.ScheduledStart, start)
	}
	if status.ScheduledEnd == nil || !status.ScheduledEnd.Equal(end) {
		t.Errorf("scheduledEnd = %v, want %v", status.ScheduledEnd, end)
	}
	if !status.WithinSchedule {
		t.Error("withinSchedule = false inside the window")
	}
}
