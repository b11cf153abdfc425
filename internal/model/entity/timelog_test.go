package entity

import (
	"errors"
	"testing"
	"time"
)

func TestTimeLogStartPauseAccumulates(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	var tl TimeLog

	if err := tl.Start(base); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if !tl.Running() {
		t.Fatal("expected running after start")
	}
	if err := tl.Pause(base.Add(10 * time.Minute)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if tl.ActualDuration != 600 {
		t.Fatalf("expected 600s after first session, got %d", tl.ActualDuration)
	}
	if tl.Running() {
		t.Fatal("expected not running after pause")
	}

	// 第二个会话
	if err := tl.Start(base.Add(30 * time.Minute)); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := tl.End(base.Add(45 * time.Minute)); err != nil {
		t.Fatalf("end: %v", err)
	}
	// 暂停的20分钟不计入
	if tl.ActualDuration != 600+900 {
		t.Fatalf("expected 1500s total, got %d", tl.ActualDuration)
	}
	if !tl.Finished() {
		t.Fatal("expected finished after end")
	}
}

func TestTimeLogActualStartTimeIsFirstStart(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	var tl TimeLog

	tl.Start(base)
	tl.Pause(base.Add(time.Minute))
	tl.Start(base.Add(time.Hour))

	if tl.ActualStartTime == nil || !tl.ActualStartTime.Equal(base) {
		t.Fatalf("expected actual start time to stay at first start, got %v", tl.ActualStartTime)
	}
}

func TestTimeLogDoubleStartRejected(t *testing.T) {
	var tl TimeLog
	now := time.Now()

	if err := tl.Start(now); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tl.Start(now.Add(time.Second)); !errors.Is(err, ErrTimerRunning) {
		t.Fatalf("expected ErrTimerRunning, got %v", err)
	}
}

func TestTimeLogPauseWithoutStartRejected(t *testing.T) {
	var tl TimeLog
	if err := tl.Pause(time.Now()); !errors.Is(err, ErrTimerNotRunning) {
		t.Fatalf("expected ErrTimerNotRunning, got %v", err)
	}
}

func TestTimeLogEndWithoutStartRejected(t *testing.T) {
	var tl TimeLog
	if err := tl.End(time.Now()); !errors.Is(err, ErrTimerNotRunning) {
		t.Fatalf("expected ErrTimerNotRunning, got %v", err)
	}
}

func TestTimeLogEndedIsTerminal(t *testing.T) {
	now := time.Now()
	var tl TimeLog

	tl.Start(now)
	if err := tl.End(now.Add(time.Minute)); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := tl.End(now.Add(2 * time.Minute)); !errors.Is(err, ErrTimerEnded) {
		t.Fatalf("expected ErrTimerEnded on double end, got %v", err)
	}
	if err := tl.Start(now.Add(3 * time.Minute)); !errors.Is(err, ErrTimerEnded) {
		t.Fatalf("expected ErrTimerEnded on start after end, got %v", err)
	}
}

func TestTimeLogReopenKeepsDuration(t *testing.T) {
	now := time.Now()
	var tl TimeLog

	tl.Start(now)
	tl.End(now.Add(20 * time.Minute))
	tl.Reopen()

	if tl.Finished() || tl.Running() {
		t.Fatal("expected reopened timer to be neither running nor finished")
	}
	if tl.ActualDuration != 1200 {
		t.Fatalf("expected duration preserved across reopen, got %d", tl.ActualDuration)
	}
	if err := tl.Start(now.Add(time.Hour)); err != nil {
		t.Fatalf("restart after reopen: %v", err)
	}
}

func TestJobItemAllWorkersEnded(t *testing.T) {
	now := time.Now()
	end := now.Add(time.Hour)

	item := JobItem{Workers: []WorkerAssignment{
		{WorkerID: "w1", TimeLog: TimeLog{EndTime: &end, ActualDuration: 3600}},
		{WorkerID: "w2", TimeLog: TimeLog{StartTime: &now, ActualDuration: 120}},
	}}
	if item.AllWorkersEnded() {
		t.Fatal("expected false while a worker timer is still open")
	}
	item.Workers[1].TimeLog = TimeLog{EndTime: &end, ActualDuration: 120}
	if !item.AllWorkersEnded() {
		t.Fatal("expected true once every worker timer ended")
	}
	if got := item.WorkerSeconds(); got != 3720 {
		t.Fatalf("expected 3720 worker seconds, got %d", got)
	}
}

func TestJobCardAllItemsCompleted(t *testing.T) {
	var job JobCard
	if job.AllItemsCompleted() {
		t.Fatal("card without items must not count as completed")
	}
	job.JobItems = []JobItem{
		{Status: JobStatusCompleted},
		{Status: JobStatusInProgress},
	}
	if job.AllItemsCompleted() {
		t.Fatal("expected false with an in-progress item")
	}
	job.JobItems[1].Status = JobStatusCompleted
	if !job.AllItemsCompleted() {
		t.Fatal("expected true with all items completed")
	}
}

func TestJobCardMachineIDsDeduplicates(t *testing.T) {
	job := JobCard{JobItems: []JobItem{
		{Machines: []MachineAssignment{{MachineID: "m1"}, {MachineID: "m2"}}},
		{Machines: []MachineAssignment{{MachineID: "m2"}, {MachineID: "m3"}}},
	}}
	ids := job.MachineIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 unique machine ids, got %v", ids)
	}
}
