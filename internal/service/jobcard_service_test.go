package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/bitfantasy/nimo-repair/internal/testutil"
	"gorm.io/gorm"
)

func setupServiceTest(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svcs := NewServices(repos, db, nil)

	testutil.SeedTestShop(t, db, "shop-001", "旗舰店")
	testutil.SeedTestCustomer(t, db, "cust-001", "张三")
	testutil.SeedTestWorker(t, db, "worker-001", "shop-001", "李师傅")
	testutil.SeedTestWorker(t, db, "worker-002", "shop-001", "王师傅")
	testutil.SeedTestMachineCategory(t, db, "cat-lift", "shop-001", "举升机", 120)
	testutil.SeedTestMachine(t, db, "machine-001", "shop-001", "cat-lift", "举升机1号")
	testutil.SeedTestMachine(t, db, "machine-002", "shop-001", "cat-lift", "举升机2号")
	testutil.SeedTestTemplate(t, db, "tmpl-001", "常规保养")

	return svcs, db
}

func createTestJob(t *testing.T, svcs *Services, items []CreateJobItemRequest) *entity.JobCard {
	t.Helper()
	job, err := svcs.JobCard.Create(context.Background(), CreateJobCardRequest{
		TemplateID: "tmpl-001",
		ShopID:     "shop-001",
		CustomerID: "cust-001",
		FormData:   entity.JSONB{"vehicle_no": "浙A12345"},
		Items:      items,
	}, "test-user-001")
	if err != nil {
		t.Fatalf("create job card: %v", err)
	}
	return job
}

// endWorkerSession 直接落库一段已结束的人员计时，避免测试真实等待
func endWorkerSession(t *testing.T, db *gorm.DB, itemID, workerID string, seconds int64) {
	t.Helper()
	end := time.Now()
	start := end.Add(-time.Duration(seconds) * time.Second)
	err := db.Model(&entity.WorkerAssignment{}).
		Where("job_item_id = ? AND worker_id = ?", itemID, workerID).
		Updates(map[string]interface{}{
			"start_time":        nil,
			"end_time":          end,
			"actual_start_time": start,
			"actual_duration":   seconds,
		}).Error
	if err != nil {
		t.Fatalf("end worker session: %v", err)
	}
}

func TestCreateJobCard(t *testing.T) {
	svcs, _ := setupServiceTest(t)

	job := createTestJob(t, svcs, []CreateJobItemRequest{
		{
			ItemData:       entity.JSONB{"name": "机油更换"},
			EstimatedPrice: 300,
			Machines:       []string{"machine-001"},
			AllowedWorkers: []AllowedWorkerRequest{{Category: "机修", Hours: 1.5, Count: 1, Rate: 80}},
			Consumables:    []ConsumableRequest{{Name: "机油 5W-30", Price: 60}},
		},
		{
			ItemData:       entity.JSONB{"name": "四轮定位"},
			EstimatedPrice: 200,
		},
	})

	if !strings.HasPrefix(job.JobNumber, "JC-") {
		t.Fatalf("unexpected job number %q", job.JobNumber)
	}
	if job.Status != entity.JobStatusWaiting {
		t.Fatalf("expected waiting status, got %s", job.Status)
	}
	if job.TotalEstimatedAmount != 500 {
		t.Fatalf("expected total estimate 500, got %v", job.TotalEstimatedAmount)
	}
	if len(job.JobItems) != 2 {
		t.Fatalf("expected 2 items, got %d", len(job.JobItems))
	}

	item := job.JobItems[0]
	if len(item.Machines) != 1 || item.Machines[0].MachineRate != 120 {
		t.Fatalf("expected machine rate snapshot 120, got %+v", item.Machines)
	}
	if item.Status != entity.JobStatusPending {
		t.Fatalf("expected pending item, got %s", item.Status)
	}
	if len(item.Consumables) != 1 || item.Consumables[0].NumberOfUsed != 0 {
		t.Fatalf("expected fresh consumable, got %+v", item.Consumables)
	}
}

func TestCreateJobCardUnknownTemplate(t *testing.T) {
	svcs, _ := setupServiceTest(t)

	_, err := svcs.JobCard.Create(context.Background(), CreateJobCardRequest{
		TemplateID: "tmpl-missing",
		ShopID:     "shop-001",
		CustomerID: "cust-001",
		Items:      []CreateJobItemRequest{{EstimatedPrice: 100}},
	}, "test-user-001")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateJobCardUnknownMachineFailsWholeCreate(t *testing.T) {
	svcs, db := setupServiceTest(t)

	_, err := svcs.JobCard.Create(context.Background(), CreateJobCardRequest{
		TemplateID: "tmpl-001",
		ShopID:     "shop-001",
		CustomerID: "cust-001",
		Items: []CreateJobItemRequest{
			{EstimatedPrice: 100},
			{EstimatedPrice: 200, Machines: []string{"machine-missing"}},
		},
	}, "test-user-001")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var count int64
	db.Model(&entity.JobCard{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no job card persisted, found %d", count)
	}
}

func TestAssignWorkerIdempotent(t *testing.T) {
	svcs, db := setupServiceTest(t)
	ctx := context.Background()

	job := createTestJob(t, svcs, []CreateJobItemRequest{{EstimatedPrice: 100}})
	itemID := job.JobItems[0].ID

	if _, err := svcs.JobCard.AssignWorker(ctx, job.ID, itemID, "worker-001"); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if _, err := svcs.JobCard.AssignWorker(ctx, job.ID, itemID, "worker-001"); err != nil {
		t.Fatalf("repeat assign: %v", err)
	}

	var count int64
	db.Model(&entity.WorkerAssignment{}).Where("job_item_id = ?", itemID).Count(&count)
	if count != 1 {
		t.Fatalf("expected single assignment row, got %d", count)
	}

	if _, err := svcs.JobCard.AssignWorker(ctx, job.ID, itemID, "worker-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown worker, got %v", err)
	}
}

func TestWorkerTimerLifecycle(t *testing.T) {
	svcs, _ := setupServiceTest(t)
	ctx := context.Background()

	job := createTestJob(t, svcs, []CreateJobItemRequest{{EstimatedPrice: 100}})
	itemID := job.JobItems[0].ID
	svcs.JobCard.AssignWorker(ctx, job.ID, itemID, "worker-001")

	wa, err := svcs.Timer.StartWorkerTimer(ctx, job.ID, itemID, "worker-001")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !wa.Running() {
		t.Fatal("expected running assignment")
	}

	// 开工推进状态
	fresh, _ := svcs.JobCard.GetByID(ctx, job.ID)
	if fresh.Status != entity.JobStatusInProgress {
		t.Fatalf("expected card in_progress, got %s", fresh.Status)
	}
	if fresh.JobItems[0].Status != entity.JobStatusInProgress {
		t.Fatalf("expected item in_progress, got %s", fresh.JobItems[0].Status)
	}

	if _, err := svcs.Timer.StartWorkerTimer(ctx, job.ID, itemID, "worker-001"); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on double start, got %v", err)
	}

	if _, err := svcs.Timer.PauseWorkerTimer(ctx, job.ID, itemID, "worker-001"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := svcs.Timer.PauseWorkerTimer(ctx, job.ID, itemID, "worker-001"); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on double pause, got %v", err)
	}

	if _, err := svcs.Timer.StartWorkerTimer(ctx, job.ID, itemID, "worker-001"); err != nil {
		t.Fatalf("restart after pause: %v", err)
	}
	wa, err = svcs.Timer.EndWorkerTimer(ctx, job.ID, itemID, "worker-001")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if !wa.Finished() {
		t.Fatal("expected finished assignment")
	}
	if _, err := svcs.Timer.StartWorkerTimer(ctx, job.ID, itemID, "worker-001"); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on start after end, got %v", err)
	}
}

func TestCompleteItemRequiresEndedTimers(t *testing.T) {
	svcs, db := setupServiceTest(t)
	ctx := context.Background()

	job := createTestJob(t, svcs, []CreateJobItemRequest{{EstimatedPrice: 100}})
	itemID := job.JobItems[0].ID
	svcs.JobCard.AssignWorker(ctx, job.ID, itemID, "worker-001")
	svcs.JobCard.AssignWorker(ctx, job.ID, itemID, "worker-002")

	svcs.Timer.StartWorkerTimer(ctx, job.ID, itemID, "worker-001")
	svcs.Timer.PauseWorkerTimer(ctx, job.ID, itemID, "worker-001")

	// 暂停不算结束
	if _, err := svcs.JobCard.CompleteJobItem(ctx, job.ID, itemID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict with open timers, got %v", err)
	}

	endWorkerSession(t, db, itemID, "worker-001", 3600)
	endWorkerSession(t, db, itemID, "worker-002", 1800)

	card, err := svcs.JobCard.CompleteJobItem(ctx, job.ID, itemID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if card.ActualManHours != 5400 {
		t.Fatalf("expected 5400s man-hours rollup, got %d", card.ActualManHours)
	}
	if card.Status != entity.JobStatusCompleted {
		t.Fatalf("expected completed card, got %s", card.Status)
	}

	// 汇总只发生一次
	if _, err := svcs.JobCard.CompleteJobItem(ctx, job.ID, itemID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on repeat complete, got %v", err)
	}
	fresh, _ := svcs.JobCard.GetByID(ctx, job.ID)
	if fresh.ActualManHours != 5400 {
		t.Fatalf("man-hours changed on repeat complete: %d", fresh.ActualManHours)
	}
}

func TestCompleteItemReleasesMachines(t *testing.T) {
	svcs, db := setupServiceTest(t)
	ctx := context.Background()

	job := createTestJob(t, svcs, []CreateJobItemRequest{
		{EstimatedPrice: 100, Machines: []string{"machine-001"}},
	})
	itemID := job.JobItems[0].ID

	if _, err := svcs.Timer.StartMachineTimer(ctx, job.ID, itemID, "machine-001"); err != nil {
		t.Fatalf("start machine: %v", err)
	}

	var m entity.Machine
	db.First(&m, "id = ?", "machine-001")
	if m.IsAvailable || m.JobID == nil || *m.JobID != job.ID {
		t.Fatalf("expected machine held by job, got %+v", m)
	}

	// 完成工项同时关闭设备会话并释放设备
	if _, err := svcs.JobCard.CompleteJobItem(ctx, job.ID, itemID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	db.First(&m, "id = ?", "machine-001")
	if !m.IsAvailable || m.JobID != nil {
		t.Fatalf("expected machine released, got %+v", m)
	}
}

func TestCompleteItemKeepsMachineBusyInSiblingItem(t *testing.T) {
	svcs, db := setupServiceTest(t)
	ctx := context.Background()

	job := createTestJob(t, svcs, []CreateJobItemRequest{
		{EstimatedPrice: 100, Machines: []string{"machine-001"}},
		{EstimatedPrice: 200, Machines: []string{"machine-001"}},
	})
	itemA := job.JobItems[0].ID
	itemB := job.JobItems[1].ID

	// 设备会话开在工项B上
	if _, err := svcs.Timer.StartMachineTimer(ctx, job.ID, itemB, "machine-001"); err != nil {
		t.Fatalf("start machine on item B: %v", err)
	}

	if _, err := svcs.JobCard.CompleteJobItem(ctx, job.ID, itemA); err != nil {
		t.Fatalf("complete item A: %v", err)
	}

	// 完成A不释放B仍在使用的设备
	var m entity.Machine
	db.First(&m, "id = ?", "machine-001")
	if m.IsAvailable || m.JobID == nil || *m.JobID != job.ID {
		t.Fatalf("expected machine still held by job, got %+v", m)
	}

	if _, err := svcs.Timer.EndMachineTimer(ctx, job.ID, itemB, "machine-001"); err != nil {
		t.Fatalf("end machine on item B: %v", err)
	}
	db.First(&m, "id = ?", "machine-001")
	if !m.IsAvailable || m.JobID != nil {
		t.Fatalf("expected machine released after item B ends, got %+v", m)
	}
}

func TestEndMachineTimerOnlyReleasesOwnHold(t *testing.T) {
	svcs, db := setupServiceTest(t)
	ctx := context.Background()

	job := createTestJob(t, svcs, []CreateJobItemRequest{
		{EstimatedPrice: 100, Machines: []string{"machine-001"}},
	})
	itemID := job.JobItems[0].ID
	if _, err := svcs.Timer.StartMachineTimer(ctx, job.ID, itemID, "machine-001"); err != nil {
		t.Fatalf("start machine: %v", err)
	}

	// 设备占用已易主给另一工单
	if err := db.Model(&entity.Machine{}).Where("id = ?", "machine-001").
		Updates(map[string]interface{}{"is_available": false, "job_id": "job-other"}).Error; err != nil {
		t.Fatalf("reassign holder: %v", err)
	}

	if _, err := svcs.Timer.EndMachineTimer(ctx, job.ID, itemID, "machine-001"); err != nil {
		t.Fatalf("end machine: %v", err)
	}

	var m entity.Machine
	db.First(&m, "id = ?", "machine-001")
	if m.IsAvailable || m.JobID == nil || *m.JobID != "job-other" {
		t.Fatalf("expected other job's hold untouched, got %+v", m)
	}
}

func TestMachineExclusivity(t *testing.T) {
	svcs, _ := setupServiceTest(t)
	ctx := context.Background()

	jobA := createTestJob(t, svcs, []CreateJobItemRequest{
		{EstimatedPrice: 100, Machines: []string{"machine-001"}},
	})
	jobB := createTestJob(t, svcs, []CreateJobItemRequest{
		{EstimatedPrice: 100, Machines: []string{"machine-001"}},
	})
	itemA := jobA.JobItems[0].ID
	itemB := jobB.JobItems[0].ID

	if _, err := svcs.Timer.StartMachineTimer(ctx, jobA.ID, itemA, "machine-001"); err != nil {
		t.Fatalf("job A start machine: %v", err)
	}
	if _, err := svcs.Timer.StartMachineTimer(ctx, jobB.ID, itemB, "machine-001"); !errors.Is(err, ErrResourceConflict) {
		t.Fatalf("expected ErrResourceConflict for held machine, got %v", err)
	}

	if _, err := svcs.Timer.EndMachineTimer(ctx, jobA.ID, itemA, "machine-001"); err != nil {
		t.Fatalf("job A end machine: %v", err)
	}
	if _, err := svcs.Timer.StartMachineTimer(ctx, jobB.ID, itemB, "machine-001"); err != nil {
		t.Fatalf("job B start after release: %v", err)
	}
}

func TestRecordConsumableUsage(t *testing.T) {
	svcs, _ := setupServiceTest(t)
	ctx := context.Background()

	job := createTestJob(t, svcs, []CreateJobItemRequest{
		{EstimatedPrice: 100, Consumables: []ConsumableRequest{{Name: "刹车油", Price: 10}}},
	})
	itemID := job.JobItems[0].ID
	consumableID := job.JobItems[0].Consumables[0].ID

	if _, err := svcs.JobCard.RecordConsumableUsage(ctx, job.ID, itemID, consumableID, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for zero qty, got %v", err)
	}

	c, err := svcs.JobCard.RecordConsumableUsage(ctx, job.ID, itemID, consumableID, 5)
	if err != nil {
		t.Fatalf("record usage: %v", err)
	}
	if c.NumberOfUsed != 5 || !c.Available {
		t.Fatalf("unexpected consumable state %+v", c)
	}

	// 只增不减
	if _, err := svcs.JobCard.RecordConsumableUsage(ctx, job.ID, itemID, consumableID, 2); err != nil {
		t.Fatalf("second usage: %v", err)
	}
	fresh, _ := svcs.JobCard.GetByID(ctx, job.ID)
	if fresh.JobItems[0].Consumables[0].NumberOfUsed != 7 {
		t.Fatalf("expected 7 used, got %d", fresh.JobItems[0].Consumables[0].NumberOfUsed)
	}
	if fresh.ActualTotalAmount != 70 {
		t.Fatalf("expected actual amount 70, got %v", fresh.ActualTotalAmount)
	}
}

func TestListJobCards(t *testing.T) {
	svcs, _ := setupServiceTest(t)
	ctx := context.Background()

	job := createTestJob(t, svcs, []CreateJobItemRequest{{EstimatedPrice: 100}})
	createTestJob(t, svcs, []CreateJobItemRequest{{EstimatedPrice: 200}})

	jobs, total, err := svcs.JobCard.List(ctx, repository.JobCardListParams{ShopID: "shop-001"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got total=%d len=%d", total, len(jobs))
	}

	_, total, err = svcs.JobCard.List(ctx, repository.JobCardListParams{Keyword: job.JobNumber})
	if err != nil {
		t.Fatalf("list by keyword: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 job by number keyword, got %d", total)
	}
}
