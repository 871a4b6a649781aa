package jobdata

import (
	"context"
	"testing"
	"time"

	"github.com/relaybatch/batchjob/blobstore"
	"github.com/relaybatch/batchjob/config"
	"github.com/relaybatch/batchjob/rowstore"
)

func newTestStore() *Store {
	return NewStore(rowstore.NewInMemoryRowStore(), rowstore.NewInMemoryRowStore(), blobstore.NewInMemoryBlobStore())
}

func newTestInfo(partitionKey, rowKey string) *JobInfo {
	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return &JobInfo{
		PartitionKey: partitionKey,
		RowKey:       rowKey,
		Revision:     0,
		Inputs:       config.NewMapAttributes(),
		States:       config.NewMapAttributes(),
		Status:       Pending,
		CreateTime:   now,
		UpdateTime:   now,
	}
}

func TestStore_UpsertAndGetInfo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	info := newTestInfo("testjob_1000001", "20220101_1000000_testjob_1000001")
	info.States.Set("result", 42)

	if err := s.UpsertInfo(ctx, info); err != nil {
		t.Fatalf("UpsertInfo: %v", err)
	}

	got, err := s.GetInfo(ctx, info.RowKey)
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if got == nil {
		t.Fatal("GetInfo returned nil for a row that was upserted")
	}
	if got.PartitionKey != info.PartitionKey {
		t.Errorf("PartitionKey = %q, want %q", got.PartitionKey, info.PartitionKey)
	}
	if got.States.GetAsInt("result") != 42 {
		t.Errorf("States[result] = %d, want 42", got.States.GetAsInt("result"))
	}
}

func TestStore_GetInfo_RejectsWrongSegmentCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	if _, err := s.GetInfo(ctx, "only_three_parts"); err == nil {
		t.Error("GetInfo should reject a job id without exactly 4 segments")
	}
}

func TestStore_GetInfo_MissingRowReturnsNilNoError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	got, err := s.GetInfo(ctx, "20220101_1000000_testjob_1000001")
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if got != nil {
		t.Error("GetInfo should return nil for a missing row")
	}
}

func TestStore_CompleteRun_AppendsRunThenUpsertsInfo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	info := newTestInfo("testjob_1000001", "20220101_1000000_testjob_1000001")
	info.Status = Completed
	start := time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC)

	if err := s.CompleteRun(ctx, true, info, "done", start); err != nil {
		t.Fatalf("CompleteRun: %v", err)
	}

	runs, err := s.ListRuns(ctx, info.RowKey)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].IsError {
		t.Error("successful run should have IsError=false")
	}
	if runs[0].EndStatus != Completed {
		t.Errorf("EndStatus = %v, want Completed", runs[0].EndStatus)
	}

	got, err := s.GetInfo(ctx, info.RowKey)
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if got.Status != Completed {
		t.Errorf("persisted info status = %v, want Completed", got.Status)
	}
}

func TestStore_SummarizeFailures(t *testing.T) {
	ctx := context.Background()
	jobID := "20220101_1000000_testjob_1000001"

	tests := []struct {
		name       string
		errFlags   []bool // oldest to newest
		wantConsec int
		wantTotal  int
	}{
		{"newest is error", []bool{true, true, false, true}, 1, 3},
		{"newest is ok", []bool{true, true, true, false}, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			info := newTestInfo("testjob_1000001", jobID)

			base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
			for i, isErr := range tt.errFlags {
				start := base.Add(time.Duration(i) * time.Hour)
				status := Completed
				if isErr {
					status = Suspended
				}
				info.Status = status
				if err := s.CompleteRun(ctx, !isErr, info, "", start); err != nil {
					t.Fatalf("CompleteRun: %v", err)
				}
			}

			cons, total, err := s.SummarizeFailures(ctx, info)
			if err != nil {
				t.Fatalf("SummarizeFailures: %v", err)
			}
			if cons != tt.wantConsec || total != tt.wantTotal {
				t.Errorf("SummarizeFailures = (%d, %d), want (%d, %d)", cons, total, tt.wantConsec, tt.wantTotal)
			}
		})
	}
}

func TestStore_FailJob_NoRunRowAppended(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	info := newTestInfo("testjob_1000001", "20220101_1000000_testjob_1000001")
	if err := s.FailJob(ctx, info, time.Now().UTC()); err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	if info.Status != Failed {
		t.Errorf("Status = %v, want Failed", info.Status)
	}

	runs, err := s.ListRuns(ctx, info.RowKey)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no run rows after FailJob, got %d", len(runs))
	}
}

func TestStore_LeaseJob_NoBlobMeansNoLease(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	lease, err := s.LeaseJob(ctx, "testjob", 0)
	if err != nil {
		t.Fatalf("LeaseJob: %v", err)
	}
	if lease != nil {
		t.Error("LeaseJob should return a nil lease when the admin blob doesn't exist")
	}
}
