package jobsettings

import (
	"strings"
	"testing"
	"time"

	"github.com/relaybatch/batchjob/basejob"
	"github.com/relaybatch/batchjob/jobdata"
)

// TestSettings_KeyConstruction is scenario S2 from the reference suite:
// jobType="testjob", jobVersion=1, runDate=2022-01-01T12:30, revision=0.
func TestSettings_KeyConstruction(t *testing.T) {
	settings, err := New(nil, "testjob", 1, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wantPartition := "testjob_1000001"
	if got := settings.GetJobPartition(); got != wantPartition {
		t.Errorf("GetJobPartition() = %q, want %q", got, wantPartition)
	}

	runDate := time.Date(2022, 1, 1, 12, 30, 0, 0, time.UTC)
	wantRowKey := "20220101_1000000_testjob_1000001"
	if got := settings.GetJobID(runDate, 0); got != wantRowKey {
		t.Errorf("GetJobID() = %q, want %q", got, wantRowKey)
	}

	info := settings.CreateInfo(0, runDate)
	if info.RowKey != wantRowKey {
		t.Errorf("CreateInfo RowKey = %q, want %q", info.RowKey, wantRowKey)
	}
	if info.PartitionKey != wantPartition {
		t.Errorf("CreateInfo PartitionKey = %q, want %q", info.PartitionKey, wantPartition)
	}
	gotRunDate, _ := info.Inputs.Get("runDate").(time.Time)
	wantNormalized := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	if !gotRunDate.Equal(wantNormalized) {
		t.Errorf("normalized runDate = %v, want %v", gotRunDate, wantNormalized)
	}
	if info.Status != jobdata.Pending {
		t.Errorf("Status = %v, want Pending", info.Status)
	}
	if got := info.States.GetAsString("lastProcessed"); got != "" {
		t.Errorf("lastProcessed = %q, want empty", got)
	}
}

func TestNew_RejectsJobTypeWithUnderscore(t *testing.T) {
	if _, err := New(nil, "test_job", 1, nil); err == nil {
		t.Error("New should reject a jobType containing '_'")
	}
}

func TestNew_DefaultsJobVersionToOne(t *testing.T) {
	settings, err := New(nil, "testjob", 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if settings.JobVersion != 1 {
		t.Errorf("JobVersion = %d, want 1", settings.JobVersion)
	}
}

func TestFactory_Create_UnregisteredNameYieldsDefault(t *testing.T) {
	f := NewFactory()
	settings := f.Create("myFriendlyJob")
	if settings.JobType != "myFriendlyJob" {
		t.Errorf("JobType = %q, want %q", settings.JobType, "myFriendlyJob")
	}
	if settings.JobVersion != 1 {
		t.Errorf("JobVersion = %d, want 1", settings.JobVersion)
	}
	if settings.MaxFailures != DefaultMaxFailures {
		t.Errorf("MaxFailures = %d, want %d", settings.MaxFailures, DefaultMaxFailures)
	}
}

func TestFactory_Create_UnregisteredNameWithUnderscoreIsSanitized(t *testing.T) {
	f := NewFactory()
	settings := f.Create("my_friendly_job")
	if strings.Contains(settings.JobType, "_") {
		t.Errorf("sanitized JobType should not contain '_', got %q", settings.JobType)
	}
}

func TestFactory_Create_RegisteredNameReturnsRegisteredSettings(t *testing.T) {
	f := NewFactory()
	settings, err := New(nil, "testjob", 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	settings.MaxFailures = 99
	f.Register("myJob", settings)

	got := f.Create("myJob")
	if got.MaxFailures != 99 {
		t.Errorf("MaxFailures = %d, want 99", got.MaxFailures)
	}
}

func TestDefaultConstructor_BuildsRunnable(t *testing.T) {
	info := &jobdata.JobInfo{PartitionKey: "p", RowKey: "r"}
	var r basejob.Runnable = DefaultConstructor(nil, info)
	if r == nil {
		t.Fatal("DefaultConstructor should never return nil")
	}
	if r.Info() != info {
		t.Error("Runnable.Info() should return the same JobInfo passed in")
	}
}
