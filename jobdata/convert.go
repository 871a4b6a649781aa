package jobdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/relaybatch/batchjob/config"
	"github.com/relaybatch/batchjob/rowstore"
)

const (
	propRevision   = "revision"
	propInputs     = "inputs"
	propStates     = "states"
	propStatus     = "status"
	propCreateTime = "createTime"
	propUpdateTime = "updateTime"

	propIsError   = "isError"
	propMessage   = "message"
	propEndStatus = "endStatus"
	propStartTime = "startTime"
	propEndTime   = "endTime"
)

func infoToRow(info *JobInfo) *rowstore.Row {
	return &rowstore.Row{
		PartitionKey: info.PartitionKey,
		RowKey:       info.RowKey,
		Properties: map[string]any{
			propRevision:   info.Revision,
			propInputs:     attributesToMap(info.Inputs),
			propStates:     attributesToMap(info.States),
			propStatus:     string(info.Status),
			propCreateTime: info.CreateTime,
			propUpdateTime: info.UpdateTime,
		},
	}
}

func rowToInfo(row *rowstore.Row) *JobInfo {
	p := row.Properties
	return &JobInfo{
		PartitionKey: row.PartitionKey,
		RowKey:       row.RowKey,
		Revision:     asInt(p[propRevision]),
		Inputs:       mapToAttributes(p[propInputs]),
		States:       mapToAttributes(p[propStates]),
		Status:       JobStatus(asString(p[propStatus])),
		CreateTime:   asTime(p[propCreateTime]),
		UpdateTime:   asTime(p[propUpdateTime]),
	}
}

func runToRow(run *JobRun) *rowstore.Row {
	return &rowstore.Row{
		PartitionKey: run.PartitionKey,
		RowKey:       run.RowKey,
		Properties: map[string]any{
			propIsError:   run.IsError,
			propMessage:   run.Message,
			propEndStatus: string(run.EndStatus),
			propStartTime: run.StartTime,
			propEndTime:   run.EndTime,
		},
	}
}

func rowToRun(row *rowstore.Row) *JobRun {
	p := row.Properties
	return &JobRun{
		PartitionKey: row.PartitionKey,
		RowKey:       row.RowKey,
		IsError:      asBool(p[propIsError]),
		Message:      asString(p[propMessage]),
		EndStatus:    JobStatus(asString(p[propEndStatus])),
		StartTime:    asTime(p[propStartTime]),
		EndTime:      asTime(p[propEndTime]),
	}
}

func attributesToMap(a config.Attributes) map[string]any {
	if a == nil {
		return map[string]any{}
	}
	return a.AsMap()
}

func mapToAttributes(v any) config.Attributes {
	attrs := config.NewMapAttributes()
	if m, ok := v.(map[string]any); ok {
		for k, val := range m {
			attrs.Set(k, val)
		}
	}
	return attrs
}

// asInt, asString, asTime and asBool tolerate the lossy round trip a
// generic map[string]any Properties bag takes through a JSON-backed
// FileRowStore (ints become float64, time.Time becomes an RFC3339 string):
// an InMemoryRowStore never needs the fallback branch, a FileRowStore
// always does.

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}

// formatRunTimestamp renders t as YYYYMMDDHHMMSSffffff (microsecond
// precision, fixed width) so that JobRun RowKeys sort identically by string
// and by endTime.
func formatRunTimestamp(t time.Time) string {
	return fmt.Sprintf("%s%06d", t.Format("20060102150405"), t.Nanosecond()/1000)
}

// sortRunsByStartTimeDesc sorts runs newest-first, used by SummarizeFailures.
func sortRunsByStartTimeDesc(runs []*JobRun) {
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})
}
