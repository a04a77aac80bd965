package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/config"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
)

type mockLifecycle struct {
	asOf   time.Time
	result []string
	err    error
}

func (m *mockLifecycle) CancelActivity(context.Context, string, string, string) (*dto.CancelActivityResponse, error) {
	return nil, nil
}
func (m *mockLifecycle) CancelAppointment(context.Context, string, string, string) (*dto.AppointmentResponse, error) {
	return nil, nil
}
func (m *mockLifecycle) CompleteActivity(context.Context, string, string) (*dto.ActivityResponse, error) {
	return nil, nil
}
func (m *mockLifecycle) CompleteExpired(_ context.Context, asOf time.Time) ([]string, error) {
	m.asOf = asOf
	return m.result, m.err
}

func TestCompletionJob_Run_UsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("CLT", -4*3600)
	lc := &mockLifecycle{result: []string{"act-1", "act-2"}}
	j := NewCompletionJob(lc, loc, zap.NewNop())
	// UTC 已是 7 月 2 日，本地仍是 7 月 1 日
	j.now = func() time.Time { return time.Date(2025, 7, 2, 2, 0, 0, 0, time.UTC) }

	completed, err := j.Run(context.Background())
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if len(completed) != 2 {
		t.Errorf("expected 2 completed, got %d", len(completed))
	}
	want := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if !lc.asOf.Equal(want) {
		t.Errorf("as_of = %v, want %v", lc.asOf, want)
	}
}

func TestCompletionJob_Run_PropagatesError(t *testing.T) {
	lc := &mockLifecycle{err: errors.New("db down")}
	j := NewCompletionJob(lc, nil, zap.NewNop())

	if _, err := j.Run(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestNewScheduler(t *testing.T) {
	j := NewCompletionJob(&mockLifecycle{}, time.UTC, zap.NewNop())

	tests := []struct {
		name        string
		cfg         config.JobsConfig
		wantEntries int
		wantErr     bool
	}{
		{"未启用", config.JobsConfig{CompletionEnabled: false}, 0, false},
		{"默认表达式", config.JobsConfig{CompletionEnabled: true}, 1, false},
		{"自定义表达式", config.JobsConfig{CompletionEnabled: true, CompletionCron: "0 * * * *"}, 1, false},
		{"非法表达式", config.JobsConfig{CompletionEnabled: true, CompletionCron: "every day"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(&tt.cfg, j, zap.NewNop())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Entries() != tt.wantEntries {
				t.Errorf("entries = %d, want %d", s.Entries(), tt.wantEntries)
			}

			s.Start()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			s.Stop(ctx)
		})
	}
}
