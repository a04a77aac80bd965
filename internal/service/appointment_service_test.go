package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/dto"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/model"
)

func setupTestAppointmentService() (AppointmentService, *testEnv) {
	env := newTestEnv()
	return NewAppointmentService(env.repo, zap.NewNop()), env
}

func TestAppointmentService_GetByID(t *testing.T) {
	svc, env := setupTestAppointmentService()
	env.seedActivity("act-1", testOwnerID, model.ActivityScheduled)
	env.seedAppointment("appt-1", "act-1", testOwnerID, "2025-07-01", "10:00:00", "11:00:00", model.AppointmentScheduled)

	resp, err := svc.GetByID(context.Background(), "appt-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if resp.StartTime != "10:00" || resp.EndTime != "11:00" || resp.Date != "2025-07-01" {
		t.Errorf("时间应统一为 HH:MM: %+v", resp)
	}

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("期望 ErrAppointmentNotFound，得到 %v", err)
	}
}

func TestAppointmentService_List(t *testing.T) {
	svc, env := setupTestAppointmentService()
	env.seedActivity("act-1", testOwnerID, model.ActivityScheduled)
	env.seedAppointment("appt-1", "act-1", testOwnerID, "2025-07-01", "10:00", "11:00", model.AppointmentScheduled)
	env.seedAppointment("appt-2", "act-1", testOwnerID, "2025-07-08", "10:00", "11:00", model.AppointmentCancelled)
	env.seedAppointment("appt-3", "act-1", testOwnerID, "2025-07-15", "10:00", "11:00", model.AppointmentScheduled)

	tests := []struct {
		name string
		req  dto.AppointmentListRequest
		want []string
	}{
		{name: "全部", req: dto.AppointmentListRequest{}, want: []string{"appt-1", "appt-2", "appt-3"}},
		{name: "日期区间", req: dto.AppointmentListRequest{From: "2025-07-02", To: "2025-07-15"}, want: []string{"appt-2", "appt-3"}},
		{name: "状态", req: dto.AppointmentListRequest{Status: "scheduled"}, want: []string{"appt-1", "appt-3"}},
		{name: "其他场地", req: dto.AppointmentListRequest{PlaceID: "place-q"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(context.Background(), &tt.req)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			got := make([]string, 0, len(list))
			for _, a := range list {
				got = append(got, a.ID)
			}
			if !equalStrings(got, tt.want) {
				t.Errorf("List() = %v, want %v", got, tt.want)
			}
			for _, a := range list {
				if a.Place == nil || a.Place.Name != "Sala P" {
					t.Errorf("预约 %s 应附带场地名称，得到 %+v", a.ID, a.Place)
				}
			}
		})
	}
}

func TestAppointmentService_Delete(t *testing.T) {
	svc, env := setupTestAppointmentService()
	env.seedActivity("act-1", testOwnerID, model.ActivityScheduled)
	env.seedAppointment("appt-1", "act-1", testOwnerID, "2025-07-01", "10:00", "11:00", model.AppointmentScheduled)

	if err := svc.Delete(context.Background(), "appt-1", testOtherID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("期望 ErrForbidden，得到 %v", err)
	}
	if err := svc.Delete(context.Background(), "appt-1", testOwnerID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := env.appointments.appointments["appt-1"]; ok {
		t.Errorf("预约应被删除")
	}
}

func TestAppointmentService_Delete_ActivityClosed(t *testing.T) {
	svc, env := setupTestAppointmentService()
	env.seedActivity("act-1", testOwnerID, model.ActivityCompleted)
	env.seedAppointment("appt-1", "act-1", testOwnerID, "2025-07-01", "10:00", "11:00", model.AppointmentScheduled)

	if err := svc.Delete(context.Background(), "appt-1", testOwnerID); !errors.Is(err, ErrActivityClosed) {
		t.Errorf("期望 ErrActivityClosed，得到 %v", err)
	}
}

func TestAppointmentService_Delete_LocksActivityRow(t *testing.T) {
	svc, env := setupTestAppointmentService()
	env.seedActivity("act-1", testOwnerID, model.ActivityScheduled)
	env.seedAppointment("appt-1", "act-1", testOwnerID, "2025-07-01", "10:00", "11:00", model.AppointmentScheduled)

	if err := svc.Delete(context.Background(), "appt-1", testOwnerID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !equalStrings(env.activities.lockedIDs, []string{"act-1"}) {
		t.Errorf("lockedIDs = %v, want [act-1]", env.activities.lockedIDs)
	}
}

func TestPlaceService(t *testing.T) {
	env := newTestEnv()
	svc := NewPlaceService(env.repo, zap.NewNop())

	active, err := svc.List(context.Background(), &dto.PlaceListRequest{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != testPlaceID {
		t.Errorf("默认只列出启用场地: %+v", active)
	}

	all, err := svc.List(context.Background(), &dto.PlaceListRequest{IncludeInactive: true})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len = %d, want 2", len(all))
	}

	place, err := svc.GetByID(context.Background(), testPlaceID)
	if err != nil || place.Name != "Sala P" {
		t.Errorf("GetByID() = %+v, %v", place, err)
	}
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrPlaceNotFound) {
		t.Errorf("期望 ErrPlaceNotFound，得到 %v", err)
	}
}
