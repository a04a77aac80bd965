package model

import (
	"testing"
	"time"
)

func TestParseRecurrenceKind(t *testing.T) {
	tests := []struct {
		input string
		want  RecurrenceKind
		ok    bool
	}{
		{"single", RecurrenceSingle, true},
		{"Única", RecurrenceSingle, true},
		{"unica", RecurrenceSingle, true},
		{"Puntual", RecurrenceSingle, true},
		{"1", RecurrenceSingle, true},
		{"diaria", RecurrenceDaily, true},
		{" DAILY ", RecurrenceDaily, true},
		{"semanal", RecurrenceWeekly, true},
		{"Periódica", RecurrenceWeekly, true},
		{"3", RecurrenceWeekly, true},
		{"mensual", RecurrenceMonthly, true},
		{"4", RecurrenceMonthly, true},
		{"anual", "", false},
		{"", "", false},
		{"5", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRecurrenceKind(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseRecurrenceKind(%q) = (%q, %v)，期望 (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"09:00:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"9:30", 570, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12", 0, true},
		{"ab:cd", 0, true},
		{"12:5", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) err=%v，期望 wantErr=%v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseClock(%q) = %d，期望 %d", tt.input, got, tt.want)
		}
	}
}

func TestTimeWindowOverlaps(t *testing.T) {
	base, _ := ParseWindow("09:00", "10:00")

	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"部分重叠", "09:30", "10:30", true},
		{"完全包含", "09:15", "09:45", true},
		{"完全覆盖", "08:00", "11:00", true},
		{"首尾相接-之后", "10:00", "11:00", false},
		{"首尾相接-之前", "08:00", "09:00", false},
		{"完全分离", "12:00", "13:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other, err := ParseWindow(tt.start, tt.end)
			if err != nil {
				t.Fatalf("ParseWindow 失败: %v", err)
			}
			if got := base.Overlaps(other); got != tt.want {
				t.Errorf("Overlaps = %v，期望 %v", got, tt.want)
			}
			// 交换顺序结果一致
			if got := other.Overlaps(base); got != tt.want {
				t.Errorf("交换后 Overlaps = %v，期望 %v", got, tt.want)
			}
		})
	}
}

func TestParseWindow_StartNotBeforeEnd(t *testing.T) {
	if _, err := ParseWindow("10:00", "10:00"); err == nil {
		t.Error("起止相同应返回错误")
	}
	if _, err := ParseWindow("11:00", "10:00"); err == nil {
		t.Error("开始晚于结束应返回错误")
	}
}

func TestActivityLastDate(t *testing.T) {
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 22, 0, 0, 0, 0, time.UTC)

	single := Activity{Recurrence: RecurrenceSingle, StartDate: start, EndDate: &end}
	if !single.LastDate().Equal(start) {
		t.Errorf("单次活动 LastDate 应为开始日期，实际 %v", single.LastDate())
	}

	weekly := Activity{Recurrence: RecurrenceWeekly, StartDate: start, EndDate: &end}
	if !weekly.LastDate().Equal(end) {
		t.Errorf("周期活动 LastDate 应为结束日期，实际 %v", weekly.LastDate())
	}
}
