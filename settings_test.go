package drape

import (
	"errors"
	"testing"

	"github.com/akmonengine/drape/actor"
)

func TestSolveSchedule_Text(t *testing.T) {
	tests := []struct {
		text     string
		expected SolveSchedule
	}{
		{"coloring", ScheduleColoring},
		{"jacobi", ScheduleJacobi},
		{"Hybrid", ScheduleHybrid},
		{" JACOBI ", ScheduleJacobi},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var schedule SolveSchedule
			if err := schedule.UnmarshalText([]byte(tt.text)); err != nil {
				t.Fatalf("UnmarshalText(%q) error = %v", tt.text, err)
			}
			if schedule != tt.expected {
				t.Errorf("UnmarshalText(%q) = %v, want %v", tt.text, schedule, tt.expected)
			}
		})
	}

	var schedule SolveSchedule
	if err := schedule.UnmarshalText([]byte("gauss-seidel")); !errors.Is(err, ErrUnknownSchedule) {
		t.Errorf("UnmarshalText() error = %v, want ErrUnknownSchedule", err)
	}
	if _, err := SolveSchedule(7).MarshalText(); !errors.Is(err, ErrUnknownSchedule) {
		t.Errorf("MarshalText() error = %v, want ErrUnknownSchedule", err)
	}
	if text, _ := ScheduleHybrid.MarshalText(); string(text) != "hybrid" {
		t.Errorf("MarshalText() = %q, want hybrid", text)
	}
	if SolveSchedule(7).String() != "SolveSchedule(7)" {
		t.Errorf("String() = %q", SolveSchedule(7).String())
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(s *Settings)
		wantErr bool
	}{
		{"defaults", func(s *Settings) {}, false},
		{"zero iterations", func(s *Settings) { s.IterationsPerFrame = 0 }, true},
		{"negative step time", func(s *Settings) { s.StepTime = -0.1 }, true},
		{"zero step time", func(s *Settings) { s.StepTime = 0 }, true},
		{"unknown schedule", func(s *Settings) { s.Schedule = SolveSchedule(9) }, true},
		{"unknown axis", func(s *Settings) { s.UpAxis = actor.Axis(3) }, true},
		{"jacobi without relaxation", func(s *Settings) {
			s.Schedule = ScheduleJacobi
			s.JacobiRelaxation = 0
		}, true},
		{"coloring ignores relaxation", func(s *Settings) { s.JacobiRelaxation = 0 }, false},
		{"negative hybrid passes", func(s *Settings) { s.HybridColoringPasses = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)

			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("Validate() error = %v, want ErrInvalidSettings", err)
			}
		})
	}
}
