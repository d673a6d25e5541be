package status

import "testing"

func TestSnapshot_States(t *testing.T) {
	tests := []struct {
		status                                 string
		running, stopping, stopped, notRunning bool
	}{
		{"", false, false, true, false},
		{"Running", true, false, false, false},
		{"RUNNING", true, false, false, false},
		{"stopping", false, true, false, false},
		{"Stopped", false, false, true, false},
		{"Not Running", false, false, false, true},
		{"loading", false, false, false, false},
	}
	for _, tc := range tests {
		s := Snapshot{Status: tc.status}
		if got := s.IsRunning(); got != tc.running {
			t.Errorf("%q: IsRunning() = %v, want %v", tc.status, got, tc.running)
		}
		if got := s.IsStopping(); got != tc.stopping {
			t.Errorf("%q: IsStopping() = %v, want %v", tc.status, got, tc.stopping)
		}
		if got := s.IsStopped(); got != tc.stopped {
			t.Errorf("%q: IsStopped() = %v, want %v", tc.status, got, tc.stopped)
		}
		if got := s.IsNotRunning(); got != tc.notRunning {
			t.Errorf("%q: IsNotRunning() = %v, want %v", tc.status, got, tc.notRunning)
		}
	}
}

func TestSnapshot_HasWorld(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{"zero", Snapshot{}, false},
		{"named", Snapshot{WorldName: "Khazad-dûm"}, true},
		{"running unnamed", Snapshot{Status: "Running"}, false},
		{"stopping unnamed", Snapshot{Status: "Stopping"}, true},
		{"not running unnamed", Snapshot{Status: "not running"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.snap.HasWorld(); got != tc.want {
				t.Errorf("HasWorld() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSnapshot_Equality(t *testing.T) {
	a := Snapshot{Status: "Running", WorldName: "Moria", WorldSeed: 1}
	b := a
	if a != b {
		t.Error("copies should be equal")
	}
	b.Players = "1/8"
	if a == b {
		t.Error("snapshots differing in Players should not be equal")
	}
	if !(Snapshot{}).IsZero() || a.IsZero() {
		t.Error("IsZero mismatch")
	}
}
