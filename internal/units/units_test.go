package units

import (
	"errors"
	"testing"
)

func TestSMCSpeed(t *testing.T) {
	tests := []struct {
		name    string
		speed   int
		want    int
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"full forward", 100, 3200, false},
		{"full reverse", -100, -3200, false},
		{"half forward", 50, 1600, false},
		{"one", 1, 32, false},
		{"over range", 101, 0, true},
		{"under range", -101, 0, true},
		{"far over range", 1000, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SMCSpeed(tt.speed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SMCSpeed(%d) error = %v, wantErr %v", tt.speed, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SMCSpeed(%d) = %d, want %d", tt.speed, got, tt.want)
			}
		})
	}
}

func TestSMCSpeedRoundTrip(t *testing.T) {
	// The SMC conversion is exact: every in-range logical speed must
	// survive a convert/unconvert cycle unchanged.
	for v := MinSpeed; v <= MaxSpeed; v++ {
		native, err := SMCSpeed(v)
		if err != nil {
			t.Fatalf("SMCSpeed(%d) unexpected error: %v", v, err)
		}
		if got := SMCSpeedToLogical(native); got != v {
			t.Fatalf("round trip of %d came back as %d (native %d)", v, got, native)
		}
	}
}

func TestSMCBrake(t *testing.T) {
	tests := []struct {
		name    string
		brake   int
		want    int
		wantErr bool
	}{
		{"minimum", 1, 1, false},
		{"below knee", 2, 1, false},
		{"knee", 3, 0, false},
		{"mid", 50, 15, false},
		{"maximum", 100, 32, false},
		{"zero", 0, 0, true},
		{"over range", 101, 0, true},
		{"negative", -5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SMCBrake(tt.brake)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SMCBrake(%d) error = %v, wantErr %v", tt.brake, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SMCBrake(%d) = %d, want %d", tt.brake, got, tt.want)
			}
		})
	}
}

func TestSabertoothSpeed(t *testing.T) {
	tests := []struct {
		name    string
		speed   int
		want    int
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"full forward", 100, 63, false},
		{"full reverse", -100, -63, false},
		{"half truncates", 50, 31, false},
		{"small truncates to zero", 1, 0, false},
		{"negative truncates toward zero", -50, -31, false},
		{"over range", 101, 0, true},
		{"under range", -101, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SabertoothSpeed(tt.speed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SabertoothSpeed(%d) error = %v, wantErr %v", tt.speed, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SabertoothSpeed(%d) = %d, want %d", tt.speed, got, tt.want)
			}
		})
	}
}

func TestRangeErrorMessage(t *testing.T) {
	_, err := SMCSpeed(250)
	if err == nil {
		t.Fatal("expected error for out-of-range speed")
	}
	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RangeError, got %T", err)
	}
	if re.Min != MinSpeed || re.Max != MaxSpeed || re.Got != 250 {
		t.Errorf("unexpected range error fields: %+v", re)
	}
}
