package model

import "testing"

func TestParseGender(t *testing.T) {
	tests := []struct {
		in      string
		want    Gender
		wantErr bool
	}{
		{"male", Male, false},
		{"female", Female, false},
		{"Male", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseGender(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGender(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseGender(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGendersOrder(t *testing.T) {
	if len(Genders) != 2 || Genders[0] != Male || Genders[1] != Female {
		t.Errorf("Genders = %v, want [male female]", Genders)
	}
}
