package geom

import "testing"

func TestMinExtentAxis(t *testing.T) {
	tests := []struct {
		name string
		size Vec3
		want Axis
	}{
		{"x thinnest", Vec3{3, 5, 10}, AxisX},
		{"y thinnest", Vec3{8, 0.02, 4}, AxisY},
		{"z thinnest", Vec3{12, 6, 0.015}, AxisZ},
		{"x and y tie", Vec3{2, 2, 9}, AxisX},
		{"y and z tie", Vec3{9, 2, 2}, AxisY},
		{"all equal", Vec3{1, 1, 1}, AxisX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBox(Vec3{}, tt.size)
			if got := b.MinExtentAxis(); got != tt.want {
				t.Errorf("MinExtentAxis(%v) = %s, want %s", tt.size, got, tt.want)
			}
		})
	}
}

func TestNewBoxNormalizesCorners(t *testing.T) {
	b := NewBox(Vec3{10, -1, 4}, Vec3{2, 3, -4})
	if b.Min != (Vec3{2, -1, -4}) {
		t.Errorf("Min = %v", b.Min)
	}
	if b.Max != (Vec3{10, 3, 4}) {
		t.Errorf("Max = %v", b.Max)
	}
	if c := b.Center(); c != (Vec3{6, 1, 0}) {
		t.Errorf("Center = %v", c)
	}
}

func TestRangeContains(t *testing.T) {
	r := Range{Min: 10, Max: 20}
	tests := []struct {
		x    float64
		want bool
	}{
		{10, true},
		{20, true},
		{9.995, true},
		{20.009, true},
		{9.98, false},
		{20.02, false},
		{15, true},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.x, 0.01); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}

	reversed := Range{Min: 20, Max: 10}
	if !reversed.Contains(15, 0) {
		t.Error("reversed range should still contain its midpoint")
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(Vec3{0, 0, 0}, Vec3{3, 4, 0}); d != 5 {
		t.Errorf("Distance = %v, want 5", d)
	}
}
