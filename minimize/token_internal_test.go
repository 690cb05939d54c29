package minimize

import "testing"

func TestRegisterToken(t *testing.T) {
	cases := []struct {
		token string
		want  string
		ok    bool
	}{
		{"x0", "x0", true},
		{"x31", "x31", true},
		{"f15", "f15", true},
		{"x5,", "x5", true},
		{" f2 ", "f2", true},
		{"x32", "", false},
		{"x", "", false},
		{"t0", "", false},
		{"fadd", "", false},
		{"x1a", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		got, ok := registerToken(c.token)
		if ok != c.ok || got != c.want {
			t.Errorf("registerToken(%q) = %q, %v; want %q, %v",
				c.token, got, ok, c.want, c.ok)
		}
	}
}

func TestTrimToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"x1", "x1"},
		{"  x1,", "x1"},
		{"label:", "label"},
		{",,", ""},
	}

	for _, c := range cases {
		if got := trimToken(c.in); got != c.want {
			t.Errorf("trimToken(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}
