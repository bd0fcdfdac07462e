package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/zephyrtronium/formula"
	"github.com/zephyrtronium/formula/cache"
)

func TestParseSweep(t *testing.T) {
	cases := []struct {
		in   string
		want *sweepConfig
	}{
		{"0:1:10", &sweepConfig{From: 0, To: 1, Steps: 10}},
		{"-3.5:2e1:1", &sweepConfig{From: -3.5, To: 20, Steps: 1}},
		{"0:1", nil},
		{"0:1:0", nil},
		{"a:1:2", nil},
		{"0:b:2", nil},
		{"0:1:2.5", nil},
	}
	for _, c := range cases {
		got, err := parseSweep(c.in)
		if c.want == nil {
			if err == nil {
				t.Errorf("%q: expected error, got %+v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", c.in, err)
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("%q: want %+v, got %+v", c.in, c.want, got)
		}
	}
}

func TestConfigLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	err := os.WriteFile(good, []byte(`
decimal: ","
vars:
  k: 2.5
disable_defaults: true
sweep:
  from: -1
  to: 1
  steps: 21
format: "%.3f"
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	cfg := defaultConfig()
	if err := cfg.load(good); err != nil {
		t.Fatal(err)
	}
	want := &config{
		Decimal:         ",",
		Vars:            map[string]float64{"k": 2.5},
		DisableDefaults: true,
		Sweep:           &sweepConfig{From: -1, To: 1, Steps: 21},
		Format:          "%.3f",
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("want %+v, got %+v", want, cfg)
	}

	unknown := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("precision: 64\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := defaultConfig().load(unknown); err == nil {
		t.Error("unknown key accepted")
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg = defaultConfig()
	if err := cfg.load(empty); err != nil {
		t.Errorf("empty file: %v", err)
	}
	if !reflect.DeepEqual(cfg, defaultConfig()) {
		t.Errorf("empty file changed defaults: %+v", cfg)
	}
}

func TestConfigOptions(t *testing.T) {
	cases := []struct {
		decimal, separator string
		src                string
		err                bool
	}{
		{".", "", "max(1.5, 2)", false},
		{",", "", "max(1,5; 2)", false},
		{".", ";", "max(1.5; 2)", false},
		{",", ",", "", true},
		{"_", "", "", true},
		{".", ":", "", true},
	}
	for _, c := range cases {
		cfg := &config{Decimal: c.decimal, Separator: c.separator}
		opts, err := cfg.options()
		if c.err {
			if err == nil {
				t.Errorf("%q/%q: expected error", c.decimal, c.separator)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q/%q: %v", c.decimal, c.separator, err)
			continue
		}
		prog, err := formula.NewParser(opts...).Compile(c.src)
		if err != nil {
			t.Errorf("%q/%q: %q: %v", c.decimal, c.separator, c.src, err)
			continue
		}
		if r, err := prog.Eval(); err != nil || r != 2 {
			t.Errorf("%q/%q: %q: want 2, got %v (%v)", c.decimal, c.separator, c.src, r, err)
		}
	}
}

func newSession(cfg *config) (*session, *bytes.Buffer) {
	opts, err := cfg.options()
	if err != nil {
		panic(err)
	}
	p := formula.NewParser(opts...)
	var out bytes.Buffer
	s := &session{
		p:   p,
		c:   cache.New(p, 0),
		env: make(map[string]float64),
		cfg: cfg,
		out: &out,
	}
	return s, &out
}

func TestSessionLine(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		out   string
		err   bool
	}{
		{"eval", []string{"1 + 2"}, "3\n", false},
		{"blank", []string{"", "  ", "# 1 + 2"}, "", false},
		{"let", []string{":let k 2 * 3", "k + 1"}, "7\n", false},
		{"let-chain", []string{":let a 2", ":let b a^2", "a b"}, "8\n", false},
		{"let-case", []string{":let K 4", "k"}, "4\n", false},
		{"no-value", []string{"sqrt(-1)"}, "sqrt(-1): argument outside domain\n", false},
		{"bad-formula", []string{"1 +"}, "", true},
		{"empty-directive", []string{":"}, "", true},
		{"unknown-directive", []string{":plot x"}, "", true},
		{"let-usage", []string{":let k"}, "", true},
		{"let-bad", []string{":let k 1 +"}, "", true},
		{"sweep", []string{":sweep 0 2 3 x + y"}, "0\t0\n1\t1\n2\t3\n", false},
		{"sweep-gap", []string{":sweep -1 1 3 1/x"}, "-1\t-1\n\n1\t1\n", false},
		{"sweep-var", []string{":let k 10", ":sweep 0 1 2 k x"}, "0\t0\n1\t10\n", false},
		{"sweep-usage", []string{":sweep 0 1 x"}, "", true},
		{"sweep-steps", []string{":sweep 0 1 0 x"}, "", true},
		{"sweep-bad", []string{":sweep 0 1 2 x +"}, "", true},
		{"tree-bad", []string{":tree (x"}, "", true},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			s, out := newSession(defaultConfig())
			var err error
			for _, line := range c.lines {
				if err = s.line(line); err != nil {
					break
				}
			}
			if (err != nil) != c.err {
				t.Errorf("want error %t, got %v", c.err, err)
			}
			if out.String() != c.out {
				t.Errorf("want output %q, got %q", c.out, out.String())
			}
		})
	}
}

func TestSessionContinues(t *testing.T) {
	s, out := newSession(defaultConfig())
	if err := s.line(":sweep 0 1 2 x +"); err == nil {
		t.Error("bad sweep formula accepted")
	}
	if err := s.line("2 * 21"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "42\n" {
		t.Errorf("want 42, got %q", out.String())
	}
}

func TestSessionOptions(t *testing.T) {
	cfg := defaultConfig()
	cfg.Format = "%.2f"
	cfg.Sweep = &sweepConfig{From: 0, To: 1, Steps: 2, Y0: 1}
	s, out := newSession(cfg)
	s.echo = true
	if err := s.line("2y"); err != nil {
		t.Fatal(err)
	}
	if want := "(2 * y)\n0\t2.00\n1\t4.00\n"; out.String() != want {
		t.Errorf("want %q, got %q", want, out.String())
	}

	s, out = newSession(defaultConfig())
	s.echo = true
	s.tree = true
	if err := s.line("x*x + 1"); err == nil {
		t.Error("free variable accepted")
	}
	if !strings.HasPrefix(out.String(), "((x * x) + 1) : 4 distinct nodes\n") {
		t.Errorf("tree output %q", out.String())
	}
	out.Reset()
	if err := s.line("1 + 2"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out.String(), "(1 + 2) : 3\n") {
		t.Errorf("echo output %q", out.String())
	}
}
