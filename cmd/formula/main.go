package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/google/shlex"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/formula"
	"github.com/zephyrtronium/formula/cache"
	"github.com/zephyrtronium/formula/plot"
)

func main() {
	log.SetFlags(0)
	var (
		inname, cfgname string
		verb, decimal   string
		sweep           string
		with            [][2]string
		echo, tree      bool
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&cfgname, "config", "", "YAML configuration file")
	flag.StringVar(&verb, "fmt", "%g", "result formatting string")
	flag.StringVar(&decimal, "decimal", ".", `decimal separator, "." or ","; "," makes ";" separate arguments`)
	flag.StringVar(&sweep, "sweep", "", "sample each formula over x as from:to:steps, feeding y forward")
	flag.Func("given", "name=value variable definition (any number of times)", addwith)
	flag.BoolVar(&echo, "echo", false, "print formulas in canonical form")
	flag.BoolVar(&tree, "tree", false, "print parse trees")
	flag.Parse()

	cfg := defaultConfig()
	if cfgname != "" {
		if err := cfg.load(cfgname); err != nil {
			log.Fatal(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fmt":
			cfg.Format = verb
		case "decimal":
			cfg.Decimal = decimal
			cfg.Separator = ""
		case "sweep":
			s, err := parseSweep(sweep)
			if err != nil {
				log.Fatal(err)
			}
			cfg.Sweep = s
		}
	})
	opts, err := cfg.options()
	if err != nil {
		log.Fatal(err)
	}

	p := formula.NewParser(opts...)
	sess := session{
		p:    p,
		c:    cache.New(p, 0),
		env:  make(map[string]float64),
		cfg:  cfg,
		out:  os.Stdout,
		echo: echo,
		tree: tree,
	}
	for name, v := range cfg.Vars {
		sess.env[strings.ToLower(name)] = v
	}
	for _, d := range with {
		if err := sess.let(d[0], d[1]); err != nil {
			log.Fatalf("setting %s: %v", d[0], err)
		}
	}

	if flag.NArg() > 0 && inname == "" {
		for _, arg := range flag.Args() {
			if err := sess.line(arg); err != nil {
				log.Print(err)
			}
		}
		return
	}
	in, err := infile(inname)
	if err != nil {
		log.Fatal(err)
	}
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := sess.line(sc.Text()); err != nil {
			log.Print(err)
		}
	}
	if err := sc.Err(); err != nil {
		log.Fatal(err)
	}
}

func infile(inname string) (io.Reader, error) {
	if inname == "" || inname == "-" {
		return os.Stdin, nil
	}
	return os.Open(inname)
}

// session is the state of a run: the parser's program cache and the values
// of variables defined so far.
type session struct {
	p    *formula.Parser
	c    *cache.Cache
	env  map[string]float64
	cfg  *config
	out  io.Writer
	echo bool
	tree bool
}

// line handles one line of input. Lines starting with : are directives. A
// formula that fails to evaluate prints its error as the result; other
// errors are returned.
func (s *session) line(text string) error {
	text = strings.TrimSpace(text)
	switch {
	case text == "", strings.HasPrefix(text, "#"):
		return nil
	case strings.HasPrefix(text, ":"):
		return s.directive(text[1:])
	}
	if s.tree {
		if err := s.printTree(text); err != nil {
			return err
		}
	}
	if s.cfg.Sweep != nil {
		return s.sweep(text, s.cfg.Sweep)
	}
	names, vals := s.bindings()
	prog, err := s.c.Get(text, names...)
	if err != nil {
		return err
	}
	if s.echo {
		fmt.Fprintf(s.out, "%v : ", prog)
	}
	r, err := prog.Eval(vals...)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return nil
	}
	fmt.Fprintf(s.out, s.cfg.Format+"\n", r)
	return nil
}

// directive runs :let name formula, :sweep from to steps formula, or
// :tree formula. Arguments are split like shell words, and the formula is
// the rest of the line.
func (s *session) directive(text string) error {
	args, err := shlex.Split(text)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("empty directive")
	}
	switch args[0] {
	case "let":
		if len(args) < 3 {
			return fmt.Errorf("usage: :let name formula")
		}
		return s.let(args[1], strings.Join(args[2:], " "))
	case "sweep":
		if len(args) < 5 {
			return fmt.Errorf("usage: :sweep from to steps formula")
		}
		sw, err := parseSweep(strings.Join(args[1:4], ":"))
		if err != nil {
			return err
		}
		return s.sweep(strings.Join(args[4:], " "), sw)
	case "tree":
		if len(args) < 2 {
			return fmt.Errorf("usage: :tree formula")
		}
		return s.printTree(strings.Join(args[1:], " "))
	default:
		return fmt.Errorf("unknown directive %q", args[0])
	}
}

// let evaluates a formula and binds the result to a name.
func (s *session) let(name, src string) error {
	names, vals := s.bindings()
	prog, err := s.c.Get(src, names...)
	if err != nil {
		return err
	}
	r, err := prog.Eval(vals...)
	if err != nil {
		return err
	}
	s.env[strings.ToLower(name)] = r
	return nil
}

// bindings returns the defined variables in sorted order with their values.
func (s *session) bindings() ([]string, []float64) {
	names := make([]string, 0, len(s.env))
	for name := range s.env {
		names = append(names, name)
	}
	sort.Strings(names)
	vals := make([]float64, len(names))
	for i, name := range names {
		vals[i] = s.env[name]
	}
	return names, vals
}

// sweep samples a formula of x and y, printing one sample per line and a
// blank line between segments.
func (s *session) sweep(src string, sw *sweepConfig) error {
	names, vals := s.bindings()
	params := []string{"x", "y"}
	args := []float64{0, 0}
	for i, name := range names {
		if name == "x" || name == "y" {
			continue
		}
		params = append(params, name)
		args = append(args, vals[i])
	}
	prog, err := s.c.Get(src, params...)
	if err != nil {
		return err
	}
	if s.echo {
		fmt.Fprintln(s.out, prog)
	}
	fn := func(x, y float64) (float64, bool) {
		a := append([]float64(nil), args...)
		a[0], a[1] = x, y
		r, err := prog.Eval(a...)
		if err != nil {
			return 0, false
		}
		return r, true
	}
	samples := plot.Sweep(fn, sw.From, sw.To, sw.Steps, sw.Y0)
	for i, seg := range plot.Segments(samples) {
		if i > 0 {
			fmt.Fprintln(s.out)
		}
		for _, p := range seg {
			fmt.Fprintf(s.out, "%g\t"+s.cfg.Format+"\n", p.X, p.Y)
		}
	}
	return nil
}

func (s *session) printTree(src string) error {
	e, err := s.p.Parse(src)
	if err != nil {
		return err
	}
	n := 0
	e.Walk(func(*formula.Node) { n++ })
	fmt.Fprintf(s.out, "%v : %d distinct nodes\n", e, n)
	repr.New(s.out, repr.Indent("  "), repr.OmitEmpty(true)).Println(e.Root())
	return nil
}

// config is the contents of a configuration file.
type config struct {
	Decimal         string             `yaml:"decimal"`
	Separator       string             `yaml:"separator"`
	Vars            map[string]float64 `yaml:"vars"`
	DisableDefaults bool               `yaml:"disable_defaults"`
	Sweep           *sweepConfig       `yaml:"sweep"`
	Format          string             `yaml:"format"`
}

type sweepConfig struct {
	From  float64 `yaml:"from"`
	To    float64 `yaml:"to"`
	Steps int     `yaml:"steps"`
	Y0    float64 `yaml:"y0"`
}

func defaultConfig() *config {
	return &config{Decimal: ".", Format: "%g"}
}

func (c *config) load(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if c.Sweep != nil && c.Sweep.Steps <= 0 {
		return fmt.Errorf("reading %s: sweep steps must be positive", name)
	}
	return nil
}

// options converts the configuration to parser options.
func (c *config) options() ([]formula.Option, error) {
	f := formula.DefaultFormat
	switch c.Decimal {
	case "", ".":
	case ",":
		f = formula.NumeralFormat{Decimal: ',', Separator: ';'}
	default:
		return nil, fmt.Errorf("decimal separator must be . or , not %q", c.Decimal)
	}
	switch c.Separator {
	case "":
	case ",", ";":
		f.Separator = rune(c.Separator[0])
	default:
		return nil, fmt.Errorf("argument separator must be , or ; not %q", c.Separator)
	}
	if f.Separator == f.Decimal {
		return nil, fmt.Errorf("argument separator and decimal separator are both %q", f.Decimal)
	}
	opts := []formula.Option{formula.WithNumeralFormat(f)}
	if c.DisableDefaults {
		opts = append(opts, formula.DisableDefaultFuncs())
	}
	return opts, nil
}

// parseSweep parses from:to:steps.
func parseSweep(s string) (*sweepConfig, error) {
	d := strings.Split(s, ":")
	if len(d) != 3 {
		return nil, fmt.Errorf(`sweep must be "from:to:steps", not %q`, s)
	}
	from, err := strconv.ParseFloat(d[0], 64)
	if err != nil {
		return nil, fmt.Errorf("sweep start: %w", err)
	}
	to, err := strconv.ParseFloat(d[1], 64)
	if err != nil {
		return nil, fmt.Errorf("sweep end: %w", err)
	}
	steps, err := strconv.Atoi(d[2])
	if err != nil || steps <= 0 {
		return nil, fmt.Errorf("sweep steps must be a positive integer, not %q", d[2])
	}
	return &sweepConfig{From: from, To: to, Steps: steps}, nil
}
