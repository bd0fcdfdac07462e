package formula

// Option is an option for creating a Parser.
type Option interface {
	parserOption(*parsecfg)
}

type (
	funcopt struct {
		name string
		fn   Func
	}
	provsopt   []*Provider
	formatopt  NumeralFormat
	nodefaults struct{}
)

// parsecfg collects options for NewParser.
type parsecfg struct {
	// extra holds providers added with WithFunc. They come before the others.
	extra []*Provider
	// providers is the provider list, or nil for the defaults.
	providers []*Provider
	format    NumeralFormat
}

// WithFunc adds a float function for parsing. It resolves before functions of
// the same name from other providers, but never before built-in operators.
func WithFunc(name string, fn Func) Option {
	return &funcopt{name, fn}
}

func (o *funcopt) parserOption(p *parsecfg) {
	p.extra = append(p.extra, &Provider{
		Name:  o.name,
		Kind:  FloatProvider,
		Funcs: map[string]Func{o.name: o.fn},
	})
}

// WithProviders replaces the default providers. Providers given by multiple
// WithProviders options accumulate in order.
func WithProviders(providers ...*Provider) Option {
	return provsopt(providers)
}

func (o provsopt) parserOption(p *parsecfg) {
	if p.providers == nil {
		p.providers = make([]*Provider, 0, len(o))
	}
	p.providers = append(p.providers, o...)
}

// DisableDefaultFuncs removes the default providers, leaving only built-in
// operators and functions added by other options. Names of default
// functions are parsed as parameters instead.
func DisableDefaultFuncs() Option {
	return nodefaults{}
}

func (nodefaults) parserOption(p *parsecfg) {
	if p.providers == nil {
		p.providers = []*Provider{}
	}
}

// WithNumeralFormat sets the numeral format. It panics if the format is
// invalid.
func WithNumeralFormat(f NumeralFormat) Option {
	f.check()
	return formatopt(f)
}

func (o formatopt) parserOption(p *parsecfg) {
	p.format = NumeralFormat(o)
}
