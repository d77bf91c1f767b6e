package hadoop

import (
	"github.com/mwantia/dfs/binding"
)

type configurationOps struct {
	newConf    func() any
	get        func(conf any, name, def string) string
	setStrings func(conf any, name string, values ...string)
}

func resolveConfiguration(r *binding.Resolver) *configurationOps {
	return &configurationOps{
		newConf:    binding.Func[func() any](r, "New"),
		get:        binding.Func[func(any, string, string) string](r, "Get"),
		setStrings: binding.Func[func(any, string, ...string)](r, "SetStrings"),
	}
}

// Configuration wraps a client configuration object.
type Configuration struct {
	b   *Bindings
	raw any
}

// NewConfiguration creates an empty client configuration.
func (b *Bindings) NewConfiguration() (*Configuration, error) {
	o := ops(b.configuration)
	raw, err := binding.Value(b.invoker, "Configuration.new", o.newConf)
	if err != nil {
		return nil, err
	}
	return &Configuration{b: b, raw: raw}, nil
}

// Get returns the value of name, or def when unset.
func (c *Configuration) Get(name, def string) (string, error) {
	o := ops(c.b.configuration)
	return binding.Value(c.b.invoker, "Configuration.get", func() string {
		return o.get(c.raw, name, def)
	})
}

// SetStrings stores values under name.
func (c *Configuration) SetStrings(name string, values ...string) error {
	o := ops(c.b.configuration)
	_, err := binding.Value(c.b.invoker, "Configuration.setStrings", func() struct{} {
		o.setStrings(c.raw, name, values...)
		return struct{}{}
	})
	return err
}

// Raw returns the backend value.
func (c *Configuration) Raw() any {
	return c.raw
}
