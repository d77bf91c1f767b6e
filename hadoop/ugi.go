package hadoop

import (
	"github.com/mwantia/dfs/binding"
	"github.com/mwantia/dfs/data/errors"
)

type ugiOps struct {
	getCurrentUser   func() (any, error)
	getShortUserName func(ugi any) string
}

func resolveUGI(r *binding.Resolver) *ugiOps {
	return &ugiOps{
		getCurrentUser:   binding.Func[func() (any, error)](r, "GetCurrentUser"),
		getShortUserName: binding.Func[func(any) string](r, "GetShortUserName"),
	}
}

type unixUGIOps struct {
	login       func(conf any) (any, error)
	getUserName func(ugi any) string
}

func resolveUnixUGI(r *binding.Resolver) *unixUGIOps {
	return &unixUGIOps{
		login:       binding.Func[func(any) (any, error)](r, "Login"),
		getUserName: binding.Func[func(any) string](r, "GetUserName"),
	}
}

// HasUserGroupInformation reports whether the client offers the current
// identity API.
func (b *Bindings) HasUserGroupInformation() bool {
	_, err := b.ugi.Get()
	return err == nil
}

// HasUnixUserGroupInformation reports whether the client offers the legacy
// login API.
func (b *Bindings) HasUnixUserGroupInformation() bool {
	_, err := b.unixUGI.Get()
	return err == nil
}

// UserGroupInformation wraps the identity of the current process.
type UserGroupInformation struct {
	b   *Bindings
	raw any
}

// CurrentUser returns the identity the client runs as.
func (b *Bindings) CurrentUser() (*UserGroupInformation, error) {
	o, err := b.ugi.Get()
	if err != nil {
		return nil, err
	}
	raw, err := binding.Call1(b.invoker, "UserGroupInformation.getCurrentUser", o.getCurrentUser, errors.CodeIO)
	if err != nil {
		return nil, err
	}
	return &UserGroupInformation{b: b, raw: raw}, nil
}

func (u *UserGroupInformation) ShortUserName() (string, error) {
	o := ops(u.b.ugi)
	return binding.Value(u.b.invoker, "UserGroupInformation.getShortUserName", func() string {
		return o.getShortUserName(u.raw)
	})
}

// UnixUserGroupInformation wraps a legacy login identity.
type UnixUserGroupInformation struct {
	b   *Bindings
	raw any
}

// UnixLogin performs the legacy login against conf.
func (b *Bindings) UnixLogin(conf *Configuration) (*UnixUserGroupInformation, error) {
	o, err := b.unixUGI.Get()
	if err != nil {
		return nil, err
	}
	raw, err := binding.Call1(b.invoker, "UnixUserGroupInformation.login", func() (any, error) {
		return o.login(conf.raw)
	}, errors.CodeLogin)
	if err != nil {
		return nil, err
	}
	return &UnixUserGroupInformation{b: b, raw: raw}, nil
}

func (u *UnixUserGroupInformation) UserName() (string, error) {
	o := ops(u.b.unixUGI)
	return binding.Value(u.b.invoker, "UnixUserGroupInformation.getUserName", func() string {
		return o.getUserName(u.raw)
	})
}
