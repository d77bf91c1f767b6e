// Package identity determines the user and group a filesystem client acts
// as when the caller supplies no credentials.
package identity

import (
	"os"
	"os/user"
	"strings"

	"github.com/mwantia/dfs/data"
	"github.com/mwantia/dfs/log"
)

// Identity is a resolved user and group.
type Identity struct {
	User  string
	Group string
}

// Source is one mechanism able to report the current user name.
type Source interface {
	Name() string
	Available() bool
	UserName() (string, error)
}

// GroupFunc reports the configured default group.
type GroupFunc func() (string, error)

// Resolver picks the first available source; when that source fails the
// host user is used instead. Resolution never fails.
type Resolver struct {
	Logger        *log.Logger
	Sources       []Source
	Group         GroupFunc
	FallbackGroup string
	// HostUser defaults to the operating system user.
	HostUser func() string
}

// Resolve computes the identity.
func (r *Resolver) Resolve() Identity {
	logger := r.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	id := Identity{
		User:  r.resolveUser(logger),
		Group: r.FallbackGroup,
	}

	if r.Group != nil {
		group, err := r.Group()
		switch {
		case err != nil:
			logger.Warn("Unable to read default group, using '%s': %v", r.FallbackGroup, err)
		case group != "":
			id.Group = group
		}
	}

	logger.Debug("Default identity resolved to '%s:%s'", id.User, id.Group)
	return id
}

func (r *Resolver) resolveUser(logger *log.Logger) string {
	for _, src := range r.Sources {
		if !src.Available() {
			logger.Debug("Identity source '%s' not available", src.Name())
			continue
		}

		name, err := src.UserName()
		if err != nil {
			logger.Warn("Identity source '%s' failed: %v", src.Name(), err)
			break
		}
		if name != "" {
			return name
		}
		break
	}

	host := HostUser
	if r.HostUser != nil {
		host = r.HostUser
	}
	return host()
}

// Owner returns the login of creds, or the default user when no login was
// given.
func Owner(creds *data.Credentials, def Identity) string {
	if creds.IsEmpty() {
		return def.User
	}
	return creds.Login
}

// HostUser returns the operating system user running the process.
func HostUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		name := u.Username
		// Windows reports DOMAIN\user
		if i := strings.LastIndex(name, `\`); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	for _, key := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "nobody"
}

type funcSource struct {
	name      string
	available func() bool
	userName  func() (string, error)
}

// NewSource builds a Source from functions.
func NewSource(name string, available func() bool, userName func() (string, error)) Source {
	return &funcSource{name: name, available: available, userName: userName}
}

func (s *funcSource) Name() string              { return s.name }
func (s *funcSource) Available() bool           { return s.available() }
func (s *funcSource) UserName() (string, error) { return s.userName() }
