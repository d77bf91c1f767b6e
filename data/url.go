package data

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Credentials are the login and password carried by a FileURL.
type Credentials struct {
	Login    string
	Password string
}

// IsEmpty reports whether no login was supplied.
func (c *Credentials) IsEmpty() bool {
	return c == nil || c.Login == ""
}

// FileURL addresses a file on a remote filesystem. Port -1 means the
// protocol's standard port.
type FileURL struct {
	Scheme      string
	Host        string
	Port        int
	Path        string
	Credentials *Credentials
}

// ParseFileURL parses strings such as "hdfs://user@namenode:8020/a/b.txt".
func ParseFileURL(raw string) (*FileURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("dfs: invalid url '%s': %w", raw, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("dfs: url '%s' has no scheme", raw)
	}

	fu := &FileURL{
		Scheme: strings.ToLower(u.Scheme),
		Host:   u.Hostname(),
		Port:   -1,
		Path:   CleanPath(u.Path),
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("dfs: invalid port in '%s': %w", raw, err)
		}
		fu.Port = port
	}
	if u.User != nil {
		password, _ := u.User.Password()
		fu.Credentials = &Credentials{
			Login:    u.User.Username(),
			Password: password,
		}
	}

	return fu, nil
}

// PortOr returns the explicit port, or standard when none was given.
func (u *FileURL) PortOr(standard int) int {
	if u.Port < 0 {
		return standard
	}
	return u.Port
}

// Address returns the host:port to dial, using standard when no port is set.
func (u *FileURL) Address(standard int) string {
	return net.JoinHostPort(u.Host, strconv.Itoa(u.PortOr(standard)))
}

// Realm returns the URL identifying the filesystem instance: scheme, host
// and port, with the path reduced to "/" and no credentials.
func (u *FileURL) Realm() *FileURL {
	return &FileURL{
		Scheme: u.Scheme,
		Host:   u.Host,
		Port:   u.Port,
		Path:   "/",
	}
}

// Filename returns the last path element.
func (u *FileURL) Filename() string {
	return BaseName(u.Path)
}

// Parent returns the URL of the parent directory, or nil for the root.
func (u *FileURL) Parent() *FileURL {
	parent := ParentPath(u.Path)
	if parent == "" {
		return nil
	}
	p := *u
	p.Path = parent
	return &p
}

// Child returns the URL of name beneath u.
func (u *FileURL) Child(name string) *FileURL {
	c := *u
	c.Path = JoinPath(u.Path, name)
	return &c
}

// SameRealm reports whether both URLs address the same filesystem instance.
// A missing port stands for standard.
func (u *FileURL) SameRealm(other *FileURL, standard int) bool {
	return other != nil && u.Scheme == other.Scheme && strings.EqualFold(u.Host, other.Host) &&
		u.PortOr(standard) == other.PortOr(standard)
}

// String renders the URL without the password.
func (u *FileURL) String() string {
	var sb strings.Builder
	sb.WriteString(u.Scheme)
	sb.WriteString("://")
	if !u.Credentials.IsEmpty() {
		sb.WriteString(url.PathEscape(u.Credentials.Login))
		sb.WriteString("@")
	}
	sb.WriteString(u.Host)
	if u.Port >= 0 {
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(u.Port))
	}
	sb.WriteString(u.Path)
	return sb.String()
}
