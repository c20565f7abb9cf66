package store

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPort is used when an open request carries no port.
const DefaultPort = 22

// OpenRequest is what a menu entry passes back when clicked. Password is
// the stored token.
type OpenRequest struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Login    string `json:"login,omitempty"`
	Password string `json:"password,omitempty"`
}

// LaunchSpec is a fully resolved connection. Password is plaintext.
type LaunchSpec struct {
	Host     string
	Port     int
	Login    string
	Password string
}

// Bare reports whether the client should start without connecting.
func (l LaunchSpec) Bare() bool {
	return l.Host == ""
}

// Argv returns the client command line.
func (l LaunchSpec) Argv(command string) []string {
	if l.Bare() {
		return []string{command}
	}
	argv := []string{command, "-ssh", l.Host, "-P", strconv.Itoa(l.Port)}
	if l.Login != "" {
		argv = append(argv, "-l", l.Login)
	}
	if l.Password != "" {
		argv = append(argv, "-pw", l.Password)
	}
	return argv
}

// String describes the connection without the password.
func (l LaunchSpec) String() string {
	if l.Bare() {
		return "(no host)"
	}
	target := l.Host + ":" + strconv.Itoa(l.Port)
	if l.Login != "" {
		target = l.Login + "@" + target
	}
	return target
}

// Open decodes the password of req. It is the only place plaintext
// passwords are reconstructed.
func Open(c Codec, req OpenRequest) (LaunchSpec, error) {
	if req.Host == "" {
		return LaunchSpec{}, nil
	}
	spec := LaunchSpec{Host: req.Host, Port: req.Port, Login: req.Login}
	if spec.Port == 0 {
		spec.Port = DefaultPort
	}
	if req.Password != "" {
		plain, err := c.Decode(req.Password)
		if err != nil {
			return LaunchSpec{}, fmt.Errorf("decoding password for %s: %w", spec, err)
		}
		spec.Password = plain
	}
	return spec, nil
}

var ipv4Pattern = regexp.MustCompile(`^(?:https?:?[/\\]{0,2})?(\d+)[.:,](\d+)[.:,](\d+)[.:,](\d+)(?::\d+)?`)

// NormalizeHost trims s and rewrites sloppy IPv4 input such as
// "http://10,0,0,5:22" to "10.0.0.5". Other hosts are returned trimmed.
func NormalizeHost(s string) string {
	s = strings.TrimSpace(s)
	m := ipv4Pattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return strings.Join(m[1:5], ".")
}
