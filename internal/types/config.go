package types

import "time"

// Defaults for ClientConfig.
const (
	DefaultServer      = "soc.dev.gentoo.org:443"
	DefaultServerNoSSL = "soc.dev.gentoo.org:80"
	DefaultUploadURL   = "/upload/"
	DefaultAuthFile    = "/etc/gentoostats/auth.yml"
	DefaultPayloadFile = "/etc/gentoostats/payload.yml"
	DefaultHistoryDB   = "/var/lib/gentoostats/history.db"
	DefaultRoot        = "/"
	DefaultTimeout     = 30 * time.Second
)

// ClientConfig is gentoostats.yml.
type ClientConfig struct {
	Server      string `yaml:"server,omitempty"`
	ServerNoSSL string `yaml:"server_nossl,omitempty"`
	URL         string `yaml:"url,omitempty"`
	SSL         *bool  `yaml:"ssl,omitempty"`
	AuthFile    string `yaml:"auth_file,omitempty"`
	PayloadFile string `yaml:"payload_file,omitempty"`
	HistoryDB   string `yaml:"history_db,omitempty"`
	Root        string `yaml:"root,omitempty"`
	Workers     int    `yaml:"workers,omitempty"`
	Timeout     string `yaml:"timeout,omitempty"`
	CAFile      string `yaml:"ca_file,omitempty"`
	Insecure    bool   `yaml:"insecure,omitempty"`
}

// WithDefaults returns a copy with every unset field filled in.
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.Server == "" {
		c.Server = DefaultServer
	}
	if c.ServerNoSSL == "" {
		c.ServerNoSSL = DefaultServerNoSSL
	}
	if c.URL == "" {
		c.URL = DefaultUploadURL
	}
	if c.SSL == nil {
		ssl := true
		c.SSL = &ssl
	}
	if c.AuthFile == "" {
		c.AuthFile = DefaultAuthFile
	}
	if c.PayloadFile == "" {
		c.PayloadFile = DefaultPayloadFile
	}
	if c.HistoryDB == "" {
		c.HistoryDB = DefaultHistoryDB
	}
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	return c
}

// UseSSL reports whether uploads go over HTTPS. Unset means true.
func (c ClientConfig) UseSSL() bool {
	return c.SSL == nil || *c.SSL
}

// TimeoutDuration parses Timeout, falling back to DefaultTimeout.
func (c ClientConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// AuthConfig is auth.yml. Credentials are issued out of band; this tool
// only reads them.
type AuthConfig struct {
	UUID   string `yaml:"UUID" json:"UUID"`
	Passwd string `yaml:"PASSWD" json:"PASSWD"`
}

// SubmissionRecord is one row of the local submission history.
type SubmissionRecord struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Server      string    `json:"server"`
	Status      string    `json:"status"`
	Digest      string    `json:"digest"`
	Packages    int       `json:"packages"`
}

// Submission status values recorded in history.
const (
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
	StatusPretend   = "pretend"
)
