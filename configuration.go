package svchost

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// DefaultTimeout is the start/stop timeout in milliseconds
	DefaultTimeout = 30000

	// MinTimeout is the smallest accepted timeout in milliseconds
	MinTimeout = 30

	// MaxTimeout is the largest accepted timeout in milliseconds, about 24 days
	MaxTimeout = math.MaxInt32
)

// Builder accumulates service configuration values fluently.
//
// Every With* method returns the same *Builder. The first validation failure
// is kept and reported by Err and Build; later With* calls are ignored.
type Builder struct {
	serviceName      string
	instance         string
	displayName      string
	description      string
	username         string
	password         string
	startMode        StartMode
	delayedAutoStart bool
	timeout          int
	servicePath      string
	version          string
	err              error
}

// NewBuilder returns a builder with no service name, automatic start and
// the default timeout
func NewBuilder() *Builder {
	return &Builder{
		startMode: StartAutomatic,
		timeout:   DefaultTimeout,
	}
}

// DefaultBuilder returns a builder named after the running executable and
// carrying the program version from its build information
func DefaultBuilder() *Builder {
	b := NewBuilder()
	if exe, err := os.Executable(); err == nil {
		b.serviceName = programName(exe)
	}
	b.version = programVersion()
	return b
}

// Err returns the first validation error recorded by the builder
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(field, value string, err error) *Builder {
	if b.err == nil {
		b.err = &ConfigError{Field: field, Value: value, Err: err}
	}
	return b
}

func (b *Builder) setString(field string, dst *string, value string) *Builder {
	if b.err != nil {
		return b
	}
	if value == "" {
		return b.fail(field, "", ErrEmptyValue)
	}
	if field != keyPassword && strings.IndexFunc(value, unicode.IsControl) >= 0 {
		return b.fail(field, strconv.Quote(value), ErrControlCharacter)
	}
	*dst = value
	return b
}

// WithServiceName sets the service name
func (b *Builder) WithServiceName(name string) *Builder {
	return b.setString(keyServiceName, &b.serviceName, name)
}

// WithInstance sets the instance name
func (b *Builder) WithInstance(instance string) *Builder {
	return b.setString(keyInstance, &b.instance, instance)
}

// WithDisplayName sets an explicit display name
func (b *Builder) WithDisplayName(name string) *Builder {
	return b.setString(keyDisplayName, &b.displayName, name)
}

// WithDescription sets an explicit description
func (b *Builder) WithDescription(description string) *Builder {
	return b.setString(keyDescription, &b.description, description)
}

// WithUsername sets the account the service runs as
func (b *Builder) WithUsername(username string) *Builder {
	return b.setString(keyUsername, &b.username, username)
}

// WithPassword sets the password for the service account
func (b *Builder) WithPassword(password string) *Builder {
	return b.setString(keyPassword, &b.password, password)
}

// WithVersion sets the program version used in the derived display name
func (b *Builder) WithVersion(version string) *Builder {
	if b.err == nil {
		b.version = version
	}
	return b
}

// WithStartMode sets the start mode
func (b *Builder) WithStartMode(mode StartMode) *Builder {
	if b.err != nil {
		return b
	}
	if !mode.Valid() {
		return b.fail(keyStartMode, mode.String(), ErrInvalidStartMode)
	}
	b.startMode = mode
	return b
}

// WithDelayedAutoStart sets whether automatic start is delayed after boot
func (b *Builder) WithDelayedAutoStart(delayed bool) *Builder {
	if b.err == nil {
		b.delayedAutoStart = delayed
	}
	return b
}

// WithTimeout sets the start/stop timeout in milliseconds.
// Values below MinTimeout are raised to MinTimeout and values above
// MaxTimeout are lowered to MaxTimeout.
func (b *Builder) WithTimeout(ms int) *Builder {
	if b.err != nil {
		return b
	}
	ms = min(max(ms, MinTimeout), MaxTimeout)
	b.timeout = ms
	return b
}

// WithServicePath sets the executable that install and uninstall are
// delegated to. The path must exist.
func (b *Builder) WithServicePath(path string) *Builder {
	if b.err != nil {
		return b
	}
	if path == "" {
		return b.fail(keyServicePath, "", ErrEmptyValue)
	}
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return b.fail(keyServicePath, path, ErrPathNotFound)
	}
	b.servicePath = path
	return b
}

// WithArguments overlays the recognized options present in args.
// Absent options and empty values leave the current values unchanged.
func (b *Builder) WithArguments(args *Arguments) *Builder {
	if b.err != nil || args == nil {
		return b
	}

	present := func(key string) (string, bool) {
		v, ok := args.Get(key)
		return v, ok && v != ""
	}

	if v, ok := present(keyServiceName); ok {
		b.WithServiceName(v)
	}
	if v, ok := present(keyInstance); ok {
		b.WithInstance(v)
	}
	if v, ok := present(keyDisplayName); ok {
		b.WithDisplayName(v)
	}
	if v, ok := present(keyDescription); ok {
		b.WithDescription(v)
	}
	if v, ok := present(keyUsername); ok {
		b.WithUsername(v)
	}
	if v, ok := present(keyPassword); ok {
		b.WithPassword(v)
	}
	if v, ok := present(keyStartMode); ok {
		mode, err := ParseStartMode(v)
		if err != nil {
			if b.err == nil {
				b.err = err
			}
			return b
		}
		b.WithStartMode(mode)
	}
	if args.Has(keyDelayedAutoStart) {
		b.WithDelayedAutoStart(args.Bool(keyDelayedAutoStart))
	}
	if v, ok := present(keyServicePath); ok {
		b.WithServicePath(v)
	}

	return b
}

// ServiceName returns the service name, or ErrNoServiceName when none was set
func (b *Builder) ServiceName() (string, error) {
	if b.serviceName == "" {
		return "", &ConfigError{Field: keyServiceName, Err: ErrNoServiceName}
	}
	return b.serviceName, nil
}

// Build validates the accumulated values and returns an immutable Configuration
func (b *Builder) Build() (*Configuration, error) {
	if b.err != nil {
		return nil, b.err
	}
	if _, err := b.ServiceName(); err != nil {
		return nil, err
	}

	return &Configuration{
		serviceName:      b.serviceName,
		instance:         b.instance,
		displayName:      b.displayName,
		description:      b.description,
		username:         b.username,
		password:         b.password,
		startMode:        b.startMode,
		delayedAutoStart: b.delayedAutoStart,
		timeout:          b.timeout,
		servicePath:      b.servicePath,
		version:          b.version,
	}, nil
}

// Configuration is the finalized service configuration
type Configuration struct {
	serviceName      string
	instance         string
	displayName      string
	description      string
	username         string
	password         string
	startMode        StartMode
	delayedAutoStart bool
	timeout          int
	servicePath      string
	version          string
}

// ServiceName returns the service name
func (c *Configuration) ServiceName() string { return c.serviceName }

// Instance returns the instance name, or ""
func (c *Configuration) Instance() string { return c.instance }

// InstancedServiceName returns name$instance, or the plain name when there is
// no instance
func (c *Configuration) InstancedServiceName() string {
	if c.instance == "" {
		return c.serviceName
	}
	return c.serviceName + "$" + c.instance
}

// DisplayName returns the explicit display name, or one derived from the
// instanced name and program version
func (c *Configuration) DisplayName() string {
	if c.displayName != "" {
		return c.displayName
	}
	if c.version == "" {
		return c.InstancedServiceName()
	}
	return fmt.Sprintf("%s (%s)", c.InstancedServiceName(), c.version)
}

// Description returns the explicit description or a derived one
func (c *Configuration) Description() string {
	if c.description != "" {
		return c.description
	}
	return "svchost for " + c.serviceName
}

// Username returns the service account, or ""
func (c *Configuration) Username() string { return c.username }

// Password returns the service account password, or ""
func (c *Configuration) Password() string { return c.password }

// StartMode returns the start mode
func (c *Configuration) StartMode() StartMode { return c.startMode }

// DelayedAutoStart reports whether automatic start is delayed
func (c *Configuration) DelayedAutoStart() bool { return c.delayedAutoStart }

// TimeoutMillis returns the start/stop timeout in milliseconds
func (c *Configuration) TimeoutMillis() int { return c.timeout }

// Timeout returns the start/stop timeout
func (c *Configuration) Timeout() time.Duration {
	return time.Duration(c.timeout) * time.Millisecond
}

// ServicePath returns the delegated executable, or ""
func (c *Configuration) ServicePath() string { return c.servicePath }

// Version returns the program version, or ""
func (c *Configuration) Version() string { return c.version }

// HasCredentials reports whether a service account was configured
func (c *Configuration) HasCredentials() bool {
	return c.username != "" && c.password != ""
}

// ValidateAccount checks that username and password are both set or both empty
func (c *Configuration) ValidateAccount() error {
	if (c.username == "") != (c.password == "") {
		field := keyPassword
		if c.username == "" {
			field = keyUsername
		}
		return &ConfigError{Field: field, Err: ErrPartialCredentials}
	}
	return nil
}

// option is one serialized configuration field
type option struct {
	key   string
	value string
}

func (c *Configuration) options(withCredentials bool) []option {
	opts := []option{{keyServiceName, c.serviceName}}
	if c.instance != "" {
		opts = append(opts, option{keyInstance, c.instance})
	}
	if c.displayName != "" {
		opts = append(opts, option{keyDisplayName, c.displayName})
	}
	if c.description != "" {
		opts = append(opts, option{keyDescription, c.description})
	}
	if withCredentials {
		if c.username != "" {
			opts = append(opts, option{keyUsername, c.username})
		}
		if c.password != "" {
			opts = append(opts, option{keyPassword, c.password})
		}
	}
	opts = append(opts, option{keyStartMode, c.startMode.String()})
	return opts
}

// CommandLine serializes the configuration as canonical arguments:
//
//	/serviceName="X" /instance="Y" /startMode="Manual" /delayedAutoStart
//
// Empty optional fields are omitted. Quotes and backslashes inside values are
// backslash-escaped so that ParseCommandLine restores them exactly.
func (c *Configuration) CommandLine() string {
	var sb strings.Builder
	for i, o := range c.options(true) {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("/" + o.key + "=\"" + escapeValue(o.value) + "\"")
	}
	if c.delayedAutoStart {
		sb.WriteString(" /" + keyDelayedAutoStart)
	}
	return sb.String()
}

// Args returns the canonical arguments as an argv slice
func (c *Configuration) Args() []string {
	return c.args(true)
}

// serviceArgs returns the arguments an installed service is started with.
// Credentials are handed to the service manager instead.
func (c *Configuration) serviceArgs() []string {
	return c.args(false)
}

func (c *Configuration) args(withCredentials bool) []string {
	opts := c.options(withCredentials)
	out := make([]string, 0, len(opts)+1)
	for _, o := range opts {
		out = append(out, "/"+o.key+"="+o.value)
	}
	if c.delayedAutoStart {
		out = append(out, "/"+keyDelayedAutoStart)
	}
	return out
}

// escapeValue backslash-escapes backslashes and double quotes
func escapeValue(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
