package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"
	"gopkg.in/yaml.v3"

	"github.com/graphwire/graphwire/internal/config"
	"github.com/graphwire/graphwire/internal/service"
)

// tlsMaterialName is the reference name the CLI registers its flag-built
// TLS material under.
const tlsMaterialName = "command-line"

// connectionFlags groups the flags shared by commands that reach the
// server. Values left at their zero value defer to the config file or
// the service defaults.
type connectionFlags struct {
	contactPoints string
	port          int
	path          string
	source        string
	configFile    string

	tlsCert             string
	tlsKey              string
	tlsCA               string
	tlsPassphrasePrompt bool
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.contactPoints, "contact-points", "", "comma-separated server addresses")
	flags.IntVar(&f.port, "port", 0, "server port (default 8182)")
	flags.StringVar(&f.path, "path", "", "server URL path (default /gremlin)")
	flags.StringVar(&f.source, "traversal-source", "", "named remote traversal source")
	flags.StringVarP(&f.configFile, "config", "c", "", "YAML file with connection options")
	flags.StringVar(&f.tlsCert, "tls-cert", "", "client certificate PEM file")
	flags.StringVar(&f.tlsKey, "tls-key", "", "client key PEM file")
	flags.StringVar(&f.tlsCA, "tls-ca", "", "trust bundle PEM file")
	flags.BoolVar(&f.tlsPassphrasePrompt, "tls-passphrase-prompt", false, "prompt for the client key passphrase")
}

// serviceOptions merges the config file and flags into the option map
// (flags win) and collects the service options the values imply.
func (f *connectionFlags) serviceOptions() (map[string]string, []service.Option, error) {
	options := map[string]string{}
	if f.configFile != "" {
		fileOptions, err := loadOptionsFile(f.configFile)
		if err != nil {
			return nil, nil, err
		}
		for key, value := range fileOptions {
			options[key] = value
		}
	}

	if f.contactPoints != "" {
		options[config.OptionContactPoints] = f.contactPoints
	}
	if f.port != 0 {
		options[config.OptionPort] = strconv.Itoa(f.port)
	}
	if f.path != "" {
		options[config.OptionPath] = f.path
	}
	if f.source != "" {
		options[config.OptionTraversalSource] = f.source
	}

	var svcOpts []service.Option
	if f.tlsCert != "" || f.tlsKey != "" || f.tlsCA != "" {
		passphrase := ""
		if f.tlsPassphrasePrompt {
			secret, err := promptPassphrase()
			if err != nil {
				return nil, nil, err
			}
			passphrase = secret
		}
		svcOpts = append(svcOpts, service.WithTLSMaterial(tlsMaterialName, config.StaticTLSMaterial{
			Cert:       f.tlsCert,
			Key:        f.tlsKey,
			Passphrase: passphrase,
			CA:         f.tlsCA,
		}))
		options[config.OptionTLS] = tlsMaterialName
	}

	return options, svcOpts, nil
}

// loadOptionsFile reads a flat YAML mapping of option names to values.
// Scalar values of any YAML type are accepted, so "port: 8182" works
// without quoting.
func loadOptionsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	options := make(map[string]string, len(raw))
	for key, value := range raw {
		switch value.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("parse config file %s: option %q is not a scalar", path, key)
		}
		options[key] = fmt.Sprint(value)
	}
	return options, nil
}

// parseParams converts repeated name=value flags into query bindings.
// Values that parse as JSON keep their type; anything else stays a string.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q is not name=value", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		params[name] = value
	}
	return params, nil
}

func promptPassphrase() (string, error) {
	if !terminal.IsTerminal(0) {
		return "", errors.New("stdin is not a terminal; cannot prompt for a passphrase")
	}
	fmt.Fprint(os.Stderr, "Key passphrase: ")
	secret, err := terminal.ReadPassword(0)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(secret), nil
}
