package config

import (
	"os"
	"gopkg.in/yaml.v3"

	"github.com/Kostek02/LSB-Steganography-Tool/util"
)

const (
	DefaultInput = "image.bmp"
	DefaultOutput = "output.bmp"
	DefaultMaxMessageLength = 4096
)

/*
 * Optional defaults file for the command line tool. Everything here can
 * be overridden by flags; a missing file just means built-in defaults.
 */
type Config struct {
	Input			string		`yaml:"input"`
	Output			string		`yaml:"output"`
	Verbose			bool		`yaml:"verbose"`
	MaxMessageLength	int		`yaml:"max_message_length"`
	Logger			util.LoggerInfo	`yaml:"logger_config"`
}

func Default() *Config {
	conf := &Config{}
	conf.applyDefaults()
	return conf
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var conf Config
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}
	conf.applyDefaults()
	return &conf, nil
}

func Save(filename string, c *Config) error {
	data, err := yaml.Marshal( *c )
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0600)
}

func (c *Config) applyDefaults() {
	if c.Input == "" {
		c.Input = DefaultInput
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = DefaultMaxMessageLength
	}
	if c.Logger.Mode == 0 {
		c.Logger.Mode = util.Error | util.Warning
	}
}
