package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/bidfx-oss/pricing-go/pricingerrors"
)

// Load reads and parses a session configuration from an INI file at path,
// applying documented defaults and struct-tag validation. viper's INI
// support replaces the source's configparser.ConfigParser reader.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, pricingerrors.ErrConfig.Wrap("empty configuration file path")
	}

	v := viper.New()
	v.SetConfigType("ini")
	v.SetConfigFile(expandHome(path))
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return Config{}, pricingerrors.ErrConfig.Wrapf("failed to read config %s: %v", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, pricingerrors.ErrConfig.Wrapf("failed to decode config %s: %v", path, err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, pricingerrors.ErrConfig.Wrapf("invalid config %s: %v", path, err)
	}
	return cfg, nil
}

// expandHome resolves a leading "~" to the user's home directory, mirroring
// Path(config_file).expanduser() from the source Session.create_from_ini_file.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
