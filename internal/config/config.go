package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/moxforge/shellpack/internal/errors"
	"github.com/moxforge/shellpack/internal/paths"
)

// EnvPrefix is prepended to environment variable overrides (SHELLPACK_DRY_RUN).
const EnvPrefix = "SHELLPACK"

// Config carries every setting a backup or restore run needs.
type Config struct {
	Home         string      `mapstructure:"home" yaml:"home"`
	Verbose      int         `mapstructure:"verbose" yaml:"verbose"`
	DryRun       bool        `mapstructure:"dry_run" yaml:"dry_run"`
	RepoURL      string      `mapstructure:"repo_url" yaml:"repo_url"`
	LogFile      string      `mapstructure:"log_file" yaml:"log_file"`
	LogFormat    string      `mapstructure:"log_format" yaml:"log_format"`
	WorkspaceDir string      `mapstructure:"workspace_dir" yaml:"workspace_dir"`
	Conda        CondaConfig `mapstructure:"conda" yaml:"conda"`
}

// CondaConfig controls the Miniconda bootstrap on restore.
type CondaConfig struct {
	InstallDir string `mapstructure:"install_dir" yaml:"install_dir"`
}

// IsVerbose reports whether at least one -v was given.
func (c *Config) IsVerbose() bool {
	return c.Verbose > 0
}

// Init resets Viper and registers search paths, env binding and defaults.
// Call it once per command execution before binding flags.
func Init() {
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	if dir := os.Getenv(EnvPrefix + "_CONFIG_DIR"); dir != "" {
		viper.AddConfigPath(dir)
	}
	viper.AddConfigPath(paths.ConfigSearchDir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	home, _ := paths.ResolveHome()
	viper.SetDefault("home", home)
	viper.SetDefault("verbose", 0)
	viper.SetDefault("dry_run", false)
	viper.SetDefault("log_format", "text")
	viper.SetDefault("workspace_dir", os.TempDir())
	viper.SetDefault("conda.install_dir", filepath.Join(home, "miniconda3"))
}

// Load reads the configuration file and validates the result.
// If path is empty the default search paths are used and a missing file is
// not an error.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			if path != "" {
				return nil, errors.Wrapf(err, "config file not found at %s", path)
			}
		case path != "" && os.IsNotExist(err):
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	// Nested keys are not picked up by AutomaticEnv during Unmarshal.
	if v := viper.GetString("conda.install_dir"); v != "" {
		cfg.Conda.InstallDir = v
	}
	cfg.Conda.InstallDir = paths.Expand(cfg.Home, cfg.Conda.InstallDir)
	cfg.LogFile = paths.Expand(cfg.Home, cfg.LogFile)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Wrap(errs[0], "validating config")
	}

	return &cfg, nil
}
