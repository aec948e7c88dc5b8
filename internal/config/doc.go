// Package config loads shellpack settings with Viper.
//
// Values come from, in increasing precedence: built-in defaults, a
// config.yaml in the current directory or $XDG_CONFIG_HOME/shellpack,
// SHELLPACK_* environment variables, and command-line flags bound by the
// cmd layer. The resulting [Config] is a plain value handed to every
// component; nothing below the cmd layer reads Viper directly.
package config
