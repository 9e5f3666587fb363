// Package config holds the embedded default configuration and the viper
// loading shared by the CLI, the API server and the tests.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaultYAML []byte

// Defaults returns the embedded default configuration document.
func Defaults() []byte {
	return defaultYAML
}

// Load reads the embedded defaults into the global viper instance and then
// merges the user's config file on top. An empty cfgFile searches the working
// directory and $HOME for .akkountant.yaml.
func Load(cfgFile string) error {
	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		return fmt.Errorf("failed to read default config: %w", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".akkountant")
	}

	viper.SetEnvPrefix("AKKOUNTANT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			log.Debug("no config file found, using embedded defaults")
			return nil
		}
		return fmt.Errorf("failed to merge config %s: %w", cfgFile, err)
	}
	log.Debugf("using config file: %s", viper.ConfigFileUsed())
	return nil
}

// UseDefaults resets viper to the embedded defaults only. Tests call it before
// loading layout profiles or email patterns.
func UseDefaults() {
	viper.Reset()
	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		panic(fmt.Sprintf("embedded config is invalid: %v", err))
	}
}
