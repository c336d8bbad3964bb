package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/annchain/schain-manager/common/files"
	"github.com/annchain/schain-manager/common/utilfuncs"
)

// readConfig merges the toml config under dir.root if present, then the
// SCHAIN_ environment.
func readConfig() {
	configPath := files.FixPrefixPath(viper.GetString("dir.root"), viper.GetString("config"))
	if files.FileExists(configPath) {
		mergeLocalConfig(configPath)
	} else {
		fmt.Println("config file not exist, using defaults", configPath)
	}
	mergeEnvConfig()

	// print running config in console.
	b, err := json.MarshalIndent(viper.AllSettings(), "", "  ")
	utilfuncs.PanicIfError(err, "dump json")
	fmt.Println(string(b))
}

func mergeEnvConfig() {
	// env override
	viper.SetEnvPrefix("schain")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func mergeLocalConfig(configPath string) {
	absPath, err := filepath.Abs(configPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing config file path: %s", absPath))

	file, err := os.Open(absPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on opening config file: %s", absPath))
	defer file.Close()

	viper.SetConfigType("toml")
	err = viper.MergeConfig(file)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on reading config file: %s", absPath))
}
