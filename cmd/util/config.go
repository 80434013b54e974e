package util

import (
	"strings"

	"github.com/imdario/mergo"
	"github.com/spf13/pflag"
	"github.com/zizibee/zizibee/config"
)

func normalize(name string) string {
	from := []string{"-", "_"}
	to := "."
	for _, sep := range from {
		name = strings.Replace(name, sep, to, -1)
	}
	return strings.ToLower(name)
}

// NormalizeFlags allows for flags to be case and separator insensitive.
// Use it by passing it to cobra.Command.SetGlobalNormalizationFunc
func NormalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	lookup := map[string]string{"help": "help", normalize(name): name}

	f.VisitAll(func(f *pflag.Flag) {
		lookup[normalize(f.Name)] = f.Name
	})

	return pflag.NormalizedName(lookup[normalize(name)])
}

// MergeConfigFileWithFlags loads the defaults, overlays the config file at
// "file" (if any) and finally overlays the non-zero values set by flags.
// Flag values override values in the provided config file.
func MergeConfigFileWithFlags(file string, flagConf config.Config) (config.Config, error) {
	conf, err := MergeLocalConfigFileWithFlags(file, flagConf)
	if err != nil {
		return conf, err
	}
	return conf, config.Validate(conf)
}

// MergeLocalConfigFileWithFlags merges like MergeConfigFileWithFlags but
// skips validation, for commands which never contact the cluster.
func MergeLocalConfigFileWithFlags(file string, flagConf config.Config) (config.Config, error) {
	conf := config.DefaultConfig()
	err := config.ParseFile(file, &conf)
	if err != nil {
		return conf, err
	}

	// file vals <- cli val
	err = mergo.MergeWithOverwrite(&conf, flagConf)
	return conf, err
}
