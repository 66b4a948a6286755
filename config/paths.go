package config

import (
	"path"

	"github.com/mitchellh/go-homedir"
)

const DefaultHomeDir = "~/.uttp"

func ExpandHomePath(path string) string {
	res, err := homedir.Expand(path)
	if err != nil {
		panic(err)
	}
	return res
}

func ExpandConfigPath(homePath string) string {
	return path.Join(homePath, ConfigFilename)
}
