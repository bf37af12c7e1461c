package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
)

// Config is the struct representing the configuration of one
// index computation run. Every field has a flag counterpart on
// the command line; flags take precedence over the file.
type Config struct {
	RedPath    string `json:"red_path"`
	NirPath    string `json:"nir_path"`
	OutputPath string `json:"output_path"`
	Expression string `json:"expression"`
	WriteMeta  bool   `json:"write_meta"`
	LogDir     string `json:"log_dir"`
	Verbose    bool   `json:"verbose"`
}

func LoadConfig(configFile string) (*Config, error) {
	cfg := &Config{}
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("Error while reading config file: %s. Error: %v", configFile, err)
	}

	err = json.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("Error at JSON parsing config document: %s. Error: %v", configFile, err)
	}

	return cfg, nil
}
