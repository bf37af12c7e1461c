package utils

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tempDir, err := ioutil.TempDir("", "gvi_conf_")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	configDoc := `{
  "red_path": "/data/landsat/B4.tif",
  "nir_path": "/data/landsat/B5.tif",
  "output_path": "/data/landsat/ndvi.tif",
  "expression": "(nir - red) / (nir + red)",
  "write_meta": true,
  "verbose": true
}`
	configFile := filepath.Join(tempDir, "config.json")
	if err := ioutil.WriteFile(configFile, []byte(configDoc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.RedPath != "/data/landsat/B4.tif" || cfg.NirPath != "/data/landsat/B5.tif" {
		t.Errorf("unexpected input paths: %+v", cfg)
	}
	if cfg.OutputPath != "/data/landsat/ndvi.tif" {
		t.Errorf("unexpected output path: %v", cfg.OutputPath)
	}
	if !cfg.WriteMeta || !cfg.Verbose {
		t.Errorf("boolean fields not parsed: %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.json"); err == nil {
		t.Errorf("expected error for missing config file")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	tempDir, err := ioutil.TempDir("", "gvi_conf_")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	configFile := filepath.Join(tempDir, "config.json")
	if err := ioutil.WriteFile(configFile, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(configFile); err == nil {
		t.Errorf("expected error for malformed config document")
	}
}
