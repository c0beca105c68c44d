package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileVar names the env var holding an optional YAML config file.
const ConfigFileVar = "WORKBENCH_CONFIG"

// FileConfig is the YAML shape accepted by Load. Every field maps onto one of
// the env vars read by the getters; env vars always win.
type FileConfig struct {
	AppName string `yaml:"app_name"`
	Env     string `yaml:"env"`

	Endpoints struct {
		AuthURL      string `yaml:"auth_url"`
		APIURL       string `yaml:"api_url"`
		LoginPath    string `yaml:"login_path"`
		TokenPath    string `yaml:"token_path"`
		RefreshPath  string `yaml:"refresh_path"`
		LogoutPath   string `yaml:"logout_path"`
		CallbackPort int    `yaml:"callback_port"`
		LandingURL   string `yaml:"landing_url"`
		HTTPTimeout  string `yaml:"http_timeout"`
	} `yaml:"endpoints"`

	Session struct {
		VerifierLength  int    `yaml:"verifier_length"`
		CSRFHeader      string `yaml:"csrf_header"`
		CoalesceRefresh *bool  `yaml:"coalesce_refresh"`
	} `yaml:"session"`

	Store struct {
		Driver     string `yaml:"driver"`
		Path       string `yaml:"path"`
		Passphrase string `yaml:"passphrase"`
	} `yaml:"store"`

	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		File      string `yaml:"file"`
		MaxSizeMB int    `yaml:"max_size_mb"`
	} `yaml:"log"`
}

// Load populates the process environment from ./.env and, when
// WORKBENCH_CONFIG is set, from a YAML file. Neither source overrides
// variables that are already set. A missing .env file is not an error.
func Load() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("[config.Load] .env: %w", err)
	}

	path := os.Getenv(ConfigFileVar)
	if path == "" {
		return nil
	}
	fc, err := ReadFile(path)
	if err != nil {
		return err
	}
	for k, v := range fc.Vars() {
		if _, ok := os.LookupEnv(k); ok || v == "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("[config.Load] setenv %s: %w", k, err)
		}
	}
	return nil
}

// ReadFile parses a YAML config file.
func ReadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config.ReadFile] %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("[config.ReadFile] parse %s: %w", path, err)
	}
	return &fc, nil
}

// Vars flattens the file into env var assignments. Unset fields map to "".
func (fc *FileConfig) Vars() map[string]string {
	vars := map[string]string{
		appNameVar:         fc.AppName,
		envVar:             fc.Env,
		authBaseURLVar:     fc.Endpoints.AuthURL,
		apiBaseURLVar:      fc.Endpoints.APIURL,
		loginPathVar:       fc.Endpoints.LoginPath,
		tokenPathVar:       fc.Endpoints.TokenPath,
		refreshPathVar:     fc.Endpoints.RefreshPath,
		logoutPathVar:      fc.Endpoints.LogoutPath,
		landingURLVar:      fc.Endpoints.LandingURL,
		httpTimeoutVar:     fc.Endpoints.HTTPTimeout,
		csrfHeaderVar:      fc.Session.CSRFHeader,
		storeDriverVar:     fc.Store.Driver,
		storePathVar:       fc.Store.Path,
		storePassphraseVar: fc.Store.Passphrase,
		"LOG_LEVEL":        fc.Log.Level,
		"LOG_FORMAT":       fc.Log.Format,
		"LOG_FILE":         fc.Log.File,
	}
	if fc.Endpoints.CallbackPort > 0 {
		vars[callbackPortVar] = strconv.Itoa(fc.Endpoints.CallbackPort)
	}
	if fc.Session.VerifierLength > 0 {
		vars[verifierLengthVar] = strconv.Itoa(fc.Session.VerifierLength)
	}
	if fc.Session.CoalesceRefresh != nil {
		vars[coalesceRefreshVar] = strconv.FormatBool(*fc.Session.CoalesceRefresh)
	}
	if fc.Log.MaxSizeMB > 0 {
		vars["LOG_MAX_SIZE_MB"] = strconv.Itoa(fc.Log.MaxSizeMB)
	}
	return vars
}
