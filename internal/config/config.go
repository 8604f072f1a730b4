// Package config resolves server settings from defaults, a JSONC file, the
// environment and command-line flags.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

// FileName is the config file looked up in the working directory.
const FileName = "lostfound.json"

// EnvFileName is the dotenv file looked up in the working directory.
const EnvFileName = ".env"

// MediaPath is the URL path uploaded images are served under.
const MediaPath = "/media"

// MaxUploadLimitMB is the largest accepted max_upload_mb.
const MaxUploadLimitMB = 1024

var (
	// ErrConfigInvalid wraps every validation and parse failure.
	ErrConfigInvalid = errors.New("invalid config")
	// ErrConfigFileNotFound is returned when an explicitly named file is missing.
	ErrConfigFileNotFound = errors.New("config file not found")
)

// Config holds the server settings.
type Config struct {
	DB          string `json:"db"`
	Addr        string `json:"addr"`
	MediaDir    string `json:"media_dir"`
	PublicURL   string `json:"public_url"`
	Log         string `json:"log"`
	MaxUploadMB int    `json:"max_upload_mb"`
	Debug       bool   `json:"debug"`

	// Sources lists the files that were read, for diagnostics.
	Sources []string `json:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DB:          "lostfound.sqlite3",
		Addr:        ":8080",
		MediaDir:    "media",
		MaxUploadMB: 10,
	}
}

// MediaBaseURL is the prefix of public image URLs. Without a public URL the
// links are relative to the site root.
func (c Config) MediaBaseURL() string {
	return strings.TrimSuffix(c.PublicURL, "/") + MediaPath
}

// MaxUploadBytes is the request size limit for image uploads.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DB) == "":
		return fmt.Errorf("%w: db must not be empty", ErrConfigInvalid)
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrConfigInvalid)
	case strings.TrimSpace(c.MediaDir) == "":
		return fmt.Errorf("%w: media_dir must not be empty", ErrConfigInvalid)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("%w: max_upload_mb must be positive", ErrConfigInvalid)
	case c.MaxUploadMB > MaxUploadLimitMB:
		return fmt.Errorf("%w: max_upload_mb must be at most %d", ErrConfigInvalid, MaxUploadLimitMB)
	}
	return nil
}

const usage = `Usage: lostfound [flags]

Flags:
  -c, --config <path>       JSONC config file (default: lostfound.json if present)
      --env-file <path>     dotenv file (default: .env if present)
  -d, --db <path>           SQLite database path (default: lostfound.sqlite3)
  -a, --addr <host:port>    listen address (default: :8080)
  -m, --media-dir <path>    directory for uploaded images (default: media)
      --public-url <url>    public base URL used in image links (default: relative)
  -l, --log <path>          log file path (default: no file, stdout/stderr only)
      --max-upload-mb <n>   image upload limit in megabytes (default: 10)
      --debug               log every backend call
  -h, --help                show this help and exit

Environment:
  LOSTFOUND_DB, LOSTFOUND_ADDR, LOSTFOUND_MEDIA_DIR, LOSTFOUND_PUBLIC_URL,
  LOSTFOUND_LOG, LOSTFOUND_MAX_UPLOAD_MB, LOSTFOUND_DEBUG
`

// Load resolves the configuration. Precedence, highest wins:
//  1. Defaults
//  2. Config file (--config, or lostfound.json in workDir if it exists)
//  3. Dotenv file (--env-file, or .env in workDir if it exists)
//  4. Process environment
//  5. Flags
//
// It returns pflag.ErrHelp when help was requested.
func Load(args []string, env map[string]string, workDir string, out io.Writer) (Config, error) {
	fs := pflag.NewFlagSet("lostfound", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	def := Default()
	var flags Config
	configPath := fs.StringP("config", "c", "", "")
	envFile := fs.String("env-file", "", "")
	fs.StringVarP(&flags.DB, "db", "d", def.DB, "")
	fs.StringVarP(&flags.Addr, "addr", "a", def.Addr, "")
	fs.StringVarP(&flags.MediaDir, "media-dir", "m", def.MediaDir, "")
	fs.StringVar(&flags.PublicURL, "public-url", "", "")
	fs.StringVarP(&flags.Log, "log", "l", "", "")
	fs.IntVar(&flags.MaxUploadMB, "max-upload-mb", def.MaxUploadMB, "")
	fs.BoolVar(&flags.Debug, "debug", false, "")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg := def

	fileCfg, path, err := loadFile(resolve(workDir, *configPath), *configPath != "", FileName, workDir)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		cfg = merge(cfg, fileCfg)
		cfg.Sources = append(cfg.Sources, path)
	}

	dotenv, path, err := loadDotenv(resolve(workDir, *envFile), *envFile != "", workDir)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		cfg.Sources = append(cfg.Sources, path)
	}
	for k, v := range env {
		dotenv[k] = v
	}
	if cfg, err = applyEnv(cfg, dotenv); err != nil {
		return Config{}, err
	}

	applied := map[string]func(){
		"db":            func() { cfg.DB = flags.DB },
		"addr":          func() { cfg.Addr = flags.Addr },
		"media-dir":     func() { cfg.MediaDir = flags.MediaDir },
		"public-url":    func() { cfg.PublicURL = flags.PublicURL },
		"log":           func() { cfg.Log = flags.Log },
		"max-upload-mb": func() { cfg.MaxUploadMB = flags.MaxUploadMB },
		"debug":         func() { cfg.Debug = flags.Debug },
	}
	fs.Visit(func(f *pflag.Flag) {
		if apply, ok := applied[f.Name]; ok {
			apply()
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Environ converts os.Environ style pairs into a map.
func Environ(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func resolve(workDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workDir, p)
}

// loadFile reads the explicit config file, or the default one if present.
// It returns the path that was read, or "" when none was.
func loadFile(explicit string, mustExist bool, name, workDir string) (Config, string, error) {
	p := explicit
	if !mustExist {
		p = filepath.Join(workDir, name)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, "", nil
		}
		if os.IsNotExist(err) {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, p)
		}
		return Config{}, "", fmt.Errorf("reading config %s: %w", p, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, p, err)
	}
	return cfg, p, nil
}

func parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

// loadDotenv reads KEY=VALUE pairs without touching the process environment.
func loadDotenv(explicit string, mustExist bool, workDir string) (map[string]string, string, error) {
	p := explicit
	if !mustExist {
		p = filepath.Join(workDir, EnvFileName)
	}

	vars, err := godotenv.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return map[string]string{}, "", nil
		}
		return nil, "", fmt.Errorf("reading env file %s: %w", p, err)
	}
	return vars, p, nil
}

func merge(base, overlay Config) Config {
	if overlay.DB != "" {
		base.DB = overlay.DB
	}
	if overlay.Addr != "" {
		base.Addr = overlay.Addr
	}
	if overlay.MediaDir != "" {
		base.MediaDir = overlay.MediaDir
	}
	if overlay.PublicURL != "" {
		base.PublicURL = overlay.PublicURL
	}
	if overlay.Log != "" {
		base.Log = overlay.Log
	}
	if overlay.MaxUploadMB != 0 {
		base.MaxUploadMB = overlay.MaxUploadMB
	}
	if overlay.Debug {
		base.Debug = true
	}
	return base
}

func applyEnv(cfg Config, env map[string]string) (Config, error) {
	strs := []struct {
		key string
		dst *string
	}{
		{"LOSTFOUND_DB", &cfg.DB},
		{"LOSTFOUND_ADDR", &cfg.Addr},
		{"LOSTFOUND_MEDIA_DIR", &cfg.MediaDir},
		{"LOSTFOUND_PUBLIC_URL", &cfg.PublicURL},
		{"LOSTFOUND_LOG", &cfg.Log},
	}
	for _, s := range strs {
		if v, ok := env[s.key]; ok && v != "" {
			*s.dst = v
		}
	}

	if v := env["LOSTFOUND_MAX_UPLOAD_MB"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: LOSTFOUND_MAX_UPLOAD_MB: %w", ErrConfigInvalid, err)
		}
		cfg.MaxUploadMB = n
	}
	if v := env["LOSTFOUND_DEBUG"]; v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: LOSTFOUND_DEBUG: %w", ErrConfigInvalid, err)
		}
		cfg.Debug = b
	}
	return cfg, nil
}
