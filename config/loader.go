// Package config loads process configuration with viper.
//
// LoadConfig reads, lowest precedence first: the YAML file, variables from a
// .env file, GOBATCH_* environment variables and finally bound command-line
// flags. GOBATCH_CLIENT_BASE_URL sets client.base_url; every split of the
// name on underscores is tried, so nested keys containing underscores resolve.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable LoadConfig reads.
const EnvPrefix = "GOBATCH_"

// FileSystem abstracts file lookups so file resolution can be tested.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem on the OS.
type RealFileSystem struct{}

// Exists reports whether path can be stat'ed.
func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file without overriding variables already set.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver finds config and env files for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths when given, otherwise the first
// existing candidate of the standard locations.
func (r *Resolver) ResolveFiles(serviceName string, lc LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(configCandidates(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(envCandidates(serviceName))
	}
	return files
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

func configCandidates(serviceName string) []string {
	var paths []string
	for _, dir := range []string{"./cmd/" + serviceName, "../cmd/" + serviceName, "./config", "."} {
		paths = append(paths, dir+"/config.yml", dir+"/config.yaml")
	}
	return paths
}

func envCandidates(serviceName string) []string {
	return []string{
		"./cmd/" + serviceName + "/.env",
		".env." + serviceName,
		".env",
	}
}

// LoaderConfig holds dependencies and optional overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	Flags      map[string]*pflag.Flag
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithFlag binds a command-line flag to key. The flag wins over every other
// source when it was set explicitly.
func WithFlag(key string, f *pflag.Flag) LoaderOption {
	return func(lc *LoaderConfig) {
		if f == nil {
			return
		}
		if lc.Flags == nil {
			lc.Flags = make(map[string]*pflag.Flag)
		}
		lc.Flags[key] = f
	}
}

// LoadConfig loads configuration for serviceName into cfg. Missing files are
// not an error; an unreadable or malformed one is.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}

	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(serviceName, lc)
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: reading %s: %w", files.ConfigFile, err)
		}
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("config: loading %s: %w", files.EnvFile, err)
		}
	}
	if err := bindEnv(v); err != nil {
		return err
	}

	for key, f := range lc.Flags {
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: binding flag %s: %w", f.Name, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for service %s: %w", serviceName, err)
	}
	return nil
}

// bindEnv binds every GOBATCH_* variable under each of its key variants.
func bindEnv(v *viper.Viper) error {
	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) || len(name) == len(EnvPrefix) {
			continue
		}
		for _, key := range envKeyVariants(strings.TrimPrefix(name, EnvPrefix)) {
			if err := v.BindEnv(key, name); err != nil {
				return fmt.Errorf("config: binding %s: %w", name, err)
			}
		}
	}
	return nil
}

// envKeyVariants returns the dotted keys an env name may stand for:
//
//	CLIENT_BASE_URL -> client_base_url, client.base_url, client.base.url, client_base.url
func envKeyVariants(envKey string) []string {
	parts := strings.Split(strings.ToLower(envKey), "_")
	if len(parts) == 1 {
		return parts
	}

	// each of the n-1 gaps is either '_' or '.'
	gaps := len(parts) - 1
	if gaps > 6 {
		gaps = 6
	}
	seen := make(map[string]bool)
	var out []string
	for mask := 0; mask < 1<<gaps; mask++ {
		var b strings.Builder
		b.WriteString(parts[0])
		for i := 1; i < len(parts); i++ {
			sep := byte('_')
			if i-1 < gaps && mask&(1<<(i-1)) != 0 {
				sep = '.'
			}
			b.WriteByte(sep)
			b.WriteString(parts[i])
		}
		if k := b.String(); !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
