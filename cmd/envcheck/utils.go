package envcheck

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/envcheck/envcheck/internal/config"
	"github.com/envcheck/envcheck/internal/envfile"
	"github.com/envcheck/envcheck/internal/logging"
	"github.com/envcheck/envcheck/internal/types"
	"github.com/spf13/cobra"
)

// setup loads the merged config for root and initializes logging from it.
// CLI flags win over the config file.
func setup(cmd *cobra.Command, root string) (config.FileConfig, error) {
	fc, err := config.Load(root)
	if err != nil {
		return fc, err
	}
	var level, format *string
	if fc.Log != nil {
		level, format = fc.Log.Level, fc.Log.Format
	}
	logging.Init(logging.Config{
		Level:     pickString(flagLogLevel, level),
		Format:    pickString(flagLogFormat, format),
		Component: cmd.Name(),
		Out:       cmd.ErrOrStderr(),
	})
	return fc, nil
}

// failThreshold resolves --fail-on. ok is false when failing is disabled.
func failThreshold(fc config.FileConfig) (types.Severity, bool, error) {
	v := pickString(flagFailOn, fc.FailOn)
	if strings.EqualFold(v, "off") || strings.EqualFold(v, "none") {
		return 0, false, nil
	}
	sev, err := config.Severity(&v, types.SevMedium)
	return sev, err == nil, err
}

// loadEnv merges the given env files, later files winning. With no files it
// returns the process environment.
func loadEnv(files []string) (map[string]string, error) {
	env := map[string]string{}
	if len(files) == 0 {
		for _, kv := range os.Environ() {
			k, v, ok := strings.Cut(kv, "=")
			if ok && k != "" {
				env[k] = v
			}
		}
		return env, nil
	}
	for _, f := range files {
		m, err := envfile.Read(f)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			env[k] = v
		}
	}
	return env, nil
}

// stateDir resolves a directory flag against the config and a default below
// root.
func stateDir(cli string, cfg *string, root, def string) string {
	d := pickString(cli, cfg)
	if d == "" {
		d = filepath.Join(root, def)
	}
	return d
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func pickString(cli string, fallbacks ...*string) string {
	if cli != "" {
		return cli
	}
	for _, f := range fallbacks {
		if f != nil && *f != "" {
			return *f
		}
	}
	return ""
}

func pickInt(cli int, fallbacks ...*int) int {
	if cli != 0 {
		return cli
	}
	for _, f := range fallbacks {
		if f != nil && *f != 0 {
			return *f
		}
	}
	return 0
}

func pickInt64(cli int64, fallbacks ...*int64) int64 {
	if cli != 0 {
		return cli
	}
	for _, f := range fallbacks {
		if f != nil && *f != 0 {
			return *f
		}
	}
	return 0
}

// pickBool returns the flag value when it was set on the command line,
// otherwise the first configured value, otherwise def.
func pickBool(cmd *cobra.Command, name string, cli bool, def bool, fallbacks ...*bool) bool {
	if cmd.Flags().Changed(name) {
		return cli
	}
	for _, f := range fallbacks {
		if f != nil {
			return *f
		}
	}
	return def
}
