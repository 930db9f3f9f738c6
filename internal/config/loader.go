/**
* Copyright 2020 MonetDB Solutions B.V.
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/MonetDB/mapi-go/internal/sockcache"
)

// Flags holds the command-line flags this package understands.
type Flags struct {
	ConfigPath   string
	PrintVersion bool
	customPath   bool
}

// Load returns the application configuration, starting from compiled-in
// defaults, then overriding with a TOML file (if provided), then MAPI_*
// environment variables.
func Load(applicationName, applicationVersion string, arguments []string) (*AppConfig, *Flags, error) {
	LoaderWarnings = make([]string, 0)

	fl, err := parseFlags(applicationName, arguments)
	if err != nil {
		return nil, nil, err
	}
	if fl.PrintVersion {
		return nil, fl, nil
	}

	c := NewConfig()
	if fl.ConfigPath != "" {
		md, err := toml.DecodeFile(fl.ConfigPath, c)
		if err != nil {
			if fl.customPath {
				return nil, fl, fmt.Errorf("config: loading %s: %w", fl.ConfigPath, err)
			}
		} else {
			for _, k := range md.Undecoded() {
				LoaderWarnings = append(LoaderWarnings, fmt.Sprintf("unrecognized configuration key %q", k.String()))
			}
		}
	}

	for name, p := range c.Profiles {
		p.Name = name
	}

	loadEnvVars(c)

	if n, ok := sockcache.CacheTypeNames[strings.ToLower(c.SockCache.CacheType)]; ok {
		c.SockCache.CacheTypeID = n
	} else {
		LoaderWarnings = append(LoaderWarnings, fmt.Sprintf("unrecognized sockcache cache_type %q, defaulting to memory", c.SockCache.CacheType))
		c.SockCache.CacheTypeID = sockcache.CacheTypeMemory
	}

	if len(c.Profiles) == 0 {
		return nil, fl, fmt.Errorf("config: no connection profiles configured")
	}

	return c, fl, nil
}

func parseFlags(applicationName string, arguments []string) (*Flags, error) {
	fs := flag.NewFlagSet(applicationName, flag.ContinueOnError)
	fl := &Flags{}
	fs.StringVar(&fl.ConfigPath, "config", "", "path to a TOML configuration file")
	fs.BoolVar(&fl.PrintVersion, "version", false, "print the version and exit")
	if err := fs.Parse(arguments); err != nil {
		return nil, err
	}
	fl.customPath = fl.ConfigPath != ""
	return fl, nil
}

// loadEnvVars applies MAPI_* environment variable overrides on top of the
// file-loaded configuration. Only
// the "default" profile's URL and process-wide concerns are overridable
// this way; per-profile overrides belong in the TOML file.
func loadEnvVars(c *AppConfig) {
	if v, ok := os.LookupEnv("MAPI_DEFAULT_URL"); ok {
		if p, ok := c.Profiles["default"]; ok {
			p.URL = v
			p.resolved = nil
		}
	}
	if v, ok := os.LookupEnv("MAPI_LOG_LEVEL"); ok {
		c.Logging.LogLevel = v
	}
	if v, ok := os.LookupEnv("MAPI_LOG_FILE"); ok {
		c.Logging.LogFile = v
	}
	if v, ok := os.LookupEnv("MAPI_SOCKCACHE_TYPE"); ok {
		c.SockCache.CacheType = v
	}
	if v, ok := os.LookupEnv("MAPI_TRACING_IMPLEMENTATION"); ok {
		c.Tracing.Implementation = v
	}
	if v, ok := os.LookupEnv("MAPI_DIAG_LISTEN_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Main.DiagListenPort = n
		} else {
			LoaderWarnings = append(LoaderWarnings, fmt.Sprintf("MAPI_DIAG_LISTEN_PORT=%q is not an integer, ignoring", v))
		}
	}
}
