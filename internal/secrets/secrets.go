// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves credentials from three layers, lowest precedence
// first: a dotenv file, a directory of plain-text key files, and the process
// environment. In the key directory each file is one secret: the filename is
// the key name and the trimmed file contents are the value.
//
// Supported keys: news-token, sec-ua, openai-api-key, anthropic-api-key, gemini-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/research-brief/pkg/types"
)

// Key names one credential in its environment and file forms.
type Key struct {
	Env  string
	File string
}

var (
	NewsToken    = Key{Env: "NEWS_TOKEN", File: "news-token"}
	SECUserAgent = Key{Env: "SEC_UA", File: "sec-ua"}
	OpenAIKey    = Key{Env: "OPENAI_API_KEY", File: "openai-api-key"}
	AnthropicKey = Key{Env: "ANTHROPIC_API_KEY", File: "anthropic-api-key"}
	GeminiKey    = Key{Env: "GEMINI_API_KEY", File: "gemini-api-key"}
)

// Keys lists every supported credential.
var Keys = []Key{NewsToken, SECUserAgent, OpenAIKey, AnthropicKey, GeminiKey}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map. Empty files,
// dotfiles, and subdirectories are skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading secret %s: %w", name, err)
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotenv reads a dotenv file. A missing file yields an empty map.
func LoadDotenv(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vals, nil
}

// Resolver merges the credential layers.
type Resolver struct {
	Dir       string
	Dotenv    string
	LookupEnv func(string) (string, bool)
}

// Resolve returns the merged credentials and the sorted names of the keys
// that were found, for logging.
func (r Resolver) Resolve() (types.Credentials, []string, error) {
	dotenv, err := LoadDotenv(r.Dotenv)
	if err != nil {
		return types.Credentials{}, nil, err
	}
	files, err := Load(r.Dir)
	if err != nil {
		return types.Credentials{}, nil, err
	}
	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	values := make(map[Key]string, len(Keys))
	var found []string
	for _, k := range Keys {
		v := strings.TrimSpace(dotenv[k.Env])
		if fv, ok := files[k.File]; ok {
			v = fv
		}
		if ev, ok := lookup(k.Env); ok && strings.TrimSpace(ev) != "" {
			v = strings.TrimSpace(ev)
		}
		if v != "" {
			values[k] = v
			found = append(found, k.Env)
		}
	}
	sort.Strings(found)

	return types.Credentials{
		NewsToken:    values[NewsToken],
		SECUserAgent: values[SECUserAgent],
		OpenAIKey:    values[OpenAIKey],
		AnthropicKey: values[AnthropicKey],
		GeminiKey:    values[GeminiKey],
	}, found, nil
}
