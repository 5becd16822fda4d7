package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/optqo/optqo/activity"
	"github.com/optqo/optqo/catalog"
	"github.com/optqo/optqo/config"
	"github.com/optqo/optqo/engine"
	"github.com/optqo/optqo/fetch"
	"github.com/optqo/optqo/pipeline"
	"github.com/optqo/optqo/session"
)

// loadEngine builds an engine from the configured file, applying any
// CLI-level overrides first.
func loadEngine(override func(*config.Config)) (*engine.Engine, error) {
	cfg, err := config.LoadConfig(rootFlags.config)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(&cfg)
	}
	return engine.New(cfg)
}

// errKind names the failure class for stderr output, mirroring the
// kinds the daemon returns over HTTP.
func errKind(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, activity.ErrNotFound):
		return "not_found"
	case errors.Is(err, pipeline.ErrNotEnabled):
		return "not_enabled"
	case errors.Is(err, session.ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, catalog.ErrInvalid), errors.Is(err, config.ErrInvalid):
		return "config_error"
	case errors.Is(err, fetch.ErrBadTarget):
		return "bad_target"
	default:
		return "internal"
	}
}

// printJSON pretty-prints v to w.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// parseParams converts repeated key=value flags into a map.
func parseParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := cutParam(pair)
		if !ok {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

func cutParam(pair string) (string, string, bool) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			return pair[:i], pair[i+1:], i > 0
		}
	}
	return "", "", false
}
