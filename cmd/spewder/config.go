package main

import (
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML loads flag defaults from a YAML document. Keys are flag names,
// either dashed ("max-pages") or with underscores ("max_pages"). Sequences
// map to repeatable flags.
//
//	depth: 5
//	delay: 500ms
//	exclude:
//	  - /blog/
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, err
	}

	var f kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		if raw, ok := values[flag.Name]; ok {
			return raw, nil
		}
		if raw, ok := values[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
			return raw, nil
		}
		return nil, nil
	}
	return f, nil
}
