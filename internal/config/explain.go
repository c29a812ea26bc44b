package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at a dotted YAML path and where it
// came from. Paths follow the config file keys, for example:
//
//	gap_size
//	screen_padding.top
//	hotkeys.workspaces.2
//	layouts.grid.tile_region.type
//
// The returned Source is zero when the value is a default.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, errors.New("no config loaded")
	}
	if path == "" {
		return nil, Source{}, errors.New("path is empty")
	}

	data, err := yaml.Marshal(res.Config)
	if err != nil {
		return nil, Source{}, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, Source{}, err
	}

	node := &doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	for _, key := range strings.Split(path, ".") {
		node = child(node, key)
		if node == nil {
			return nil, Source{}, fmt.Errorf("unknown path: %s", path)
		}
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return nil, Source{}, err
	}
	return value, res.Sources[path], nil
}

func child(node *yaml.Node, key string) *yaml.Node {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				return node.Content[i+1]
			}
		}
	case yaml.SequenceNode:
		i, err := strconv.Atoi(key)
		if err == nil && i >= 0 && i < len(node.Content) {
			return node.Content[i]
		}
	}
	return nil
}

// Describe renders a source for display.
func (s Source) Describe() string {
	if s.File == "" {
		return "default"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}
