// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package doc serves the Open API description of the pool API.
package doc

import (
	"embed"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

const specFile = "nodepool.yaml"

//go:embed nodepool.yaml
var FS embed.FS

type openAPI struct {
	Info struct {
		Version string `yaml:"version"`
	} `yaml:"info"`
	Paths map[string]yaml.Node `yaml:"paths"`
}

// load parses the embedded file once. The file is part of the binary, so a
// parse failure is a build defect.
var load = sync.OnceValue(func() *openAPI {
	content, err := FS.ReadFile(specFile)
	if err != nil {
		panic(err)
	}
	var oai openAPI
	if err := yaml.Unmarshal(content, &oai); err != nil {
		panic(err)
	}
	return &oai
})

// Version is the API version, sent with every response.
func Version() string {
	return load().Info.Version
}

// Paths lists the documented paths, sorted.
func Paths() []string {
	paths := make([]string, 0, len(load().Paths))
	for p := range load().Paths {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}
