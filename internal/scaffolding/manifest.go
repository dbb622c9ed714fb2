package scaffolding

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/devkitlanka/devkit/internal/formatter"
)

// Sections names the manifest keys that receive add-on packages.
type Sections struct {
	Dependencies    string
	DevDependencies string
	Scripts         string
}

var (
	npmSections      = Sections{Dependencies: "dependencies", DevDependencies: "devDependencies", Scripts: "scripts"}
	composerSections = Sections{Dependencies: "require", DevDependencies: "require-dev", Scripts: "scripts"}
)

// manifest builds a package manifest entry. base renders the manifest
// without add-ons as JSON; the packages of every enabled add-on are merged
// into it in declaration order. Existing keys keep their position, new
// sections and keys are appended.
func (t *ProjectTemplate) manifest(path string, sections Sections, base func(ProjectConfig) string) Entry {
	return Entry{
		Path: path,
		Generate: func(cfg ProjectConfig, features Features) string {
			doc, err := formatter.Parse(base(cfg), formatter.JSON, "")
			if err != nil {
				panic("scaffolding: " + t.ID + " " + path + ": " + err.Error())
			}
			root := doc.Nodes[0].Content[0]

			for _, a := range t.Addons {
				if !features.On(a.ID) || a.Packages == nil {
					continue
				}
				mergeSection(root, sections.Dependencies, a.Packages.Dependencies)
				mergeSection(root, sections.DevDependencies, a.Packages.DevDependencies)
				mergeSection(root, sections.Scripts, a.Packages.Scripts)
			}

			out, err := doc.Encode(formatter.JSON, 2, false)
			if err != nil {
				panic("scaffolding: " + t.ID + " " + path + ": " + err.Error())
			}

			return out
		},
	}
}

func mergeSection(root *yaml.Node, name string, pairs []Pair) {
	if len(pairs) == 0 {
		return
	}

	section := lookup(root, name)
	if section == nil {
		section = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		root.Content = append(root.Content, stringNode(name), section)
	}
	for _, p := range pairs {
		if v := lookup(section, p.Key); v != nil {
			*v = *stringNode(p.Value)

			continue
		}
		section.Content = append(section.Content, stringNode(p.Key), stringNode(p.Value))
	}
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}

	return nil
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// prettyJSON indents a static JSON document by two spaces.
func prettyJSON(compact string) string {
	out, err := formatter.Pretty(compact, formatter.JSON, 2)
	if err != nil {
		panic("scaffolding: static JSON: " + err.Error())
	}

	return out
}

// quote renders s as a JSON string literal.
func quote(s string) string {
	b, _ := json.Marshal(s)

	return string(b)
}

func pairs(kv ...string) []Pair {
	out := make([]Pair, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, Pair{Key: kv[i], Value: kv[i+1]})
	}

	return out
}
