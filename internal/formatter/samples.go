package formatter

// SampleJSON is the document the editor opens with.
const SampleJSON = `{
  "name": "DevKit Lanka",
  "version": "1.0.0",
  "description": "A handy toolkit for developers",
  "features": [
    "Regex Playground",
    "JSON/YAML Formatter",
    "Boilerplate Generator",
    "Developer Cheat Sheets"
  ],
  "config": {
    "theme": "dark",
    "offline": true,
    "responsive": true
  }
}`

// SampleYAML is the same document in YAML.
const SampleYAML = `name: "DevKit Lanka"
version: "1.0.0"
description: "A handy toolkit for developers"
features:
  - "Regex Playground"
  - "JSON/YAML Formatter"
  - "Boilerplate Generator"
  - "Developer Cheat Sheets"
config:
  theme: "dark"
  offline: true
  responsive: true`

// Sample returns the sample document for f.
func Sample(f Format) string {
	if f == YAML {
		return SampleYAML
	}

	return SampleJSON
}
