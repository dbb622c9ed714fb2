package formatter

import (
	"path/filepath"
	"strings"
)

// Detect guesses the format of text: a leading { or [ means JSON, anything
// else is treated as YAML.
func Detect(text string) Format {
	trimmed := strings.TrimLeft(text, " \t\r\n\ufeff")
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return JSON
	}

	return YAML
}

// UploadExtensions are the file types accepted by the upload control.
var UploadExtensions = []string{".json", ".yaml", ".yml", ".txt"}

// DetectFile picks the format from a file name, falling back to the content
// for .txt and unknown extensions.
func DetectFile(name, text string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	}

	return Detect(text)
}

// DownloadName is the file name offered when saving output.
func DownloadName(f Format) string {
	if f == YAML {
		return "formatted.yaml"
	}

	return "formatted.json"
}

// ContentType is the MIME type used when serving output.
func ContentType(f Format) string {
	if f == YAML {
		return "application/yaml; charset=utf-8"
	}

	return "application/json; charset=utf-8"
}
