package configs

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedFS embed.FS

var templateFS fs.FS = embeddedFS

// SetTemplateFS replaces the filesystem templates are read from. It exists
// so a customised MoriaServerConfig.ini.tmpl can be supplied at build time.
func SetTemplateFS(fsys fs.FS) {
	templateFS = fsys
}

func readTemplate(name string) ([]byte, error) {
	return fs.ReadFile(templateFS, "templates/"+name)
}
