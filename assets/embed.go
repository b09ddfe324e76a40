// assets/embed.go
//
// Embedded files shipped inside the binary:
//   - narrative.txt: the paragraph the word sequence is cut from.
//   - web/:          the single-page browser client.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed narrative.txt web
var FS embed.FS

// Narrative returns the raw narrative paragraph.
func Narrative() (string, error) {
	b, err := FS.ReadFile("narrative.txt")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Web returns the browser client rooted at web/.
func Web() (fs.FS, error) {
	return fs.Sub(FS, "web")
}
