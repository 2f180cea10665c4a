package gridbin

import (
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// FontResolver supplies the typeface for text labels. The engine never
// touches the filesystem layout directly; callers inject whatever
// ranking suits their host.
type FontResolver interface {
	ResolveFont() (*truetype.Font, error)
}

// FontPaths resolves fonts from a ranked list of TTF paths, falling
// back to the embedded Go Regular face when none load. Resolution never
// fails: text labels must not be skipped just because a host is missing
// fonts.
type FontPaths []string

// DefaultFonts is the ranked system font list used when the caller does
// not inject a resolver.
var DefaultFonts = FontPaths{
	"/usr/share/fonts/truetype/msttcorefonts/Arial.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/usr/share/fonts/truetype/freefont/FreeSans.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"/Library/Fonts/Arial.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// ResolveFont tries each path in order and parses the first readable
// TTF. The embedded fallback parse cannot fail at runtime.
func (fp FontPaths) ResolveFont() (*truetype.Font, error) {
	for _, path := range fp {
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := truetype.Parse(b)
		if err != nil {
			continue
		}
		return f, nil
	}
	return truetype.Parse(goregular.TTF)
}
