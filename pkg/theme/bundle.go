package theme

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gnana997/lesstheme/pkg/asset"
	"github.com/gnana997/lesstheme/pkg/probe"
)

// Bundle is what a build hands to the runtime switcher.
type Bundle struct {
	// Stylesheet is the minified symbolic stylesheet.
	Stylesheet string `json:"stylesheet"`

	// Palette holds the default colors of the theme variables.
	Palette Palette `json:"palette"`

	// Classes maps every probe class to its symbolic name.
	Classes map[string]string `json:"classes"`

	// Bases lists the theme variables a palette may set.
	Bases []string `json:"bases"`

	// Hash is the hex sha256 of Stylesheet.
	Hash string `json:"hash"`

	StorageKey string `json:"storageKey"`
}

// NewBundle assembles a bundle from a symbolic stylesheet.
func NewBundle(stylesheet string, defaults Palette, result *probe.Result) *Bundle {
	b := &Bundle{
		Stylesheet: stylesheet,
		Palette:    defaults,
		Classes:    make(map[string]string, len(result.Specs)),
		Hash:       Hash(stylesheet),
		StorageKey: StorageKey,
	}
	for _, s := range result.Specs {
		b.Classes[probe.ClassName(s.Name)] = s.Name
		if !s.Derived() {
			b.Bases = append(b.Bases, s.Name)
		}
	}
	return b
}

// Hash returns the hex sha256 of a stylesheet.
func Hash(stylesheet string) string {
	sum := sha256.Sum256([]byte(stylesheet))
	return hex.EncodeToString(sum[:])
}

// Changed reports whether b differs from an earlier build. A nil prev
// never counts as a change.
func (b *Bundle) Changed(prev *Bundle) bool {
	return prev != nil && prev.Hash != b.Hash
}

// Metadata returns the bundle without its stylesheet as JSON.
func (b *Bundle) Metadata() ([]byte, error) {
	type metadata struct {
		Palette    Palette           `json:"palette"`
		Classes    map[string]string `json:"classes"`
		Bases      []string          `json:"bases"`
		Hash       string            `json:"hash"`
		StorageKey string            `json:"storageKey"`
	}
	return json.MarshalIndent(metadata{
		Palette:    b.Palette,
		Classes:    b.Classes,
		Bases:      b.Bases,
		Hash:       b.Hash,
		StorageKey: b.StorageKey,
	}, "", "  ")
}

// escapeSingleQuoted makes text safe inside a single-quoted script string.
var escapeSingleQuoted = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)

// HotPatch returns the script that swaps the runtime stylesheet during a
// hot update and reapplies the stored palette, or the defaults when none
// is stored.
func HotPatch(b *Bundle) (string, error) {
	defaults, err := json.Marshal(b.Palette)
	if err != nil {
		return "", fmt.Errorf("failed to encode palette: %w", err)
	}
	return fmt.Sprintf(";(function(){window.__lessContent='%s';window.changeThemeUseLess(JSON.parse(localStorage.getItem('%s'))||%s);})();\n",
		escapeSingleQuoted.Replace(b.Stylesheet), b.StorageKey, defaults), nil
}

// PatchHotUpdate prepends HotPatch to the first hot-update artifact in
// store. It returns the patched name, or "" when there is none.
func PatchHotUpdate(store asset.Store, b *Bundle) (string, error) {
	var names []string
	for _, name := range store.Names() {
		if asset.KindOf(name) == asset.KindHotUpdate {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	name := names[0]

	patch, err := HotPatch(b)
	if err != nil {
		return "", err
	}
	text, err := store.Text(name)
	if err != nil {
		return "", err
	}
	if err := store.Replace(name, patch+text); err != nil {
		return "", err
	}
	return name, nil
}
