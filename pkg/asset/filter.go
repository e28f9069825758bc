package asset

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"
)

// Filter decides which artifacts the pipeline inspects.
type Filter func(name string) bool

// devArtifacts admits hot-update chunks and css/*.css or js/*.js
// artifacts, except the runtime less.js itself.
var devArtifacts = regexp2.MustCompile(`(?:(?:\.hot-update\.js$)|(css|js)/((?!(less\.js$)).)+\.\1$)`, regexp2.None)

var productionArtifacts = regexp.MustCompile(`^css/.+\.css$`)

// DevFilter admits the artifacts of a development build: stylesheets and
// scripts under css/ and js/ plus hot-update chunks.
func DevFilter() Filter {
	return func(name string) bool {
		ok, err := devArtifacts.MatchString(name)
		return err == nil && ok
	}
}

// ProductionFilter admits the extracted stylesheets under css/.
func ProductionFilter() Filter {
	return productionArtifacts.MatchString
}

// DefaultFilter picks DevFilter or ProductionFilter.
func DefaultFilter(dev bool) Filter {
	if dev {
		return DevFilter()
	}
	return ProductionFilter()
}

// GlobFilter admits names matching any of the doublestar patterns.
func GlobFilter(patterns ...string) (Filter, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid artifact pattern: %s", p)
		}
	}
	return func(name string) bool {
		for _, p := range patterns {
			if m, _ := doublestar.Match(p, name); m {
				return true
			}
		}
		return false
	}, nil
}
