package launcher

import (
	"errors"
	"fmt"

	"github.com/bitrise-io/go-utils/log"
	"github.com/bitrise-steplib/steps-launcher-integration/capability"
	"github.com/bitrise-steplib/steps-launcher-integration/deeplink"
	"github.com/bitrise-steplib/steps-launcher-integration/manifest"
	"github.com/bitrise-steplib/steps-launcher-integration/prefs"
	"github.com/bitrise-steplib/steps-launcher-integration/signin"
)

// Load builds a Host from the application manifest.
// An undeclared or unusable deep link pattern disables deep linking only.
func Load(m *manifest.Manifest, store prefs.Store, sender Sender) (Host, error) {
	return LoadWithPattern(m, store, sender, "")
}

// LoadWithPattern is Load with patternOverride used in place of the declared pattern when not empty.
// An override that does not compile is an error.
func LoadWithPattern(m *manifest.Manifest, store prefs.Store, sender Sender, patternOverride string) (Host, error) {
	desc := capability.FromMetadata(m.Metadata())

	app := capability.App{Package: m.Package()}
	if class, err := m.LaunchActivityClass(); err != nil {
		log.Errorf("Failed to find launch activity: %s", err)
	} else {
		app.Class = class
	}

	pattern, err := loadPattern(desc, patternOverride)
	if err != nil {
		return Host{}, err
	}

	return NewHost(app, desc, signin.NewStore(store, desc), sender, pattern), nil
}

func loadPattern(desc capability.MetadataDescriptor, override string) (*deeplink.Pattern, error) {
	if override != "" {
		pattern, err := deeplink.CompilePattern(override)
		if err != nil {
			return nil, fmt.Errorf("invalid deep link pattern: %w", err)
		}
		return pattern, nil
	}

	pattern, err := desc.DeepLinkPattern()
	if errors.Is(err, manifest.ErrMissingMetadata) {
		log.Errorf("No deep link pattern declared (%s), deep linking is disabled", capability.DeepLinkRegexKey)
		return nil, nil
	}
	if err != nil {
		log.Errorf("Invalid deep link pattern (%s), deep linking is disabled: %s", capability.DeepLinkRegexKey, err)
		return nil, nil
	}
	return pattern, nil
}
