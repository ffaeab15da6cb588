package capability

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitrise-steplib/steps-launcher-integration/deeplink"
	"github.com/bitrise-steplib/steps-launcher-integration/intent"
)

// Application meta-data keys read by the integration.
const (
	PartnerIDKey             = "com.amazon.cordova.plugins.launcher.PARTNER_ID"
	DisplayNameKey           = "com.amazon.cordova.plugins.launcher.DISPLAY_NAME"
	DefaultSignedInStatusKey = "com.amazon.cordova.plugins.launcher.DEFAULT_SIGNEDIN_STATUS"
	VideoIDIsURIKey          = "com.amazon.cordova.plugins.launcher.VIDEO_ID_IS_URI"
	DeepLinkRegexKey         = "com.amazon.cordova.plugins.launcher.DEEP_LINK_REGEX"
)

// Launcher side of the capabilities broadcast.
const (
	LauncherPackage    = "com.amazon.tv.launcher"
	CapabilitiesAction = "com.amazon.device.CAPABILITIES"

	extraPrefix = "amazon.intent.extra."
)

// Modifier selects the extras namespace advertised to the launcher.
type Modifier string

// Modifier values
const (
	ModifierPlay   Modifier = "PLAY"
	ModifierSignIn Modifier = "SIGNIN"
)

// ModifierFor ...
func ModifierFor(signedIn bool) Modifier {
	if signedIn {
		return ModifierPlay
	}
	return ModifierSignIn
}

// MetadataReader is the application meta-data store.
type MetadataReader interface {
	String(key string) (string, error)
	Bool(key string) (bool, error)
}

// Descriptor exposes the configuration reads the launch path depends on.
type Descriptor interface {
	IsURIFormExpected() (bool, error)
	DefaultSignedInStatus() (bool, error)
}

// BroadcastDescriptor is a Descriptor that also names the partner advertised to the launcher.
type BroadcastDescriptor interface {
	Descriptor
	PartnerID() (string, error)
	DisplayName() (string, error)
}

// App identifies the activity the launcher should start.
type App struct {
	Package string
	Class   string
}

// MetadataDescriptor is a BroadcastDescriptor backed by application meta-data.
type MetadataDescriptor struct {
	md MetadataReader
}

var _ BroadcastDescriptor = MetadataDescriptor{}

// FromMetadata ...
func FromMetadata(md MetadataReader) MetadataDescriptor {
	return MetadataDescriptor{md: md}
}

func (d MetadataDescriptor) reader() (MetadataReader, error) {
	if d.md == nil {
		return nil, errors.New("application meta-data not available")
	}
	return d.md, nil
}

// IsURIFormExpected reports whether launch content ids arrive in the intent data URI.
func (d MetadataDescriptor) IsURIFormExpected() (bool, error) {
	md, err := d.reader()
	if err != nil {
		return false, err
	}
	return md.Bool(VideoIDIsURIKey)
}

// DefaultSignedInStatus ...
func (d MetadataDescriptor) DefaultSignedInStatus() (bool, error) {
	md, err := d.reader()
	if err != nil {
		return false, err
	}
	return md.Bool(DefaultSignedInStatusKey)
}

// PartnerID ...
func (d MetadataDescriptor) PartnerID() (string, error) {
	md, err := d.reader()
	if err != nil {
		return "", err
	}
	return md.String(PartnerIDKey)
}

// DisplayName ...
func (d MetadataDescriptor) DisplayName() (string, error) {
	md, err := d.reader()
	if err != nil {
		return "", err
	}
	return md.String(DisplayNameKey)
}

// DeepLinkPattern loads and compiles the configured extraction pattern.
func (d MetadataDescriptor) DeepLinkPattern() (*deeplink.Pattern, error) {
	md, err := d.reader()
	if err != nil {
		return nil, err
	}
	expr, err := md.String(DeepLinkRegexKey)
	if err != nil {
		return nil, err
	}
	return deeplink.CompilePattern(expr)
}

// Broadcast builds the capabilities intent sent to the launcher.
// Nothing is built when the partner id or display name is not configured.
func Broadcast(app App, desc BroadcastDescriptor, signedIn bool) (intent.Intent, error) {
	partnerID, err := desc.PartnerID()
	if err != nil {
		return intent.Intent{}, fmt.Errorf("failed to read partner id: %w", err)
	}
	displayName, err := desc.DisplayName()
	if err != nil {
		return intent.Intent{}, fmt.Errorf("failed to read display name: %w", err)
	}

	in := intent.Intent{
		Action:  CapabilitiesAction,
		Package: LauncherPackage,
	}
	if err := putAmazonExtras(&in, app, desc, ModifierFor(signedIn)); err != nil {
		return intent.Intent{}, err
	}
	in.PutExtra(extraPrefix+"PARTNER_ID", partnerID)
	in.PutExtra(extraPrefix+"DISPLAY_NAME", displayName)

	return in, nil
}

func putAmazonExtras(in *intent.Intent, app App, desc Descriptor, modifier Modifier) error {
	if app.Package == "" || app.Class == "" {
		return errors.New("launch activity is not known")
	}

	prefix := extraPrefix + string(modifier)
	in.PutExtra(prefix+"_INTENT_ACTION", intent.ActionView)
	in.PutExtra(prefix+"_INTENT_PACKAGE", app.Package)
	in.PutExtra(prefix+"_INTENT_CLASS", app.Class)
	in.PutExtra(prefix+"_INTENT_FLAGS", intent.FlagActivityNewTask|intent.FlagActivityClearTask)

	uriForm, err := desc.IsURIFormExpected()
	if err != nil {
		return fmt.Errorf("could not determine if video id is in intent data: %w", err)
	}
	if !uriForm {
		in.PutExtra(extraPrefix+"DATA_EXTRA_NAME", deeplink.VideoIDDataExtraName)
	}
	return nil
}

// PlayIntent builds the intent the launcher sends to play payload: in the data URI when the
// descriptor expects URI form, in the video id extra otherwise.
func PlayIntent(app App, desc Descriptor, payload string) (intent.Intent, error) {
	if app.Package == "" || app.Class == "" {
		return intent.Intent{}, errors.New("launch activity is not known")
	}
	if strings.TrimSpace(payload) == "" {
		return intent.Intent{}, errors.New("empty launch payload")
	}

	uriForm, err := desc.IsURIFormExpected()
	if err != nil {
		return intent.Intent{}, fmt.Errorf("could not determine if video id is in intent data: %w", err)
	}

	in := intent.Intent{
		Action:  intent.ActionView,
		Package: app.Package,
		Class:   app.Class,
		Flags:   intent.FlagActivityNewTask | intent.FlagActivityClearTask,
	}
	if uriForm {
		in.Data = payload
	} else {
		in.PutExtra(deeplink.VideoIDDataExtraName, payload)
	}
	return in, nil
}
