// Package launcher holds the entry points the Android host calls into: plugin
// initialization, the capabilities request receiver, web plugin action dispatch
// and the launch url computed when the activity is created.
package launcher

import (
	"strings"

	"github.com/bitrise-io/go-utils/log"
	"github.com/bitrise-steplib/steps-launcher-integration/capability"
	"github.com/bitrise-steplib/steps-launcher-integration/deeplink"
	"github.com/bitrise-steplib/steps-launcher-integration/intent"
	"github.com/bitrise-steplib/steps-launcher-integration/signin"
)

// Sender delivers broadcast intents, e.g. to the Fire TV launcher.
type Sender interface {
	Broadcast(in intent.Intent) error
}

// Host wires the integration to its collaborators.
type Host struct {
	app      capability.App
	desc     capability.BroadcastDescriptor
	signedIn signin.Store
	sender   Sender
	resolver deeplink.Resolver
}

// NewHost builds a host around a pattern compiled when the configuration was loaded.
// A nil pattern leaves every launch url unchanged.
func NewHost(app capability.App, desc capability.BroadcastDescriptor, signedIn signin.Store, sender Sender, pattern *deeplink.Pattern) Host {
	return Host{
		app:      app,
		desc:     desc,
		signedIn: signedIn,
		sender:   sender,
		resolver: deeplink.NewResolver(pattern),
	}
}

// CapabilitiesIntent builds the capabilities broadcast for the current signed in status.
func (h Host) CapabilitiesIntent() (intent.Intent, error) {
	signedIn, err := h.signedIn.Get()
	if err != nil {
		return intent.Intent{}, err
	}
	return capability.Broadcast(h.app, h.desc, signedIn)
}

// BroadcastCapabilities sends the capabilities intent. Nothing is sent when it cannot be built.
func (h Host) BroadcastCapabilities() error {
	in, err := h.CapabilitiesIntent()
	if err != nil {
		return err
	}
	return h.sender.Broadcast(in)
}

// Initialize is called once per application launch when the plugin loads.
func (h Host) Initialize() {
	if err := h.BroadcastCapabilities(); err != nil {
		log.Errorf("Error broadcasting capabilities: %s", err)
	}
}

// OnReceive handles a capabilities request sent by the launcher.
func (h Host) OnReceive(in intent.Intent) {
	log.Debugf("Capabilities requested by: %s", in.Action)
	if err := h.BroadcastCapabilities(); err != nil {
		log.Errorf("Error broadcasting capabilities: %s", err)
	}
}

// PlayIntent builds the intent a launcher sends to start playback of payload.
func (h Host) PlayIntent(payload string) (intent.Intent, error) {
	return capability.PlayIntent(h.app, h.desc, payload)
}

// LaunchRequest is the activity state the launch url is computed from.
type LaunchRequest struct {
	Intent intent.Intent
	// LaunchURL is the url the web view loads when no deep link applies.
	LaunchURL string
	// LoadedURL is the url already loaded in the web view, if any.
	LoadedURL string
}

// LaunchURL returns the url the web view should load for the request.
func (h Host) LaunchURL(req LaunchRequest) string {
	if !isBlank(req.LoadedURL) {
		log.Debugf("Webview is already loaded with url: %s", req.LoadedURL)
		return req.LoadedURL
	}

	launchURL := h.deepLinkURL(req)
	log.Debugf("Loading webview with url: %s", launchURL)
	return launchURL
}

func (h Host) deepLinkURL(req LaunchRequest) string {
	uriForm, err := h.desc.IsURIFormExpected()
	if err != nil {
		log.Errorf("Could not determine if video id is in intent data: %s", err)
		return req.LaunchURL
	}

	signal := deeplink.SignalFromIntent(req.Intent, uriForm)
	return h.resolver.Resolve(signal, req.LaunchURL)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
