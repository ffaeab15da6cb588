package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitrise-io/go-steputils/stepconf"
	"github.com/bitrise-io/go-steputils/tools"
	"github.com/bitrise-io/go-utils/command"
	"github.com/bitrise-io/go-utils/log"
	"github.com/bitrise-steplib/steps-launcher-integration/adb"
	"github.com/bitrise-steplib/steps-launcher-integration/deeplink"
	"github.com/bitrise-steplib/steps-launcher-integration/intent"
	"github.com/bitrise-steplib/steps-launcher-integration/launcher"
	"github.com/bitrise-steplib/steps-launcher-integration/manifest"
	"github.com/bitrise-steplib/steps-launcher-integration/prefs"
)

// -----------------------
// --- Models
// -----------------------

type configs struct {
	Mode         string `env:"mode,opt[resolve,broadcast,is_signed_in,set_signed_in,launch,add_intent_filter,remove_intent_filter]"`
	ManifestPath string `env:"manifest_path,required"`

	BaseURL       string `env:"base_url"`
	LoadedURL     string `env:"loaded_url"`
	IntentAction  string `env:"intent_action"`
	IntentData    string `env:"intent_data"`
	IntentExtra   string `env:"intent_extra"`
	DeepLinkRegex string `env:"deep_link_regex"`
	LaunchPayload string `env:"launch_payload"`
	SignedIn      string `env:"signed_in"`

	PrefsBackend string `env:"prefs_backend,opt[sqlite,file,memory]"`
	PrefsPath    string `env:"prefs_path"`
	ADBSerial    string `env:"adb_serial"`

	VerboseLog bool `env:"verbose_log,opt[true,false]"`
}

type mode string

const (
	modeResolve            mode = "resolve"
	modeBroadcast          mode = "broadcast"
	modeIsSignedIn         mode = "is_signed_in"
	modeSetSignedIn        mode = "set_signed_in"
	modeLaunch             mode = "launch"
	modeAddIntentFilter    mode = "add_intent_filter"
	modeRemoveIntentFilter mode = "remove_intent_filter"
)

const (
	urlOutputKey       = "LAUNCHER_INTEGRATION_URL"
	contentIDOutputKey = "LAUNCHER_INTEGRATION_CONTENT_ID"
	signedInOutputKey  = "LAUNCHER_INTEGRATION_SIGNED_IN"
)

// printSender logs broadcasts instead of delivering them when no device is selected.
type printSender struct{}

func (printSender) Broadcast(in intent.Intent) error {
	args, err := in.AmArgs("broadcast")
	if err != nil {
		return err
	}
	log.Printf("=> adb shell %s", command.PrintableCommandArgs(false, args))
	log.Warnf("No adb_serial set, broadcast not sent")
	return nil
}

// -----------------------
// --- Functions
// -----------------------

func failf(format string, v ...interface{}) {
	log.Errorf(format, v...)
	os.Exit(1)
}

func parseSignedIn(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, errors.New("signed_in input is required in set_signed_in mode")
	}
	status, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid signed_in input (%s), use true or false", s)
	}
	return status, nil
}

func launchIntent(cfg configs) intent.Intent {
	in := intent.Intent{
		Action: cfg.IntentAction,
		Data:   cfg.IntentData,
	}
	if cfg.IntentExtra != "" {
		in.PutExtra(deeplink.VideoIDDataExtraName, cfg.IntentExtra)
	}
	return in
}

func resolveLaunchURL(host launcher.Host, cfg configs) string {
	return host.LaunchURL(launcher.LaunchRequest{
		Intent:    launchIntent(cfg),
		LaunchURL: cfg.BaseURL,
		LoadedURL: cfg.LoadedURL,
	})
}

func defaultPrefsPath(backend string) string {
	if backend == "file" {
		return filepath.Join(os.TempDir(), "launcher-integration-prefs.json")
	}
	return filepath.Join(os.TempDir(), "launcher-integration-prefs.db")
}

func openPrefs(backend, pth string) (prefs.Store, func(), error) {
	if pth == "" {
		pth = defaultPrefsPath(backend)
	}

	switch backend {
	case "memory":
		return prefs.NewMemoryStore(), func() {}, nil
	case "file":
		log.Printf("preferences file: %s", pth)
		return prefs.NewFileStore(pth), func() {}, nil
	case "sqlite", "":
		log.Printf("preferences database: %s", pth)
		store, err := prefs.OpenSQLite(pth)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warnf("Failed to close preferences, error: %s", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown preferences backend: %s", backend)
	}
}

func newADBClient(serial string) (adb.Client, error) {
	androidHome := os.Getenv("ANDROID_HOME")
	log.Printf("android_home: %s", androidHome)
	return adb.New(androidHome, serial)
}

func newSender(serial string) (launcher.Sender, error) {
	if serial == "" {
		return printSender{}, nil
	}
	return newADBClient(serial)
}

func export(key, value string) {
	if err := tools.ExportEnvironmentWithEnvman(key, value); err != nil {
		log.Warnf("Failed to export %s (%s), error: %s", key, value, err)
		return
	}
	log.Donef("The value is now available in the Environment Variable: %s (value: %s)", key, value)
}

func editIntentFilter(cfg configs, m *manifest.Manifest, add bool) error {
	if strings.EqualFold(filepath.Ext(cfg.ManifestPath), ".apk") {
		return errors.New("intent filters can only be edited in AndroidManifest.xml sources")
	}

	if add {
		added, err := m.AddViewIntentFilter()
		if err != nil {
			return err
		}
		if !added {
			log.Printf("Launch activity already has a VIEW intent-filter")
			return nil
		}
		log.Printf("Adding intent-filter to Android Manifest")
	} else {
		removed, err := m.RemoveViewIntentFilter()
		if err != nil {
			return err
		}
		if removed == 0 {
			log.Printf("No VIEW intent-filter to remove")
			return nil
		}
		log.Printf("Removing %d intent-filter(s) from Android Manifest", removed)
	}

	return m.WriteFile(cfg.ManifestPath)
}

func run(cfg configs) error {
	m, err := manifest.Open(cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %s", err)
	}
	log.Printf("package: %s", m.Package())

	switch mode(cfg.Mode) {
	case modeAddIntentFilter:
		return editIntentFilter(cfg, m, true)
	case modeRemoveIntentFilter:
		return editIntentFilter(cfg, m, false)
	}

	store, closePrefs, err := openPrefs(cfg.PrefsBackend, cfg.PrefsPath)
	if err != nil {
		return fmt.Errorf("failed to open preferences: %s", err)
	}
	defer closePrefs()

	sender, err := newSender(cfg.ADBSerial)
	if err != nil {
		return fmt.Errorf("failed to create adb client: %s", err)
	}

	host, err := launcher.LoadWithPattern(m, store, sender, cfg.DeepLinkRegex)
	if err != nil {
		return fmt.Errorf("failed to load launcher integration: %s", err)
	}

	switch mode(cfg.Mode) {
	case modeResolve, "":
		launchURL := resolveLaunchURL(host, cfg)
		log.Donef("launch url: %s", launchURL)
		export(urlOutputKey, launchURL)
		if id, ok := deeplink.ContentID(launchURL); ok {
			export(contentIDOutputKey, id)
		}
	case modeBroadcast:
		in, err := host.CapabilitiesIntent()
		if err != nil {
			return fmt.Errorf("failed to build capabilities: %s", err)
		}
		log.Infof("Broadcast capabilities")
		for _, e := range in.Extras {
			log.Printf("- %s: %v", e.Key, e.Value)
		}
		if err := sender.Broadcast(in); err != nil {
			return fmt.Errorf("failed to broadcast capabilities: %s", err)
		}
	case modeIsSignedIn:
		result := host.Execute(launcher.ActionIsSignedIn, nil)
		if !result.OK() {
			return errors.New(result.Err)
		}
		log.Donef("signed in: %v", result.Value)
		export(signedInOutputKey, fmt.Sprint(result.Value))
	case modeSetSignedIn:
		status, err := parseSignedIn(cfg.SignedIn)
		if err != nil {
			return err
		}
		if result := host.Execute(launcher.ActionSetSignedInStatus, []byte(fmt.Sprintf("[%t]", status))); !result.OK() {
			return errors.New(result.Err)
		}
		log.Donef("signed in status set to: %t", status)
	case modeLaunch:
		in, err := host.PlayIntent(cfg.LaunchPayload)
		if err != nil {
			return fmt.Errorf("failed to build launch intent: %s", err)
		}
		client, err := newADBClient(cfg.ADBSerial)
		if err != nil {
			return fmt.Errorf("failed to create adb client: %s", err)
		}
		log.Infof("Launch %s", in.Component())
		if err := client.StartActivity(in); err != nil {
			return fmt.Errorf("failed to start activity: %s", err)
		}
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
	return nil
}

// -----------------------
// --- Main
// -----------------------
func main() {
	var cfg configs
	if err := stepconf.Parse(&cfg); err != nil {
		failf("Process config: failed to parse input: %s", err)
	}

	stepconf.Print(cfg)
	log.SetEnableDebugLog(cfg.VerboseLog)
	fmt.Println()

	if err := run(cfg); err != nil {
		failf("Run: %s", err)
	}
}
