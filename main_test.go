package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bitrise-steplib/steps-launcher-integration/deeplink"
	"github.com/bitrise-steplib/steps-launcher-integration/intent"
	"github.com/bitrise-steplib/steps-launcher-integration/launcher"
	"github.com/bitrise-steplib/steps-launcher-integration/manifest"
	"github.com/bitrise-steplib/steps-launcher-integration/prefs"
	"github.com/bitrise-steplib/steps-launcher-integration/signin"
	"github.com/stretchr/testify/require"
)

const stepManifest = `<?xml version="1.0" encoding="utf-8"?>
<manifest package="io.cordova.hellocordova" xmlns:android="http://schemas.android.com/apk/res/android">
    <application>
        <activity android:name="MainActivity">
            <intent-filter>
                <action android:name="android.intent.action.MAIN" />
                <category android:name="android.intent.category.LAUNCHER" />
            </intent-filter>
        </activity>
        <meta-data android:name="com.amazon.cordova.plugins.launcher.PARTNER_ID" android:value="partner-1" />
        <meta-data android:name="com.amazon.cordova.plugins.launcher.DISPLAY_NAME" android:value="Hello Cordova" />
        <meta-data android:name="com.amazon.cordova.plugins.launcher.DEFAULT_SIGNEDIN_STATUS" android:value="false" />
        <meta-data android:name="com.amazon.cordova.plugins.launcher.VIDEO_ID_IS_URI" android:value="false" />
        <meta-data android:name="com.amazon.cordova.plugins.launcher.DEEP_LINK_REGEX" android:value="(.*)" />
    </application>
</manifest>
`

func writeManifest(t *testing.T) string {
	t.Helper()

	pth := filepath.Join(t.TempDir(), "AndroidManifest.xml")
	require.NoError(t, os.WriteFile(pth, []byte(stepManifest), 0600))
	return pth
}

func TestParseSignedIn(t *testing.T) {
	t.Log("accepts boolean inputs")
	{
		status, err := parseSignedIn("true")
		require.NoError(t, err)
		require.True(t, status)

		status, err = parseSignedIn(" false ")
		require.NoError(t, err)
		require.False(t, status)
	}

	t.Log("rejects empty and invalid inputs")
	{
		_, err := parseSignedIn("")
		require.Error(t, err)

		_, err = parseSignedIn("yes please")
		require.Error(t, err)
	}
}

func TestLaunchIntent(t *testing.T) {
	t.Log("extra is set only when given")
	{
		in := launchIntent(configs{IntentAction: intent.ActionView, IntentExtra: "abc123"})
		require.Equal(t, intent.ActionView, in.Action)
		extra, ok := in.StringExtra(deeplink.VideoIDDataExtraName)
		require.True(t, ok)
		require.Equal(t, "abc123", extra)

		in = launchIntent(configs{IntentAction: intent.ActionView, IntentData: "https://x/abc"})
		require.Equal(t, "https://x/abc", in.Data)
		require.Equal(t, 0, len(in.Extras))
	}
}

func TestOpenPrefs(t *testing.T) {
	for _, backend := range []string{"memory", "file", "sqlite"} {
		t.Log(backend)
		{
			pth := filepath.Join(t.TempDir(), "prefs")
			store, closePrefs, err := openPrefs(backend, pth)
			require.NoError(t, err)

			require.NoError(t, store.SetBool(signin.PreferencesName, signin.StatusKey, true))
			value, ok, err := store.Bool(signin.PreferencesName, signin.StatusKey)
			require.NoError(t, err)
			require.True(t, ok)
			require.True(t, value)

			closePrefs()
		}
	}

	t.Log("unknown backend")
	{
		_, _, err := openPrefs("redis", "")
		require.Error(t, err)
	}
}

func TestRunSignedIn(t *testing.T) {
	cfg := configs{
		ManifestPath: writeManifest(t),
		PrefsBackend: "sqlite",
		PrefsPath:    filepath.Join(t.TempDir(), "prefs.db"),
	}

	t.Log("set_signed_in persists across runs")
	{
		cfg.Mode = string(modeSetSignedIn)
		cfg.SignedIn = "true"
		require.NoError(t, run(cfg))

		store, closePrefs, err := openPrefs(cfg.PrefsBackend, cfg.PrefsPath)
		require.NoError(t, err)

		value, ok, err := store.Bool(signin.PreferencesName, signin.StatusKey)
		closePrefs()
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, value)
	}

	t.Log("set_signed_in requires the signed_in input")
	{
		cfg.Mode = string(modeSetSignedIn)
		cfg.SignedIn = ""
		require.Error(t, run(cfg))
	}
}

func TestResolveLaunchURL(t *testing.T) {
	m, err := manifest.Open(writeManifest(t))
	require.NoError(t, err)

	cfg := configs{
		BaseURL:      "https://app/index.html?lang=en#home",
		IntentAction: intent.ActionView,
		IntentExtra:  "abc123",
	}

	t.Log("declared pattern")
	{
		host, err := launcher.Load(m, prefs.NewMemoryStore(), printSender{})
		require.NoError(t, err)

		launchURL := resolveLaunchURL(host, cfg)
		require.Equal(t, "https://app/index.html?lang=en&amazonLauncherIntegrationContentId=abc123#home", launchURL)

		id, ok := deeplink.ContentID(launchURL)
		require.True(t, ok)
		require.Equal(t, "abc123", id)
	}

	t.Log("deep_link_regex override")
	{
		host, err := launcher.LoadWithPattern(m, prefs.NewMemoryStore(), printSender{}, `^abc(\d+)$`)
		require.NoError(t, err)
		require.Equal(t, "https://app/index.html?lang=en&amazonLauncherIntegrationContentId=123#home", resolveLaunchURL(host, cfg))
	}

	t.Log("loaded url wins")
	{
		host, err := launcher.Load(m, prefs.NewMemoryStore(), printSender{})
		require.NoError(t, err)

		loaded := cfg
		loaded.LoadedURL = "https://app/other"
		require.Equal(t, "https://app/other", resolveLaunchURL(host, loaded))
	}

	t.Log("not a view intent")
	{
		host, err := launcher.Load(m, prefs.NewMemoryStore(), printSender{})
		require.NoError(t, err)

		launch := cfg
		launch.IntentAction = intent.ActionMain
		require.Equal(t, cfg.BaseURL, resolveLaunchURL(host, launch))
	}
}

func TestRunResolveAndBroadcast(t *testing.T) {
	cfg := configs{
		ManifestPath: writeManifest(t),
		PrefsBackend: "memory",
		BaseURL:      "https://app/",
		IntentAction: intent.ActionView,
		IntentExtra:  "abc123",
	}

	for _, m := range []mode{modeResolve, modeBroadcast, modeIsSignedIn} {
		t.Log(m)
		{
			cfg.Mode = string(m)
			require.NoError(t, run(cfg))
		}
	}

	t.Log("unknown mode")
	{
		cfg.Mode = "sign"
		require.Error(t, run(cfg))
	}

	t.Log("invalid deep link override")
	{
		cfg.Mode = string(modeResolve)
		cfg.DeepLinkRegex = "abc"
		require.Error(t, run(cfg))
	}
}

func TestRunIntentFilter(t *testing.T) {
	pth := writeManifest(t)
	cfg := configs{ManifestPath: pth}

	t.Log("add_intent_filter writes a VIEW filter once")
	{
		cfg.Mode = string(modeAddIntentFilter)
		require.NoError(t, run(cfg))
		require.NoError(t, run(cfg))

		content, err := os.ReadFile(pth)
		require.NoError(t, err)
		require.Equal(t, 1, strings.Count(string(content), intent.ActionView))

		m, err := manifest.Open(pth)
		require.NoError(t, err)
		require.Equal(t, "io.cordova.hellocordova", m.Package())
	}

	t.Log("remove_intent_filter drops it")
	{
		cfg.Mode = string(modeRemoveIntentFilter)
		require.NoError(t, run(cfg))

		content, err := os.ReadFile(pth)
		require.NoError(t, err)
		require.False(t, strings.Contains(string(content), intent.ActionView))
	}

	t.Log("apk manifests are read only")
	{
		apkPth := filepath.Join(t.TempDir(), "app.apk")
		require.NoError(t, os.WriteFile(apkPth, []byte("not an apk"), 0600))
		require.Error(t, run(configs{Mode: string(modeAddIntentFilter), ManifestPath: apkPth}))
	}
}
