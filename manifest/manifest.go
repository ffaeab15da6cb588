package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/avast/apkparser"
	"github.com/beevik/etree"
	"github.com/bitrise-io/go-utils/pathutil"
	"github.com/bitrise-steplib/steps-launcher-integration/intent"
)

const mainActivityName = "MainActivity"

// Manifest is a parsed AndroidManifest.xml.
type Manifest struct {
	doc *etree.Document
}

// Open reads the manifest of an .apk file, or an AndroidManifest.xml source file otherwise.
func Open(pth string) (*Manifest, error) {
	if exist, err := pathutil.IsPathExists(pth); err != nil {
		return nil, err
	} else if !exist {
		return nil, fmt.Errorf("manifest not exist at: %s", pth)
	}

	if strings.EqualFold(filepath.Ext(pth), ".apk") {
		return openAPK(pth)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(pth); err != nil {
		return nil, fmt.Errorf("failed to read AndroidManifest.xml: %w", err)
	}
	return newManifest(doc)
}

func openAPK(apkPath string) (*Manifest, error) {
	var manifestContent bytes.Buffer
	enc := xml.NewEncoder(&manifestContent)
	enc.Indent("", "\t")

	zipErr, resErr, manErr := apkparser.ParseApk(apkPath, enc)
	if zipErr != nil {
		return nil, fmt.Errorf("failed to unzip the APK: %w", zipErr)
	}
	if resErr != nil {
		return nil, fmt.Errorf("failed to parse resources: %w", resErr)
	}
	if manErr != nil {
		return nil, fmt.Errorf("failed to parse AndroidManifest.xml: %w", manErr)
	}

	return Parse(manifestContent.Bytes())
}

// Parse ...
func Parse(content []byte) (*Manifest, error) {
	// skip a leading byte order mark or whitespace before the root element
	if i := bytes.IndexByte(content, '<'); i > 0 {
		content = content[i:]
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("failed to parse AndroidManifest.xml: %w", err)
	}
	return newManifest(doc)
}

func newManifest(doc *etree.Document) (*Manifest, error) {
	root := doc.Root()
	if root == nil || root.Tag != "manifest" {
		return nil, errors.New("missing manifest root element")
	}
	return &Manifest{doc: doc}, nil
}

// Package returns the application id declared on the manifest element.
func (m *Manifest) Package() string {
	return m.doc.Root().SelectAttrValue("package", "")
}

// Metadata collects the application level <meta-data> name/value pairs.
func (m *Manifest) Metadata() Metadata {
	md := Metadata{}
	app := m.doc.Root().SelectElement("application")
	if app == nil {
		return md
	}

	for _, el := range app.SelectElements("meta-data") {
		name := androidAttr(el, "name")
		if name == "" {
			continue
		}
		md[name] = androidAttr(el, "value")
	}
	return md
}

func (m *Manifest) activities() []*etree.Element {
	app := m.doc.Root().SelectElement("application")
	if app == nil {
		return nil
	}
	return app.SelectElements("activity")
}

// LaunchActivity finds the activity launched from the home screen: the one named MainActivity,
// else the only declared activity, else the first with a MAIN/LAUNCHER intent-filter without data.
func (m *Manifest) LaunchActivity() (*etree.Element, error) {
	activities := m.activities()
	for _, activity := range activities {
		if androidAttr(activity, "name") == mainActivityName {
			return activity, nil
		}
	}

	if len(activities) == 1 {
		return activities[0], nil
	}

	for _, activity := range activities {
		for _, filter := range activity.SelectElements("intent-filter") {
			if isDatalessFilter(filter, intent.ActionMain, intent.CategoryLauncher) {
				return activity, nil
			}
		}
	}

	return nil, errors.New("failed to find launch activity")
}

// LaunchActivityClass returns the fully qualified class name of the launch activity.
func (m *Manifest) LaunchActivityClass() (string, error) {
	activity, err := m.LaunchActivity()
	if err != nil {
		return "", err
	}

	name := androidAttr(activity, "name")
	if name == "" {
		return "", errors.New("launch activity has no name")
	}
	return qualifyClassName(m.Package(), name), nil
}

// AddViewIntentFilter adds a VIEW/DEFAULT intent-filter to the launch activity.
// It returns false if the activity already has one.
func (m *Manifest) AddViewIntentFilter() (bool, error) {
	activity, err := m.LaunchActivity()
	if err != nil {
		return false, err
	}

	for _, filter := range activity.SelectElements("intent-filter") {
		if isDatalessFilter(filter, intent.ActionView, intent.CategoryDefault) {
			return false, nil
		}
	}

	filter := activity.CreateElement("intent-filter")
	filter.CreateElement("action").CreateAttr("android:name", intent.ActionView)
	filter.CreateElement("category").CreateAttr("android:name", intent.CategoryDefault)
	return true, nil
}

// RemoveViewIntentFilter removes every data-less VIEW/DEFAULT intent-filter of the launch activity
// and returns how many were removed.
func (m *Manifest) RemoveViewIntentFilter() (int, error) {
	activity, err := m.LaunchActivity()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, filter := range activity.SelectElements("intent-filter") {
		if isDatalessFilter(filter, intent.ActionView, intent.CategoryDefault) {
			activity.RemoveChild(filter)
			removed++
		}
	}
	return removed, nil
}

// WriteFile ...
func (m *Manifest) WriteFile(pth string) error {
	m.doc.Indent(4)
	if err := m.doc.WriteToFile(pth); err != nil {
		return fmt.Errorf("failed to write AndroidManifest.xml: %w", err)
	}
	return nil
}

// String ...
func (m *Manifest) String() (string, error) {
	m.doc.Indent(4)
	return m.doc.WriteToString()
}

func isDatalessFilter(filter *etree.Element, action, category string) bool {
	if filter.SelectElement("data") != nil {
		return false
	}
	return hasChildNamed(filter, "action", action) && hasChildNamed(filter, "category", category)
}

func hasChildNamed(el *etree.Element, tag, name string) bool {
	for _, child := range el.SelectElements(tag) {
		if androidAttr(child, "name") == name {
			return true
		}
	}
	return false
}

// androidAttr looks an attribute up by its local name, whatever prefix the android namespace was given.
func androidAttr(el *etree.Element, key string) string {
	for _, attr := range el.Attr {
		if attr.Key == key && attr.Space != "xmlns" {
			return attr.Value
		}
	}
	return ""
}

func qualifyClassName(pkg, name string) string {
	switch {
	case strings.HasPrefix(name, "."):
		return pkg + name
	case !strings.Contains(name, ".") && pkg != "":
		return pkg + "." + name
	default:
		return name
	}
}
