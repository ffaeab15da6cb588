package intent

import (
	"fmt"
	"strconv"
)

// Intent actions and flags, as defined in android.content.Intent.
const (
	ActionView = "android.intent.action.VIEW"
	ActionMain = "android.intent.action.MAIN"

	CategoryDefault  = "android.intent.category.DEFAULT"
	CategoryLauncher = "android.intent.category.LAUNCHER"

	FlagActivityNewTask   = 0x10000000
	FlagActivityClearTask = 0x00008000
)

// Extra ...
type Extra struct {
	Key   string
	Value interface{}
}

// Intent is a value copy of an android.content.Intent.
// Extras keep their insertion order so rendered commands are stable.
type Intent struct {
	Action  string
	Package string
	Class   string
	Data    string
	Flags   int
	Extras  []Extra
}

// PutExtra sets or replaces the extra stored under key.
func (in *Intent) PutExtra(key string, value interface{}) {
	for i, e := range in.Extras {
		if e.Key == key {
			in.Extras[i].Value = value
			return
		}
	}
	in.Extras = append(in.Extras, Extra{Key: key, Value: value})
}

// Extra ...
func (in Intent) Extra(key string) (interface{}, bool) {
	for _, e := range in.Extras {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// StringExtra returns the extra under key if it holds a string.
func (in Intent) StringExtra(key string) (string, bool) {
	v, ok := in.Extra(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Component returns the flattened package/class name, or "" when no class is set.
func (in Intent) Component() string {
	if in.Class == "" {
		return ""
	}
	if in.Package == "" {
		return in.Class
	}
	return in.Package + "/" + in.Class
}

// AmArgs renders the intent as `am <verb>` arguments.
// Extras are typed with --es, --ei and --ez; any other value type is an error.
func (in Intent) AmArgs(verb string) ([]string, error) {
	args := []string{"am", verb}
	if in.Action != "" {
		args = append(args, "-a", in.Action)
	}
	if in.Data != "" {
		args = append(args, "-d", in.Data)
	}
	if in.Flags != 0 {
		args = append(args, "-f", fmt.Sprintf("0x%08x", in.Flags))
	}

	for _, e := range in.Extras {
		switch v := e.Value.(type) {
		case string:
			args = append(args, "--es", e.Key, v)
		case int:
			args = append(args, "--ei", e.Key, strconv.Itoa(v))
		case bool:
			args = append(args, "--ez", e.Key, strconv.FormatBool(v))
		default:
			return nil, fmt.Errorf("unsupported extra type %T for key: %s", e.Value, e.Key)
		}
	}

	if component := in.Component(); component != "" {
		args = append(args, "-n", component)
	} else if in.Package != "" {
		args = append(args, "-p", in.Package)
	}
	return args, nil
}
