package adb

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-utils/command"
	"github.com/bitrise-io/go-utils/errorutil"
	"github.com/bitrise-io/go-utils/log"
	"github.com/bitrise-io/go-utils/pathutil"
	"github.com/bitrise-steplib/steps-launcher-integration/intent"
	"github.com/bitrise-tools/go-android/sdk"
	shellquote "github.com/kballard/go-shellquote"
)

// Client sends intents to one device through `adb shell am`.
type Client struct {
	adbPth string
	serial string
}

// New locates adb in the platform-tools of the given Android SDK.
func New(androidHome, serial string) (Client, error) {
	androidSDK, err := sdk.New(androidHome)
	if err != nil {
		return Client{}, fmt.Errorf("failed to create SDK model, error: %s", err)
	}

	adbPth := filepath.Join(androidSDK.GetAndroidHome(), "platform-tools", "adb")
	if exist, err := pathutil.IsPathExists(adbPth); err != nil {
		return Client{}, err
	} else if !exist {
		return Client{}, fmt.Errorf("adb not exist at: %s", adbPth)
	}

	return Client{adbPth: adbPth, serial: serial}, nil
}

// Broadcast runs `am broadcast` for the intent.
func (c Client) Broadcast(in intent.Intent) error {
	return c.am("broadcast", in, "Broadcast completed")
}

// StartActivity runs `am start` for the intent.
func (c Client) StartActivity(in intent.Intent) error {
	return c.am("start", in, "Starting:")
}

func (c Client) am(verb string, in intent.Intent, successMarker string) error {
	cmdSlice, err := c.shellCmdSlice(in, verb)
	if err != nil {
		return err
	}

	log.Printf("=> %s", command.PrintableCommandArgs(false, cmdSlice))

	out, err := executeForOutput(cmdSlice)
	if err != nil {
		return properError(err, out)
	}
	log.Debugf("%s", out)
	if !strings.Contains(out, successMarker) {
		return errors.New(strings.TrimSpace(out))
	}
	return nil
}

// shellCmdSlice wraps the am arguments into a single remote shell command,
// as adb shell joins its arguments without quoting them.
func (c Client) shellCmdSlice(in intent.Intent, verb string) ([]string, error) {
	amArgs, err := in.AmArgs(verb)
	if err != nil {
		return nil, err
	}

	cmdSlice := []string{c.adbPth}
	if c.serial != "" {
		cmdSlice = append(cmdSlice, "-s", c.serial)
	}
	return append(cmdSlice, "shell", shellquote.Join(amArgs...)), nil
}

func executeForOutput(cmdSlice []string) (string, error) {
	cmd, err := command.NewFromSlice(cmdSlice)
	if err != nil {
		return "", fmt.Errorf("failed to create adb command: %s", err)
	}

	var outputBuf bytes.Buffer
	cmd.SetStdout(&outputBuf)
	cmd.SetStderr(&outputBuf)

	err = cmd.Run()
	if err != nil {
		err = fmt.Errorf("%s\n%s", outputBuf.String(), err)
	}

	return outputBuf.String(), err
}

func properError(err error, out string) error {
	if errorutil.IsExitStatusError(err) {
		return errors.New(out)
	}
	return err
}
