//go:build windows

package snapshot

import "errors"

func mkfifo(string) error {
	return errors.New("no fifos on windows")
}
