//go:build !unix

package portage

import "errors"

var unameFunc = func() (string, string, string, error) {
	return "", "", "", errors.New("uname is not available on this platform")
}
