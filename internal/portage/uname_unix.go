//go:build unix

package portage

import "golang.org/x/sys/unix"

// unameFunc is replaced in tests.
var unameFunc = hostUname

func hostUname() (sysname, release, machine string, err error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", "", "", err
	}
	return unix.ByteSliceToString(u.Sysname[:]),
		unix.ByteSliceToString(u.Release[:]),
		unix.ByteSliceToString(u.Machine[:]),
		nil
}
