package portage

import (
	"testing"

	"github.com/gg7/gentoostats/internal/testutil"
)

const (
	repoDir    = "var/db/repos/gentoo"
	amd64Dir   = repoDir + "/profiles/default/linux/amd64"
	baseDir    = repoDir + "/profiles/base"
	syncStamp  = "Sun, 07 Jan 2024 00:45:01 +0000"
	testUname  = "6.6.13-gentoo"
	testGentoo = "Gentoo Base System release 2.14"
)

// newFixtureRoot lays out a small Gentoo system: a two-level profile, a
// make.conf, world files and two installed packages.
func newFixtureRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	testutil.WriteFile(t, dir, baseDir+"/make.defaults", `
ARCH="amd64"
ACCEPT_KEYWORDS="amd64"
USE="a b"
FEATURES="sandbox"
`)
	testutil.WriteFile(t, dir, baseDir+"/packages", "*sys-apps/portage\n*sys-apps/baselayout\nsys-apps/foo\n")
	testutil.WriteFile(t, dir, amd64Dir+"/parent", "../../../base\n")
	testutil.WriteFile(t, dir, amd64Dir+"/make.defaults", `
USE="-b c"
CHOST="x86_64-pc-linux-gnu"
`)
	testutil.WriteFile(t, dir, amd64Dir+"/packages", "-*sys-apps/baselayout\n*sys-apps/openrc\n")
	testutil.WriteFile(t, dir, repoDir+"/metadata/timestamp.chk", syncStamp+"\n")

	testutil.Symlink(t, dir, MakeProfilePath, "../../"+amd64Dir)
	testutil.WriteFile(t, dir, MakeConfPath, `# build settings
CFLAGS="-O2 -pipe"
CXXFLAGS="${CFLAGS}"
USE="${USE} d -a"
FEATURES="-sandbox parallel-fetch"
MAKEOPTS="-j4"
`)
	testutil.WriteFile(t, dir, GentooRelease, testGentoo+"\n")

	testutil.WriteFile(t, dir, WorldFile, "dev-lang/python\n# pinned\napp-misc/screen\n")
	testutil.WriteFile(t, dir, WorldSetsFile, "@myset\n")
	testutil.WriteFile(t, dir, UserSetsDir+"/myset", "app-editors/vim\n")

	pkg := VDBPath + "/dev-lang/python-3.11.4/"
	testutil.WriteFile(t, dir, pkg+"repository", "gentoo\n")
	testutil.WriteFile(t, dir, pkg+"BUILD_TIME", "1690000000\n")
	testutil.WriteFile(t, dir, pkg+"SIZE", "12345\n")
	testutil.WriteFile(t, dir, pkg+"KEYWORDS", "amd64 ~arm64\n")
	testutil.WriteFile(t, dir, pkg+"IUSE", "+ssl -sqlite tk\n")
	testutil.WriteFile(t, dir, pkg+"USE", "abi_x86_64 amd64 ssl tk elibc_glibc\n")
	testutil.WriteFile(t, dir, pkg+"PKGUSE", "-sqlite\n")

	gtk := VDBPath + "/x11-libs/gtk+-3.24.41/"
	testutil.WriteFile(t, dir, gtk+"KEYWORDS", "~amd64 ~x86\n")
	testutil.WriteFile(t, dir, gtk+"SIZE", "not-a-number\n")
	testutil.WriteFile(t, dir, gtk+"USE", "amd64\n")

	testutil.WriteFile(t, dir, VDBPath+"/app-misc/-MERGING-screen-4.9.1/SIZE", "1\n")
	testutil.WriteFile(t, dir, VDBPath+"/app-misc/.keep", "")
	testutil.WriteFile(t, dir, VDBPath+"/.hidden/pkg-1/SIZE", "1\n")

	return dir
}

// stubUname replaces the uname source for the duration of the test.
func stubUname(t *testing.T, err error) {
	t.Helper()
	orig := unameFunc
	unameFunc = func() (string, string, string, error) {
		if err != nil {
			return "", "", "", err
		}
		return "Linux", testUname, "x86_64", nil
	}
	t.Cleanup(func() { unameFunc = orig })
}
