package ziparchive

import (
	"fmt"
	"path"
	"strings"

	"github.com/bft-labs/compatre/pkg/hostversion"
	"github.com/bft-labs/compatre/pkg/remap"
)

// ServerClassName is the host's server implementation class; its package
// carries the build's version segment.
const ServerClassName = "CraftServer.class"

// ServerProbe returns a probe that reports the server implementation package
// (e.g. "org/bukkit/craftbukkit/v1_16_R2") found inside the server archive at
// archivePath.
func ServerProbe(archivePath string) hostversion.Probe {
	return func() (string, error) {
		a, err := Open(archivePath)
		if err != nil {
			return "", err
		}
		defer a.Close()
		return ImplementationPackage(a)
	}
}

// ImplementationPackage finds the versioned package holding the server
// implementation class.
func ImplementationPackage(a *Archive) (string, error) {
	for _, name := range a.Entries() {
		if path.Base(name) != ServerClassName {
			continue
		}
		dir := path.Dir(name)
		if strings.HasPrefix(dir, "org/bukkit/craftbukkit/") && remap.IsSegment(path.Base(dir)) {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no versioned %s in %s", ServerClassName, a.Path())
}
