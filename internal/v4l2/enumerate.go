package v4l2

import (
	"path/filepath"
	"sort"
)

// Enumerate returns the capture-capable video nodes under dir, usually
// "/dev". Nodes that cannot be opened or queried are skipped.
func Enumerate(dir string) []Info {
	paths, _ := filepath.Glob(filepath.Join(dir, "video*"))
	sort.Strings(paths)

	var infos []Info
	for _, path := range paths {
		info, err := Query(path)
		if err != nil {
			log.Debug("Skipping %s: %v", path, err)
			continue
		}
		if !info.CanCapture() {
			log.Debug("Skipping %s: not a capture device", info)
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// Query opens path just long enough to identify it.
func Query(path string) (Info, error) {
	dev, err := Open(path)
	if err != nil {
		return Info{}, err
	}
	defer dev.closeFile()
	return dev.QueryCapabilities()
}
