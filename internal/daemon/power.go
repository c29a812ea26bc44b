package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const powerSupplyDir = "/sys/class/power_supply"

var errNoMains = errors.New("no mains power supply found")

// OnBattery reports whether every mains adapter under the sysfs power
// supply class is offline. Desktops without a mains entry return
// errNoMains.
func OnBattery() (bool, error) {
	return onBatteryAt(powerSupplyDir)
}

func onBatteryAt(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	found := false
	for _, e := range entries {
		kind, err := readAttr(filepath.Join(dir, e.Name(), "type"))
		if err != nil || kind != "Mains" {
			continue
		}
		found = true
		online, err := readAttr(filepath.Join(dir, e.Name(), "online"))
		if err != nil {
			continue
		}
		if online == "1" {
			return false, nil
		}
	}
	if !found {
		return false, errNoMains
	}
	return true, nil
}

func readAttr(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
