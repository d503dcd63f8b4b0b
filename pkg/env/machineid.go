package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves an ID identifying the machine, hashed with the app
// name so the raw machine id isn't published. The host name is used when
// the machine id is not available.
func MachineID() string {
	id, err := machineid.ProtectedID("swbridge")
	if err == nil {
		return id[:16]
	}
	glog.V(2).Infof("machine id unavailable: %v", err)
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "swbridge"
}
