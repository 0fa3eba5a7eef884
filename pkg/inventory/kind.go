package inventory

import (
	"fmt"
	"time"
)

// Kind describes one inventory table: its staging shards, its merge columns
// and how long a record may go unrefreshed before it is marked deleted.
type Kind struct {
	Name        string
	Table       string
	ShardPrefix string
	StaleAfter  time.Duration
	// InsertColumns is every column copied from the shards on insert.
	InsertColumns []string
	// UpdateColumns is the subset refreshed when the record already exists.
	UpdateColumns []string
}

var Disks = Kind{
	Name:        "disks",
	Table:       "gcpDiskInventory",
	ShardPrefix: "gcpDiskInventory",
	StaleAfter:  2 * time.Hour,
	InsertColumns: []string{
		"id", "name", "creationTime", "zone", "region", "projectId", "sizeGb", "status",
		"sourceSnapshot", "sourceSnapshotId", "sourceStorageObject", "options", "sourceImage",
		"sourceImageId", "selfLink", "type", "labels", "users", "physicalBlockSizeBytes",
		"sourceDisk", "sourceDiskId", "provisionedIops", "satisfiesPzs", "snapshots",
		"lastAttachTimestamp", "lastDetachTimestamp",
	},
	UpdateColumns: []string{
		"creationTime", "sizeGb", "status", "options", "type", "provisionedIops",
		"snapshots", "labels", "users", "lastAttachTimestamp", "lastDetachTimestamp",
	},
}

var Instances = Kind{
	Name:        "instances",
	Table:       "gcpInstanceInventory",
	ShardPrefix: "gcpInstanceInventory",
	StaleAfter:  24 * time.Hour,
	InsertColumns: []string{
		"id", "name", "creationTime", "zone", "region", "projectId", "machineType", "status",
		"cpuPlatform", "canIpForward", "deletionProtection", "selfLink", "labels", "disks",
		"networkInterfaces", "serviceAccounts", "scheduling", "lastStartTimestamp",
		"lastStopTimestamp", "lastSuspendedTimestamp",
	},
	UpdateColumns: []string{
		"machineType", "status", "cpuPlatform", "deletionProtection", "labels", "disks",
		"networkInterfaces", "serviceAccounts", "scheduling", "lastStartTimestamp",
		"lastStopTimestamp", "lastSuspendedTimestamp",
	},
}

// Kinds is the order every inventory event refreshes its tables in.
var Kinds = []Kind{Disks, Instances}

// KindByName looks up a kind by its Name.
func KindByName(name string) (Kind, error) {
	for _, k := range Kinds {
		if k.Name == name {
			return k, nil
		}
	}
	return Kind{}, fmt.Errorf("unknown inventory kind %q", name)
}
