// ABOUTME: vSphere discovery via govmomi property collection
// ABOUTME: Converts VirtualMachine managed objects into VmProfile records for a snapshot

package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/markalston/migration-planner/models"
)

// Properties fetched in bulk for every VM. Anything not listed comes back nil.
var vmProperties = []string{
	"name",
	"config.guestFullName",
	"config.guestId",
	"config.hardware",
	"runtime.powerState",
	"runtime.host",
	"guest.guestFamily",
	"guest.guestFullName",
	"guest.toolsRunningStatus",
	"guest.net",
	"parent",
}

// topology maps host, cluster and folder references to names
type topology struct {
	hostName    map[types.ManagedObjectReference]string
	hostCluster map[types.ManagedObjectReference]string
	folderName  map[types.ManagedObjectReference]string
}

// Discover walks the inventory reachable from the root folder and returns a
// snapshot of every VM. The client must already be authenticated.
func Discover(ctx context.Context, c *vim25.Client) (*models.Snapshot, error) {
	m := view.NewManager(c)
	root := c.ServiceContent.RootFolder

	topo, err := loadTopology(ctx, m, root)
	if err != nil {
		return nil, err
	}

	v, err := m.CreateContainerView(ctx, root, []string{"VirtualMachine"}, true)
	if err != nil {
		return nil, fmt.Errorf("creating VM view: %w", err)
	}
	defer func() {
		if err := v.Destroy(ctx); err != nil {
			slog.Debug("Destroying VM view failed", "error", err)
		}
	}()

	var vms []mo.VirtualMachine
	if err := v.Retrieve(ctx, []string{"VirtualMachine"}, vmProperties, &vms); err != nil {
		return nil, fmt.Errorf("retrieving VMs: %w", err)
	}

	snap := &models.Snapshot{
		TakenAt:   time.Now().UTC(),
		VMs:       make([]models.VmProfile, 0, len(vms)),
		Workloads: []models.WorkloadRecord{},
	}
	for _, vm := range vms {
		profile := FromVirtualMachine(vm)
		if vm.Runtime.Host != nil {
			profile.Host = topo.hostName[*vm.Runtime.Host]
			profile.Cluster = topo.hostCluster[*vm.Runtime.Host]
		}
		if vm.Parent != nil {
			profile.Folder = topo.folderName[*vm.Parent]
		}
		snap.VMs = append(snap.VMs, profile)
	}
	sort.Slice(snap.VMs, func(i, j int) bool { return snap.VMs[i].Name < snap.VMs[j].Name })

	slog.Info("vSphere discovery complete", "vm_count", len(snap.VMs))
	return snap, nil
}

func loadTopology(ctx context.Context, m *view.Manager, root types.ManagedObjectReference) (topology, error) {
	topo := topology{
		hostName:    map[types.ManagedObjectReference]string{},
		hostCluster: map[types.ManagedObjectReference]string{},
		folderName:  map[types.ManagedObjectReference]string{},
	}

	v, err := m.CreateContainerView(ctx, root, []string{"HostSystem", "ClusterComputeResource", "Folder"}, true)
	if err != nil {
		return topo, fmt.Errorf("creating topology view: %w", err)
	}
	defer func() {
		if err := v.Destroy(ctx); err != nil {
			slog.Debug("Destroying topology view failed", "error", err)
		}
	}()

	var clusters []mo.ClusterComputeResource
	if err := v.Retrieve(ctx, []string{"ClusterComputeResource"}, []string{"name"}, &clusters); err != nil {
		return topo, fmt.Errorf("retrieving clusters: %w", err)
	}
	clusterName := make(map[types.ManagedObjectReference]string, len(clusters))
	for _, c := range clusters {
		clusterName[c.Self] = c.Name
	}

	var hosts []mo.HostSystem
	if err := v.Retrieve(ctx, []string{"HostSystem"}, []string{"name", "parent"}, &hosts); err != nil {
		return topo, fmt.Errorf("retrieving hosts: %w", err)
	}
	for _, h := range hosts {
		topo.hostName[h.Self] = h.Name
		// Standalone hosts sit under a plain ComputeResource and have no cluster
		if h.Parent != nil && h.Parent.Type == "ClusterComputeResource" {
			topo.hostCluster[h.Self] = clusterName[*h.Parent]
		}
	}

	var folders []mo.Folder
	if err := v.Retrieve(ctx, []string{"Folder"}, []string{"name"}, &folders); err != nil {
		return topo, fmt.Errorf("retrieving folders: %w", err)
	}
	for _, f := range folders {
		topo.folderName[f.Self] = f.Name
	}

	return topo, nil
}

// FromVirtualMachine converts the properties of one VM. Host, cluster and
// folder names need other managed objects and are filled in by Discover.
func FromVirtualMachine(vm mo.VirtualMachine) models.VmProfile {
	profile := models.VmProfile{
		Name:       vm.Name,
		PowerState: powerState(vm.Runtime.PowerState),
	}

	if vm.Guest != nil {
		profile.OSFamily = strings.TrimSuffix(vm.Guest.GuestFamily, "Guest")
		profile.OSVersion = vm.Guest.GuestFullName
		profile.ToolsStatus = vm.Guest.ToolsRunningStatus
		for _, nic := range vm.Guest.Net {
			profile.NICs = append(profile.NICs, models.NetworkAdapter{
				Network:     nic.Network,
				MAC:         nic.MacAddress,
				IPAddresses: append([]string(nil), nic.IpAddress...),
			})
		}
	}

	if vm.Config != nil {
		// Guest info is only reported while tools run; fall back to the configured OS
		if profile.OSVersion == "" {
			profile.OSVersion = vm.Config.GuestFullName
		}
		if profile.OSFamily == "" {
			profile.OSFamily = familyFromGuestID(vm.Config.GuestId)
		}
		profile.VCPU = int(vm.Config.Hardware.NumCPU)
		profile.MemoryMB = int(vm.Config.Hardware.MemoryMB)
		for _, device := range vm.Config.Hardware.Device {
			disk, ok := device.(*types.VirtualDisk)
			if !ok {
				continue
			}
			label := ""
			if info := disk.GetVirtualDevice().DeviceInfo; info != nil {
				label = info.GetDescription().Label
			}
			profile.Disks = append(profile.Disks, models.Disk{
				Label:  label,
				SizeGB: diskGB(disk),
			})
		}
	}

	return profile
}

func diskGB(disk *types.VirtualDisk) float64 {
	if disk.CapacityInBytes > 0 {
		return float64(disk.CapacityInBytes) / (1 << 30)
	}
	return float64(disk.CapacityInKB) / (1 << 20)
}

func powerState(s types.VirtualMachinePowerState) models.PowerState {
	switch s {
	case types.VirtualMachinePowerStatePoweredOn:
		return models.PowerOn
	case types.VirtualMachinePowerStatePoweredOff:
		return models.PowerOff
	case types.VirtualMachinePowerStateSuspended:
		return models.PowerSuspended
	default:
		return models.PowerUnknown
	}
}

// familyFromGuestID guesses the OS family from a guest id such as
// "windows2019srv_64Guest" or "ubuntu64Guest".
func familyFromGuestID(id string) string {
	id = strings.ToLower(id)
	switch {
	case id == "":
		return ""
	case strings.HasPrefix(id, "win"):
		return "windows"
	case strings.HasPrefix(id, "solaris"):
		return "solaris"
	case strings.HasPrefix(id, "freebsd"):
		return "freebsd"
	case strings.HasPrefix(id, "other") && !strings.Contains(id, "linux"):
		return "other"
	default:
		return "linux"
	}
}
