// ABOUTME: Shared fixtures for command tests
// ABOUTME: Builds an engine over the embedded catalog and a small inventory

package cmd

import (
	"os"
	"testing"

	"github.com/markalston/migration-planner/catalog"
	"github.com/markalston/migration-planner/models"
	"github.com/markalston/migration-planner/services"
)

func TestMain(m *testing.M) {
	disableColor()
	os.Exit(m.Run())
}

func testInventory() models.Snapshot {
	return models.Snapshot{
		VMs: []models.VmProfile{
			{
				Name: "web01", PowerState: models.PowerOn, OSFamily: "linux", OSVersion: "Ubuntu 22.04",
				VCPU: 2, MemoryMB: 8192,
				Disks: []models.Disk{{Label: "Hard disk 1", SizeGB: 100}},
				NICs:  []models.NetworkAdapter{{Network: "prod", IPAddresses: []string{"10.0.0.10"}}},
			},
			{
				Name: "db01", PowerState: models.PowerOn, OSFamily: "windows", OSVersion: "Windows Server 2019",
				VCPU: 4, MemoryMB: 16384,
				Disks: []models.Disk{{Label: "Hard disk 1", SizeGB: 200}},
				NICs:  []models.NetworkAdapter{{Network: "prod", IPAddresses: []string{"10.0.0.20"}}},
			},
		},
		Workloads: []models.WorkloadRecord{
			{
				VMName: "web01", Category: models.CategoryWeb, Engine: "tomcat", Port: 8080, Version: "9.0.80",
				Endpoints: []models.Endpoint{{Address: "10.0.0.20", Port: 1433}},
			},
			{VMName: "db01", Category: models.CategoryDatabase, Engine: "mssql", Port: 1433, Version: "15.0.2000"},
		},
	}
}

func testEngine(t *testing.T) *services.Engine {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("Failed to load default catalog: %v", err)
	}
	e := services.NewEngine(cat, services.EngineOptions{})
	t.Cleanup(e.Close)
	e.LoadSnapshot(testInventory())
	return e
}
