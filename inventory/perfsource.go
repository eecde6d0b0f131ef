// ABOUTME: Real-time performance sampling from vCenter's PerformanceManager
// ABOUTME: Implements perf.Source for powered-on VMs using the 20-second interval

package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vmware/govmomi/performance"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/markalston/migration-planner/models"
)

const (
	counterCPU       = "cpu.usage.average"
	counterMem       = "mem.usage.average"
	counterDiskRead  = "disk.numberRead.summation"
	counterDiskWrite = "disk.numberWrite.summation"
	counterNetRx     = "net.received.average"
	counterNetTx     = "net.transmitted.average"

	realtimeInterval = 20
)

var perfCounters = []string{
	counterCPU, counterMem,
	counterDiskRead, counterDiskWrite,
	counterNetRx, counterNetTx,
}

// PerfSource samples the latest real-time counters for every powered-on VM.
type PerfSource struct {
	client *vim25.Client
}

func NewPerfSource(c *vim25.Client) *PerfSource {
	return &PerfSource{client: c}
}

func (p *PerfSource) Sample(ctx context.Context) ([]models.PerfSample, error) {
	refs, names, err := p.poweredOn(ctx)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}

	pm := performance.NewManager(p.client)
	counters, err := p.availableCounters(ctx, pm)
	if err != nil {
		return nil, err
	}
	if len(counters) == 0 {
		return nil, nil
	}

	spec := types.PerfQuerySpec{
		MaxSample:  1,
		IntervalId: realtimeInterval,
	}
	raw, err := pm.SampleByName(ctx, spec, counters, refs)
	if err != nil {
		return nil, fmt.Errorf("querying performance counters: %w", err)
	}
	series, err := pm.ToMetricSeries(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding performance counters: %w", err)
	}

	samples := make([]models.PerfSample, 0, len(series))
	for _, entity := range series {
		name, ok := names[entity.Entity]
		if !ok {
			continue
		}
		samples = append(samples, toSample(name, entity))
	}
	return samples, nil
}

// availableCounters drops counters this vCenter does not publish
func (p *PerfSource) availableCounters(ctx context.Context, pm *performance.Manager) ([]string, error) {
	info, err := pm.CounterInfoByName(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing performance counters: %w", err)
	}
	var out []string
	for _, name := range perfCounters {
		if _, ok := info[name]; ok {
			out = append(out, name)
		} else {
			slog.Debug("Performance counter not available", "counter", name)
		}
	}
	return out, nil
}

func (p *PerfSource) poweredOn(ctx context.Context) ([]types.ManagedObjectReference, map[types.ManagedObjectReference]string, error) {
	m := view.NewManager(p.client)
	v, err := m.CreateContainerView(ctx, p.client.ServiceContent.RootFolder, []string{"VirtualMachine"}, true)
	if err != nil {
		return nil, nil, fmt.Errorf("creating VM view: %w", err)
	}
	defer func() {
		if err := v.Destroy(ctx); err != nil {
			slog.Debug("Destroying VM view failed", "error", err)
		}
	}()

	var vms []mo.VirtualMachine
	if err := v.Retrieve(ctx, []string{"VirtualMachine"}, []string{"name", "runtime.powerState"}, &vms); err != nil {
		return nil, nil, fmt.Errorf("retrieving VMs: %w", err)
	}

	var refs []types.ManagedObjectReference
	names := make(map[types.ManagedObjectReference]string)
	for _, vm := range vms {
		if vm.Runtime.PowerState != types.VirtualMachinePowerStatePoweredOn {
			continue
		}
		refs = append(refs, vm.Self)
		names[vm.Self] = vm.Name
	}
	return refs, names, nil
}

// toSample reads the aggregate instance of each counter. Percentages arrive in
// hundredths and summation counters cover the whole 20-second interval.
func toSample(name string, entity performance.EntityMetric) models.PerfSample {
	sample := models.PerfSample{Key: name}
	if n := len(entity.SampleInfo); n > 0 {
		sample.Timestamp = entity.SampleInfo[n-1].Timestamp.UTC()
	}

	for _, s := range entity.Value {
		if s.Instance != "" || len(s.Value) == 0 {
			continue
		}
		v := float64(s.Value[len(s.Value)-1])
		switch s.Name {
		case counterCPU:
			sample.CPUPercent = v / 100
		case counterMem:
			sample.MemoryPercent = v / 100
		case counterDiskRead, counterDiskWrite:
			sample.IOPS += v / realtimeInterval
		case counterNetRx, counterNetTx:
			sample.NetworkKBps += v
		}
	}
	return sample
}
