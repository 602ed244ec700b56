/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package hwmeta extracts the hardware and software metadata attached to
// every result document. Collection is best effort: a metadata source that
// fails leaves its section empty instead of failing the run.
package hwmeta

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/logger"
)

type (
	Metadata struct {
		Hostname string   `json:"hostname"`
		IP       string   `json:"ip"`
		SW       Software `json:"SW"`
		HW       Hardware `json:"HW"`
	}

	Software struct {
		OS            string `json:"os"`
		Platform      string `json:"platform"`
		KernelVersion string `json:"kernel_version"`
	}

	Hardware struct {
		CPU CPU    `json:"cpu"`
		Mem Memory `json:"mem"`
	}

	CPU struct {
		Model         string  `json:"model"`
		Vendor        string  `json:"vendor"`
		PhysicalCores int     `json:"physical_cores"`
		LogicalCores  int     `json:"logical_cores"`
		MHz           float64 `json:"mhz"`
	}

	Memory struct {
		TotalMiB uint64 `json:"total_mib"`
	}
)

// Collect gathers all metadata sections in parallel. Failures are logged
// and reflected as zero values; Collect itself never fails.
func Collect(ctx context.Context) *Metadata {
	md := &Metadata{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		md.collectHost(ctx)
		return nil
	})
	g.Go(func() error {
		md.collectCPU(ctx)
		return nil
	})
	g.Go(func() error {
		md.collectMemory(ctx)
		return nil
	})
	_ = g.Wait()

	return md
}

func (md *Metadata) collectHost(ctx context.Context) {
	if hostname, err := os.Hostname(); err == nil {
		md.Hostname = hostname
	}
	md.IP = hostIPs()

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		logger.Warnf("[hwmeta] host info unavailable: %v", err)
		return
	}
	md.SW = Software{
		OS:            info.OS,
		Platform:      fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion),
		KernelVersion: info.KernelVersion,
	}
}

func (md *Metadata) collectCPU(ctx context.Context) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 {
		logger.Warnf("[hwmeta] cpu info unavailable: %v", err)
		return
	}
	first := infos[0]

	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		logger.Warnf("[hwmeta] physical core count unavailable: %v", err)
	}
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		logger.Warnf("[hwmeta] logical core count unavailable: %v", err)
	}

	md.HW.CPU = CPU{
		Model:         first.ModelName,
		Vendor:        first.VendorID,
		PhysicalCores: physical,
		LogicalCores:  logical,
		MHz:           first.Mhz,
	}
}

func (md *Metadata) collectMemory(ctx context.Context) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		logger.Warnf("[hwmeta] memory info unavailable: %v", err)
		return
	}
	md.HW.Mem = Memory{TotalMiB: vm.Total / 1024 / 1024}
}

// hostIPs lists the non-loopback addresses of the host, comma separated.
func hostIPs() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	var ips []string
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		ips = append(ips, ipNet.IP.String())
	}
	return strings.Join(ips, ",")
}
