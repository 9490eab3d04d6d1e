// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"encoding/binary"
	"fmt"
	"strings"

	"code.hybscloud.com/clq"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// QueueReport is the inspect output for one (context, device) pair.
type QueueReport struct {
	Context string     `yaml:"context"`
	Device  string     `yaml:"device"`
	Status  string     `yaml:"status"`
	Info    *QueueInfo `yaml:"info,omitempty"`
}

// QueueInfo holds the attributes read back through GetInfo.
type QueueInfo struct {
	ContextHandle  string `yaml:"context_handle"`
	DeviceHandle   string `yaml:"device_handle"`
	ReferenceCount uint32 `yaml:"reference_count"`
	Properties     string `yaml:"properties"`
}

func newInspectCmd(a *app) *cobra.Command {
	var props string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Create a queue on every device and print its attributes",
		Long: `inspect creates one command queue per device of every context in the
manifest, reads each queue's attributes with the two-phase GetInfo
protocol, prints them as YAML, and releases the queues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			properties, err := parseProperties(props)
			if err != nil {
				return err
			}
			reports := a.inspect(properties)
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(reports); err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
			return enc.Close()
		},
	}

	cmd.Flags().StringVar(&props, "properties", "", "comma-separated queue properties (out-of-order, profiling)")
	return cmd
}

func (a *app) inspect(properties clq.Properties) []QueueReport {
	var reports []QueueReport
	var created []*clq.CommandQueue
	b := a.builder()

	for _, rc := range a.contexts() {
		for i, dev := range rc.devices {
			report := QueueReport{Context: rc.name, Device: rc.names[i]}
			q, err := b.Create(rc.ctx, dev, properties)
			report.Status = clq.StatusOf(err).Name()
			if err == nil {
				created = append(created, q)
				info, err := readInfo(q)
				if err != nil {
					report.Status = clq.StatusOf(err).Name()
				} else {
					report.Info = info
				}
			}
			reports = append(reports, report)
		}
	}

	for _, q := range created {
		if err := q.Release(); err != nil {
			a.logger.Warn().Err(err).Msg("Release failed")
		}
	}
	return reports
}

func readInfo(q *clq.CommandQueue) (*QueueInfo, error) {
	ctxHandle, err := queryInfo(q, clq.InfoContext)
	if err != nil {
		return nil, err
	}
	devHandle, err := queryInfo(q, clq.InfoDevice)
	if err != nil {
		return nil, err
	}
	refs, err := queryInfo(q, clq.InfoReferenceCount)
	if err != nil {
		return nil, err
	}
	props, err := queryInfo(q, clq.InfoProperties)
	if err != nil {
		return nil, err
	}
	return &QueueInfo{
		ContextHandle:  fmt.Sprintf("%#x", ctxHandle),
		DeviceHandle:   fmt.Sprintf("%#x", devHandle),
		ReferenceCount: uint32(refs),
		Properties:     clq.Properties(props).String(),
	}, nil
}

// queryInfo reads one attribute the way a foreign caller would: size first,
// then the value into a buffer of that size.
func queryInfo(q *clq.CommandQueue, param clq.QueueInfo) (uint64, error) {
	var size int
	if err := clq.GetInfo(q, param, nil, &size); err != nil {
		return 0, err
	}
	buf := make([]byte, size)
	if err := clq.GetInfo(q, param, buf, nil); err != nil {
		return 0, err
	}
	switch size {
	case 4:
		return uint64(binary.NativeEndian.Uint32(buf)), nil
	case 8:
		return binary.NativeEndian.Uint64(buf), nil
	}
	return 0, fmt.Errorf("%s: unexpected width %d", param, size)
}

// parseProperties parses "out-of-order,profiling" into a bitset.
func parseProperties(s string) (clq.Properties, error) {
	var ps clq.Properties
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "":
		case "out-of-order", "out_of_order", "ooo":
			ps |= clq.OutOfOrderExec
		case "profiling":
			ps |= clq.Profiling
		default:
			return 0, fmt.Errorf("unknown queue property %q", name)
		}
	}
	return ps, nil
}
