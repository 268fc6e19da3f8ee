package sampler

import (
	"bytes"
	"context"
)

const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// Device reports cuda when the device probe lists at least one GPU, cpu otherwise.
func (s *ImageToVideo) Device(ctx context.Context) string {
	if len(s.cfg.DeviceProbe) == 0 {
		return DeviceCPU
	}
	out, err := s.runner.Run(ctx, s.cfg.DeviceProbe[0], s.cfg.DeviceProbe[1:]...)
	if err != nil || len(bytes.TrimSpace(out)) == 0 {
		return DeviceCPU
	}
	return DeviceCUDA
}
