package audio

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/smallnest/ringbuffer"
	"github.com/tdemirli/roomcount-go/internal/conf"
	"github.com/tdemirli/roomcount-go/internal/errors"
	"github.com/tdemirli/roomcount-go/internal/logging"
)

// captureSource holds information about an audio capture device.
type captureSource struct {
	Name    string
	ID      string
	Pointer unsafe.Pointer
}

// DeviceInfo holds information about an audio device for listing.
type DeviceInfo struct {
	Index int
	Name  string
	ID    string
}

// DeviceSource captures live audio through malgo. The device data callback
// writes raw PCM into a ring buffer and never blocks the audio thread;
// ReadBlock drains fixed-size blocks from the ring and stamps them against
// the device start time, so timestamps stay monotonic even when the poll
// loop falls behind.
type DeviceSource struct {
	deviceName string

	mu        sync.Mutex
	malgoCtx  *malgo.AllocatedContext
	device    *malgo.Device
	ring      *ringbuffer.RingBuffer
	started   time.Time
	readBytes int64
	lostBytes atomic.Int64
	log       *slog.Logger
}

// NewDeviceSource creates a live source for the named capture device.
func NewDeviceSource(deviceName string) *DeviceSource {
	return &DeviceSource{
		deviceName: deviceName,
		log:        logging.ForService("audio"),
	}
}

// SampleRate returns the pipeline capture rate.
func (d *DeviceSource) SampleRate() int { return conf.SampleRate }

// Start initializes the malgo context and capture device and begins
// streaming into the internal ring buffer.
func (d *DeviceSource) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// 10 seconds of headroom between the audio callback and the poll loop.
	ringSize := 10 * conf.SampleRate * conf.BytesPerSample
	d.ring = ringbuffer.New(ringSize)

	backend := platformBackend()
	malgoCtx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.New(fmt.Errorf("context init failed: %w", err)).
			Component("audio").
			Category(errors.CategoryAcquisition).
			Build()
	}
	d.malgoCtx = malgoCtx

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return errors.New(fmt.Errorf("device enumeration failed: %w", err)).
			Component("audio").
			Category(errors.CategoryAcquisition).
			Build()
	}

	selected, err := selectCaptureSource(infos, d.deviceName)
	if err != nil {
		return err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = conf.NumChannels
	deviceConfig.SampleRate = conf.SampleRate
	deviceConfig.Alsa.NoMMap = 1
	deviceConfig.Capture.DeviceID = selected.Pointer

	// Never block or lock inside the audio callback: a full ring loses
	// the newest bytes and counts them, the hardware poll keeps running.
	ring := d.ring
	onReceiveFrames := func(_, pSamples []byte, _ uint32) {
		n, werr := ring.Write(pSamples)
		if werr != nil || n < len(pSamples) {
			d.lostBytes.Add(int64(len(pSamples) - n))
		}
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onReceiveFrames,
	})
	if err != nil {
		return errors.New(fmt.Errorf("device init failed: %w", err)).
			Component("audio").
			Category(errors.CategoryAcquisition).
			Context("device", d.deviceName).
			Build()
	}
	d.device = device

	if err := device.Start(); err != nil {
		return errors.New(fmt.Errorf("device start failed: %w", err)).
			Component("audio").
			Category(errors.CategoryAcquisition).
			Build()
	}

	d.started = time.Now()
	if d.log != nil {
		d.log.Info("listening on capture source", "name", selected.Name, "id", selected.ID)
	}
	return nil
}

// ReadBlock drains up to one block of PCM from the ring buffer. Returns
// ErrNoData when less than a full block has accumulated.
func (d *DeviceSource) ReadBlock(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	blockBytes := DurationToSamples(blockDuration) * conf.BytesPerSample

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ring == nil {
		return Frame{}, errors.New(errors.ErrAcquisition).
			Component("audio").
			Category(errors.CategoryAcquisition).
			Context("reason", "source not started").
			Build()
	}

	if d.ring.Length() < blockBytes {
		return Frame{}, ErrNoData
	}

	buf := make([]byte, blockBytes)
	n, err := d.ring.Read(buf)
	if err != nil {
		return Frame{}, errors.New(fmt.Errorf("ring read failed: %w", err)).
			Component("audio").
			Category(errors.CategoryAcquisition).
			Build()
	}

	// Timestamp derives from the sample count consumed so far, not wall
	// clock at read time, so stamps track the stream position.
	offset := SamplesToDuration(int(d.readBytes) / conf.BytesPerSample)
	frame := Frame{
		Timestamp:  d.started.Add(offset),
		SampleRate: conf.SampleRate,
		Samples:    bytesToSamples(buf[:n]),
	}
	d.readBytes += int64(n)
	return frame, nil
}

// LostBytes reports PCM bytes the audio callback could not buffer.
func (d *DeviceSource) LostBytes() int64 {
	return d.lostBytes.Load()
}

// Close stops the device and releases the malgo context.
func (d *DeviceSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device != nil {
		d.device.Uninit()
		d.device = nil
	}
	if d.malgoCtx != nil {
		_ = d.malgoCtx.Uninit()
		d.malgoCtx.Free()
		d.malgoCtx = nil
	}
	return nil
}

// ListCaptureDevices returns the available audio capture devices.
func ListCaptureDevices() ([]DeviceInfo, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize context: %w", err)
	}
	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	var devices []DeviceInfo
	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index: i,
			Name:  info.Name(),
			ID:    decodedID,
		})
	}
	return devices, nil
}

// selectCaptureSource picks the capture device matching the configured name.
func selectCaptureSource(infos []malgo.DeviceInfo, deviceName string) (captureSource, error) {
	for _, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		if matchesDeviceSettings(decodedID, info, deviceName) {
			return captureSource{
				Name:    info.Name(),
				ID:      decodedID,
				Pointer: info.ID.Pointer(),
			}, nil
		}
	}

	return captureSource{}, errors.Newf("no suitable capture source found for device setting %s", deviceName).
		Component("audio").
		Category(errors.CategoryAcquisition).
		Build()
}

// matchesDeviceSettings checks if the device matches the configured name.
func matchesDeviceSettings(decodedID string, info malgo.DeviceInfo, audioSource string) bool {
	if runtime.GOOS == "windows" && audioSource == "sysdefault" {
		// On Windows there is no "sysdefault" device, use the default device instead.
		return info.IsDefault == 1
	}
	return decodedID == audioSource || strings.Contains(info.Name(), audioSource)
}

// platformBackend returns the preferred malgo backend per OS.
func platformBackend() malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa
	case "windows":
		return malgo.BackendWasapi
	case "darwin":
		return malgo.BackendCoreaudio
	default:
		return malgo.BackendNull
	}
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// bytesToSamples converts little-endian PCM bytes to int16 samples.
func bytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}
