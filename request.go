package sndpcm

import (
	"fmt"
	"unsafe"
)

// request is one control transfer. Each opcode has its own request type so the payload
// handed to the driver always matches the opcode.
type request interface {
	code() uintptr
	arg() unsafe.Pointer
	name() string
}

// submit issues req on fd and returns the non-negative result of the call.
func submit(sys system, fd int, req request) (int, error) {
	n, err := sys.Ioctl(fd, req.code(), req.arg())
	if err != nil {
		return -1, fmt.Errorf("ioctl %s failed: %w", req.name(), err)
	}

	return n, nil
}

type versionRequest struct{ version int32 }

func (r *versionRequest) code() uintptr       { return SND_PCM_IOCTL_PVERSION }
func (r *versionRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.version) }
func (r *versionRequest) name() string        { return "PVERSION" }

type infoRequest struct{ info sndPcmInfo }

func (r *infoRequest) code() uintptr       { return SND_PCM_IOCTL_INFO }
func (r *infoRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.info) }
func (r *infoRequest) name() string        { return "INFO" }

type channelInfoRequest struct{ info sndPcmChannelInfo }

func (r *channelInfoRequest) code() uintptr       { return SND_PCM_IOCTL_CHANNEL_INFO }
func (r *channelInfoRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.info) }
func (r *channelInfoRequest) name() string        { return "CHANNEL_INFO" }

type paramsRequest struct{ params sndPcmChannelParams }

func (r *paramsRequest) code() uintptr       { return SND_PCM_IOCTL_CHANNEL_PARAMS }
func (r *paramsRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.params) }
func (r *paramsRequest) name() string        { return "CHANNEL_PARAMS" }

type setupRequest struct{ setup sndPcmChannelSetup }

func (r *setupRequest) code() uintptr       { return SND_PCM_IOCTL_CHANNEL_SETUP }
func (r *setupRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.setup) }
func (r *setupRequest) name() string        { return "CHANNEL_SETUP" }

type voiceSetupRequest struct{ setup sndPcmVoiceSetup }

func (r *voiceSetupRequest) code() uintptr       { return SND_PCM_IOCTL_VOICE_SETUP }
func (r *voiceSetupRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.setup) }
func (r *voiceSetupRequest) name() string        { return "VOICE_SETUP" }

type statusRequest struct{ status sndPcmChannelStatus }

func (r *statusRequest) code() uintptr       { return SND_PCM_IOCTL_CHANNEL_STATUS }
func (r *statusRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.status) }
func (r *statusRequest) name() string        { return "CHANNEL_STATUS" }

type prepareRequest struct{}

func (prepareRequest) code() uintptr       { return SND_PCM_IOCTL_CHANNEL_PREPARE }
func (prepareRequest) arg() unsafe.Pointer { return nil }
func (prepareRequest) name() string        { return "CHANNEL_PREPARE" }

type goRequest struct{}

func (goRequest) code() uintptr       { return SND_PCM_IOCTL_CHANNEL_GO }
func (goRequest) arg() unsafe.Pointer { return nil }
func (goRequest) name() string        { return "CHANNEL_GO" }

type syncGoRequest struct{ sync sndPcmSync }

func (r *syncGoRequest) code() uintptr       { return SND_PCM_IOCTL_SYNC_GO }
func (r *syncGoRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.sync) }
func (r *syncGoRequest) name() string        { return "SYNC_GO" }

type drainRequest struct{}

func (drainRequest) code() uintptr       { return SND_PCM_IOCTL_CHANNEL_DRAIN }
func (drainRequest) arg() unsafe.Pointer { return nil }
func (drainRequest) name() string        { return "CHANNEL_DRAIN" }

type flushRequest struct{}

func (flushRequest) code() uintptr       { return SND_PCM_IOCTL_CHANNEL_FLUSH }
func (flushRequest) arg() unsafe.Pointer { return nil }
func (flushRequest) name() string        { return "CHANNEL_FLUSH" }

type pauseRequest struct{ enable int32 }

func (r *pauseRequest) code() uintptr       { return SND_PCM_IOCTL_CHANNEL_PAUSE }
func (r *pauseRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.enable) }
func (r *pauseRequest) name() string        { return "CHANNEL_PAUSE" }

// vectorRequest moves a whole iovec array in one driver-mediated transfer.
type vectorRequest struct {
	write bool
	args  sndVArgs
}

func (r *vectorRequest) code() uintptr {
	if r.write {
		return SND_IOCTL_WRITEV
	}

	return SND_IOCTL_READV
}

func (r *vectorRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.args) }

func (r *vectorRequest) name() string {
	if r.write {
		return "WRITEV"
	}

	return "READV"
}

type ctlVersionRequest struct{ version int32 }

func (r *ctlVersionRequest) code() uintptr       { return SND_CTL_IOCTL_PVERSION }
func (r *ctlVersionRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.version) }
func (r *ctlVersionRequest) name() string        { return "CTL_PVERSION" }

type ctlPcmDeviceRequest struct{ device int32 }

func (r *ctlPcmDeviceRequest) code() uintptr       { return SND_CTL_IOCTL_PCM_DEVICE }
func (r *ctlPcmDeviceRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.device) }
func (r *ctlPcmDeviceRequest) name() string        { return "CTL_PCM_DEVICE" }

type ctlPcmChannelRequest struct{ channel int32 }

func (r *ctlPcmChannelRequest) code() uintptr       { return SND_CTL_IOCTL_PCM_CHANNEL }
func (r *ctlPcmChannelRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.channel) }
func (r *ctlPcmChannelRequest) name() string        { return "CTL_PCM_CHANNEL" }

type ctlPreferSubdeviceRequest struct{ subdevice int32 }

func (r *ctlPreferSubdeviceRequest) code() uintptr       { return SND_CTL_IOCTL_PCM_PREFER_SUBDEVICE }
func (r *ctlPreferSubdeviceRequest) arg() unsafe.Pointer { return unsafe.Pointer(&r.subdevice) }
func (r *ctlPreferSubdeviceRequest) name() string        { return "CTL_PCM_PREFER_SUBDEVICE" }
