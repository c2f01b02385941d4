//go:build linux && (386 || arm || mipsle)

package sndpcm

// culong is the C `unsigned long` type on 32-bit systems.
type culong = uint32
