// Package ofh holds the data model shared by the Open Fronthaul (OFH)
// transmit-path components: slot/symbol addressing, eAxC identifiers,
// compression parameters and the collaborator interfaces (resource grid,
// Ethernet gateway, error notifier) that the engine consumes
// but does not implement.
//
// The wire-level encodings built from these types live in package wire; the
// compression engine lives in package iqcompress.
package ofh

import "fmt"

// Direction distinguishes downlink from uplink radio headers, per O-RAN.WG4.CUS
// section "Data direction".
type Direction uint8

const (
	// Uplink marks messages describing reception from the UE.
	Uplink Direction = 0
	// Downlink marks messages describing transmission to the UE.
	Downlink Direction = 1
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Downlink {
		return "DL"
	}
	return "UL"
}

// EAxC is an "extended antenna-carrier" identifier, an 8-bit tag
// distinguishing a logical transmit/receive lane in the OFH wire protocol.
// Valid values are in [0, MaxSupportedEAxCID).
type EAxC uint8

// MaxSupportedEAxCID bounds the values a EAxC may legally take; see
// MAX_NOF_SUPPORTED_EAXC / MAX_SUPPORTED_EAXC_ID_VALUE in spec §3/§4.6.
const MaxSupportedEAxCID = 128

// MaxNofSupportedEAxC is the maximum count of distinct eAxC lanes handled
// per sector (spec §3).
const MaxNofSupportedEAxC = 8

// FilterIndex selects the RU-side channel filter for a C-Plane section,
// chosen per PRACH preamble format and subcarrier spacing (spec §4.10.2).
type FilterIndex uint8

// Filter indices used by section type 1 and type 3 builders. Values follow
// O-RAN.WG4.CUS table 7.5.2.13-2; standard_channel is the default filter for
// ordinary DL/UL data sections.
const (
	FilterStandardChannel FilterIndex = 0
	FilterPRACH1p25kHz    FilterIndex = 1
	FilterPRACH5kHz       FilterIndex = 2
	FilterPRACHShort15kHz FilterIndex = 3
	FilterPRACHShort30kHz FilterIndex = 4
)

// CompressionType names a §3 compression algorithm tag. Only None and BFP
// are implemented; the rest must be accepted as configuration values and
// route to ErrUnsupportedCompression when exercised.
type CompressionType uint8

const (
	CompNone CompressionType = iota
	CompBFP
	CompMuLaw
	CompBlockScaling
	CompModulation
	CompBFPSelective
	CompModSelective
)

// String implements fmt.Stringer.
func (c CompressionType) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompBFP:
		return "bfp"
	case CompMuLaw:
		return "mu-law"
	case CompBlockScaling:
		return "block-scaling"
	case CompModulation:
		return "modulation"
	case CompBFPSelective:
		return "bfp-selective"
	case CompModSelective:
		return "mod-selective"
	default:
		return fmt.Sprintf("comp(%d)", uint8(c))
	}
}

// CompressionParams is the §3 tuple (type, data_width).
type CompressionParams struct {
	Type      CompressionType
	DataWidth uint8 // bits per I or Q component, range [1..16]
}

// HasExponent reports whether the wire format carries a 1-byte exponent
// ahead of the packed samples for this compression type (spec §3, §6).
func (p CompressionParams) HasExponent() bool {
	switch p.Type {
	case CompBFP, CompMuLaw, CompBFPSelective, CompModSelective:
		return true
	default:
		return false
	}
}

// SamplesPerPRB is the number of subcarriers per Physical Resource Block.
const SamplesPerPRB = 12

// PRBPayloadBytes returns the wire size of one compressed PRB for params p:
// ceil(12*2*data_width/8) packed-sample bytes, plus one exponent byte when
// HasExponent reports true (spec §3, §4.4).
func (p CompressionParams) PRBPayloadBytes() int {
	bits := SamplesPerPRB * 2 * int(p.DataWidth)
	n := (bits + 7) / 8
	if p.HasExponent() {
		n++
	}
	return n
}

// SlotPoint identifies an OFDM slot by numerology, (hyper-)frame-extended
// system frame number and slot index within the frame, per spec §3.
type SlotPoint struct {
	Numerology uint8 // µ in [0..4]
	HyperSFN   uint16
	SFN        uint16 // [0..1023]
	Slot       uint16 // slot index within the SFN, [0, NofSlotsPerFrame)
}

// NofSlotsPerSubframe returns 2^µ, the number of slots in a 1ms subframe for
// this numerology.
func (s SlotPoint) NofSlotsPerSubframe() uint {
	return 1 << s.Numerology
}

// NofSlotsPerFrame returns 10 * NofSlotsPerSubframe, the slot count of one
// 10ms radio frame.
func (s SlotPoint) NofSlotsPerFrame() uint {
	return 10 * s.NofSlotsPerSubframe()
}

// SymbolsPerSlot is fixed at 14 for normal cyclic prefix (spec §3).
const SymbolsPerSlot = 14

// SymbolPoint is a (slot, symbol) pair. Its arithmetic works on an absolute
// symbol count that includes HyperSFN; it does not wrap at a hyperframe
// boundary.
type SymbolPoint struct {
	Slot   SlotPoint
	Symbol uint8 // [0, SymbolsPerSlot)
}

// totalSymbols linearizes a SymbolPoint into an absolute symbol count,
// HyperSFN included, for arithmetic comparisons (is-late, tx windows). No
// modular reduction is applied.
func (p SymbolPoint) totalSymbols() int64 {
	slotsPerFrame := int64(p.Slot.NofSlotsPerFrame())
	framesPerHyper := int64(1024)
	hyper := int64(p.Slot.HyperSFN)
	sfn := int64(p.Slot.SFN)
	slot := int64(p.Slot.Slot)
	sym := int64(p.Symbol)

	absSlot := (hyper*framesPerHyper+sfn)*slotsPerFrame + slot
	return absSlot*int64(SymbolsPerSlot) + sym
}

// Sub returns p - q in symbols as the plain difference of the two absolute
// counts; the result does not wrap at a hyperframe boundary. Each point is
// linearized with its own numerology; callers must not mix numerologies.
func (p SymbolPoint) Sub(q SymbolPoint) int64 {
	return p.totalSymbols() - q.totalSymbols()
}

// AddSymbols returns the SymbolPoint n symbols after p (n may be negative).
func (p SymbolPoint) AddSymbols(n int64) SymbolPoint {
	slotsPerFrame := int64(p.Slot.NofSlotsPerFrame())
	framesPerHyper := int64(1024)

	total := p.totalSymbols() + n
	sym := total % int64(SymbolsPerSlot)
	absSlot := total / int64(SymbolsPerSlot)
	if sym < 0 {
		sym += int64(SymbolsPerSlot)
		absSlot--
	}

	slot := absSlot % slotsPerFrame
	absFrame := absSlot / slotsPerFrame
	if slot < 0 {
		slot += slotsPerFrame
		absFrame--
	}
	sfn := absFrame % framesPerHyper
	hyper := absFrame / framesPerHyper
	if sfn < 0 {
		sfn += framesPerHyper
		hyper--
	}

	return SymbolPoint{
		Slot: SlotPoint{
			Numerology: p.Slot.Numerology,
			HyperSFN:   uint16(hyper),
			SFN:        uint16(sfn),
			Slot:       uint16(slot),
		},
		Symbol: uint8(sym),
	}
}

// String implements fmt.Stringer.
func (p SymbolPoint) String() string {
	return fmt.Sprintf("sfn=%d.%d slot=%d sym=%d", p.Slot.HyperSFN, p.Slot.SFN, p.Slot.Slot, p.Symbol)
}

// Sector identifies one logical radio sector handled by the transmit
// pipeline, used only to annotate contexts passed to the error notifier.
type Sector uint16

// Context is the {slot, sector} pair carried by handler entry points and by
// ErrorNotifier callbacks (spec §4.9, §4.10, §6).
type Context struct {
	Slot   SlotPoint
	Sector Sector
}

// ErrorNotifier surfaces lateness to the upper PHY (spec §6, §7). Methods
// must not block.
type ErrorNotifier interface {
	OnLateDownlinkMessage(ctx Context)
	OnLateUplinkMessage(ctx Context)
	OnLatePRACHMessage(ctx Context)
}

// ResourceGrid is a read-only view of (port, symbol, subcarrier) -> complex
// sample, spec §3. Implementations are supplied by the upper PHY and are
// out of scope for this repository.
type ResourceGrid interface {
	// Get appends 12*nofPRBs complex samples for (port, symbol) into dst
	// and returns the extended slice. Callers reuse dst across calls.
	Get(dst []complex64, port uint8, symbol uint8, nofPRBs uint16) []complex64
}

// EthernetGateway hands a burst of already-framed Ethernet frames to the
// send()/sendmmsg() syscall wrapper (spec §4.11, §6); batching is its
// responsibility, not this repository's.
type EthernetGateway interface {
	Send(frames [][]byte) error
}
