// Package wire builds the on-the-wire byte layout for one Open Fronthaul
// frame: the Ethernet/VLAN header, the eCPRI transport header, and the
// O-RAN C-Plane (section type 1, section type 3) and U-Plane (section type
// 1) application headers (spec §4.5, §4.6, §6).
//
// Every builder writes into a caller-supplied slice and returns the number
// of bytes written; none of them allocate. A slice too small to hold the
// message is a programming error and panics, matching the scoped-buffer
// writers upstream of this package (fragment sizing guarantees the slice is
// always large enough in practice).
package wire

import (
	"encoding/binary"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
)

// EtherType is the O-RAN fronthaul control-plane/user-plane EtherType.
const EtherType = 0xAEFE

// EthernetHeader describes the fields of an outbound Ethernet/VLAN header.
type EthernetHeader struct {
	DstMAC   [6]byte
	SrcMAC   [6]byte
	VLANTag  uint16 // 0 means no VLAN tag is written
	VLANTCI  uint16
}

// BuildEthernet writes a 14-byte Ethernet header, or 18 bytes when h.VLANTag
// is non-zero, and returns the number of bytes written (spec §6 "Ethernet
// wire frames").
func BuildEthernet(out []byte, h EthernetHeader) int {
	n := 14
	if h.VLANTag != 0 {
		n = 18
	}
	if len(out) < n {
		panic("wire: BuildEthernet: out too small")
	}
	copy(out[0:6], h.DstMAC[:])
	copy(out[6:12], h.SrcMAC[:])
	if h.VLANTag == 0 {
		binary.BigEndian.PutUint16(out[12:14], EtherType)
		return 14
	}
	binary.BigEndian.PutUint16(out[12:14], h.VLANTag)
	binary.BigEndian.PutUint16(out[14:16], h.VLANTCI)
	binary.BigEndian.PutUint16(out[16:18], EtherType)
	return 18
}

// eCPRI message types (O-RAN.WG4.CUS, table "eCPRI message types").
const (
	ECPRIMsgTypeIQData    uint8 = 0
	ECPRIMsgTypeRTControl uint8 = 2
)

// ECPRIHeader carries the fields needed to stamp one eCPRI transport header.
type ECPRIHeader struct {
	MsgType   uint8
	EAxC      ofh.EAxC
	SeqID     uint8 // generator output; high byte of the 16-bit sequence field
	PayloadSz uint16
}

// ECPRIHeaderLen is the fixed size of the eCPRI common header (spec §6
// "eCPRI").
const ECPRIHeaderLen = 8

const ecpriHeaderLen = ECPRIHeaderLen

// BuildECPRI writes the 8-byte eCPRI common header and returns the bytes
// written. The sequence field's high byte is h.SeqID, the low byte is
// 0x80 (E=1, no fragmentation, subsequence 0), per spec §4.6/§6.
func BuildECPRI(out []byte, h ECPRIHeader) int {
	if len(out) < ecpriHeaderLen {
		panic("wire: BuildECPRI: out too small")
	}
	out[0] = 0x10 // protocol revision 1, concatenation disabled
	out[1] = h.MsgType
	binary.BigEndian.PutUint16(out[2:4], h.PayloadSz)
	binary.BigEndian.PutUint16(out[4:6], uint16(h.EAxC)<<8) // pc_id/rtc_id = eAxC
	out[6] = h.SeqID
	out[7] = 0x80
	return ecpriHeaderLen
}

// RadioHeader is the common §6 fields shared by C-Plane section type 1 and
// 3 and by U-Plane section type 1.
type RadioHeader struct {
	Direction   ofh.Direction
	Slot        ofh.SlotPoint
	FilterIndex ofh.FilterIndex
	StartSymbol uint8
}

const radioHeaderLen = 4

func buildRadioHeader(out []byte, h RadioHeader) int {
	subframe := h.Slot.Slot / uint16(h.Slot.NofSlotsPerSubframe())
	slotInSubframe := h.Slot.Slot % uint16(h.Slot.NofSlotsPerSubframe())

	out[0] = byte(h.Direction)<<7 | byte(h.Slot.SFN>>8)&0x7f
	out[1] = byte(h.Slot.SFN)
	out[2] = byte(subframe)<<6 | byte(slotInSubframe)&0x3f
	out[3] = byte(h.FilterIndex)<<4 | h.StartSymbol&0x0f
	return radioHeaderLen
}

// SectionType1Params parameterizes a C-Plane section type 1 message, used
// for ordinary downlink and uplink data (spec §6 "OFH C-Plane section type
// 1").
type SectionType1Params struct {
	Radio      RadioHeader
	NofPRB     uint16
	NofSymbols uint8
}

// SectionType1Len is RadioHeader (4) + {section_id (1), rb/prb_start (1),
// numPrbc (2), reMask|numSymbol (1)} (5): the fixed wire size of a C-Plane
// section type 1 message.
const SectionType1Len = radioHeaderLen + 5

const sectionType1Len = SectionType1Len

// BuildSectionType1 writes a C-Plane section type 1 message with
// section_id=0, prb_start=0, re_mask=0xFFF, and returns bytes written
// (spec §4.5, §6).
func BuildSectionType1(out []byte, p SectionType1Params) int {
	if len(out) < sectionType1Len {
		panic("wire: BuildSectionType1: out too small")
	}
	n := buildRadioHeader(out, p.Radio)
	out[n] = 0 // section_id = 0
	n++
	out[n] = 0 // rb indicator / prb_start = 0
	n++
	binary.BigEndian.PutUint16(out[n:n+2], p.NofPRB)
	n += 2
	out[n] = p.NofSymbols<<4 | 0x0F // re_mask=0xFFF packed with numSymbol nibble
	n++
	return n
}

// SectionType3Params parameterizes a C-Plane section type 3 message, used
// for PRACH preamble requests (spec §6 "OFH C-Plane section type 3", §4.10).
type SectionType3Params struct {
	Radio           RadioHeader
	NofPRB          uint16
	NumSymbol       uint8
	SCSkHz          uint16
	TimeOffset      uint32
	FFTSize         uint16
	FrequencyOffset int32
}

// SectionType3Len is the fixed wire size of a C-Plane section type 3
// message: RadioHeader (4) + {section_id, prb_start, numPrbc, numSymbol} (5)
// + scs (2) + time_offset (4) + cpLength (1) + fft_size (2) +
// frequency_offset (4).
const SectionType3Len = radioHeaderLen + 5 + 2 + 4 + 1 + 2 + 4

const sectionType3Len = SectionType3Len

// BuildSectionType3PRACH writes a C-Plane section type 3 message with
// cpLength=0 (spec §6), section_id=0, and returns bytes written.
func BuildSectionType3PRACH(out []byte, p SectionType3Params) int {
	if len(out) < sectionType3Len {
		panic("wire: BuildSectionType3PRACH: out too small")
	}
	n := buildRadioHeader(out, p.Radio)
	out[n] = 0 // section_id = 0
	n++
	out[n] = 0 // prb_start = 0
	n++
	binary.BigEndian.PutUint16(out[n:n+2], p.NofPRB)
	n += 2
	out[n] = p.NumSymbol
	n++
	binary.BigEndian.PutUint16(out[n:n+2], p.SCSkHz)
	n += 2
	binary.BigEndian.PutUint32(out[n:n+4], p.TimeOffset)
	n += 4
	out[n] = 0 // cpLength = 0
	n++
	binary.BigEndian.PutUint16(out[n:n+2], p.FFTSize)
	n += 2
	binary.BigEndian.PutUint32(out[n:n+4], uint32(p.FrequencyOffset))
	n += 4
	return n
}

// UPlaneSectionParams parameterizes a U-Plane section type 1 message: the
// radio header, the per-section PRB window, symbol id and compression
// parameters, followed by the already-compressed PRB payload (spec §6 "OFH
// U-Plane section type 1").
type UPlaneSectionParams struct {
	Radio      RadioHeader
	StartPRB   uint16
	NofPRB     uint16
	SymbolID   uint8
	Comp       ofh.CompressionParams
	Compressed []byte // pre-compressed PRB bytes, written verbatim after the header
}

const uPlaneHeaderLen = radioHeaderLen + 5

// BuildUPlaneSection writes a U-Plane section type 1 header followed by the
// already-compressed PRB payload, returning the total bytes written.
func BuildUPlaneSection(out []byte, p UPlaneSectionParams) int {
	total := uPlaneHeaderLen + len(p.Compressed)
	if len(out) < total {
		panic("wire: BuildUPlaneSection: out too small")
	}
	n := buildRadioHeader(out, p.Radio)
	binary.BigEndian.PutUint16(out[n:n+2], p.StartPRB)
	n += 2
	binary.BigEndian.PutUint16(out[n:n+2], p.NofPRB)
	n += 2
	out[n] = p.SymbolID<<3 | byte(p.Comp.Type)&0x07
	n++
	n += copy(out[n:], p.Compressed)
	return n
}
